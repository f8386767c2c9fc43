package auth

// Package auth contains simple hand-written test doubles for session ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"maps"
	"sync"

	"github.com/target/jobboard-portal/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.RecordStore      = (*MemoryRecordStore)(nil)
	_ ports.CredentialHolder = (*CredentialHolder)(nil)
)

// MemoryRecordStore is an in-memory RecordStore. Optional hooks inject failures.
// It is safe for concurrent use.
type MemoryRecordStore struct {
	GetFunc    func(ctx context.Context, keys ...string) (map[string]string, error)
	SetFunc    func(ctx context.Context, values map[string]string) error
	DeleteFunc func(ctx context.Context, keys ...string) error

	mu     sync.Mutex
	values map[string]string
	writes int
}

// NewMemoryRecordStore creates a store pre-populated with seed values.
func NewMemoryRecordStore(seed map[string]string) *MemoryRecordStore {
	values := make(map[string]string, len(seed))
	maps.Copy(values, seed)
	return &MemoryRecordStore{values: values}
}

func (m *MemoryRecordStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, keys...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryRecordStore) Set(ctx context.Context, values map[string]string) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, values)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	maps.Copy(m.values, values)
	m.writes++
	return nil
}

func (m *MemoryRecordStore) Delete(ctx context.Context, keys ...string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, keys...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	m.writes++
	return nil
}

// Snapshot returns a copy of every stored value.
func (m *MemoryRecordStore) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	maps.Copy(out, m.values)
	return out
}

// Writes reports how many Set/Delete calls reached the store.
func (m *MemoryRecordStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// CredentialHolder records the credential history set by the session.
type CredentialHolder struct {
	mu      sync.Mutex
	current string
	history []string
}

func (c *CredentialHolder) SetCredential(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = token
	c.history = append(c.history, token)
}

func (c *CredentialHolder) Credential(context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// History returns every value passed to SetCredential, in order.
func (c *CredentialHolder) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.history...)
}
