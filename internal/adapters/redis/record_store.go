// Package redis provides the Redis-backed session record store.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "jobboard:session:"

// RecordStore keeps the session record as a single Redis hash, so every
// operation touches one key and the store works unchanged on a cluster.
type RecordStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// RecordStoreOptions configures a RecordStore.
type RecordStoreOptions struct {
	// Prefix defaults to "jobboard:session:".
	Prefix    string
	Namespace string
	// TTL expires an idle record; zero keeps it until sign-out.
	TTL time.Duration
}

// NewRecordStore creates a Redis-backed record store.
func NewRecordStore(client redis.UniversalClient, opts RecordStoreOptions) *RecordStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ns := opts.Namespace
	if ns == "" {
		ns = "default"
	}
	return &RecordStore{client: client, key: prefix + ns, ttl: opts.TTL}
}

// Key returns the Redis key holding the record.
func (s *RecordStore) Key() string { return s.key }

// Get implements ports.RecordStore.
func (s *RecordStore) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := s.client.HMGet(ctx, s.key, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget: %w", err)
	}
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

// Set implements ports.RecordStore. The write and the TTL refresh run in one MULTI block.
func (s *RecordStore) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, values)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// Delete implements ports.RecordStore.
func (s *RecordStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, s.key, keys...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}
