// Package postgres implements the session record store on a session_records table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/target/jobboard-portal/internal/data/pgxutil"
	apperrors "github.com/target/jobboard-portal/internal/errors"
)

const defaultNamespace = "default"

const upsertRecordSQL = `
	INSERT INTO session_records (namespace, key, value, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

// RecordStore keeps one row per key under a namespace, so several portal
// processes (or CLI profiles) can share a database.
type RecordStore struct {
	db        *sql.DB
	namespace string
}

// NewRecordStore creates a RecordStore. An empty namespace becomes "default".
func NewRecordStore(db *sql.DB, namespace string) *RecordStore {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &RecordStore{db: db, namespace: namespace}
}

// Get implements ports.RecordStore.
func (s *RecordStore) Get(ctx context.Context, keys ...string) (out map[string]string, err error) {
	out = make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM session_records WHERE namespace = $1 AND key = ANY($2)`,
		s.namespace, keys)
	if err != nil {
		return nil, apperrors.MapStoreError(err, "get session record")
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", cerr))
		}
	}()

	for rows.Next() {
		var k, v string
		if scanErr := rows.Scan(&k, &v); scanErr != nil {
			return nil, apperrors.MapStoreError(scanErr, "scan session record")
		}
		out[k] = v
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperrors.MapStoreError(rowsErr, "get session record")
	}
	return out, nil
}

// Set implements ports.RecordStore. All values are written in one transaction.
func (s *RecordStore) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	err := pgxutil.SendBatch(ctx, s.db, func(batch *pgx.Batch) {
		for k, v := range values {
			batch.Queue(upsertRecordSQL, s.namespace, k, v)
		}
	})
	return apperrors.MapStoreError(err, "set session record")
}

// Delete implements ports.RecordStore.
func (s *RecordStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM session_records WHERE namespace = $1 AND key = ANY($2)`,
		s.namespace, keys)
	return apperrors.MapStoreError(err, "delete session record")
}
