// Copyright 2025 Certen Protocol
//
// Package checkpoint records an append-only audit trail of forest roots in
// Postgres, independent of the forest's own blob store. A checkpoint is a
// witness a node can publish so a third party can later verify the forest
// only ever grew (no history was rewritten) without trusting the node's
// in-memory state.
package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/certen/forestlog/pkg/config"
	"github.com/certen/forestlog/pkg/database"
	"github.com/certen/forestlog/pkg/hash"
)

// Checkpoint is a single recorded snapshot of a forest's root.
type Checkpoint struct {
	ID          uuid.UUID
	Height      int64
	Root        hash.Hash
	Cardinality int64
	CommittedAt time.Time
}

// Store is the checkpoint audit index. A nil *Store is valid and every
// method on it is a no-op, so callers can construct one unconditionally and
// skip the "is checkpointing enabled" branch at every call site.
type Store struct {
	client *database.Client
}

// Open connects to the checkpoint database and ensures its schema exists.
// If checkpointing is disabled via cfg.CheckpointEnabled or cfg.DatabaseURL
// is empty, Open returns (nil, nil): checkpointing is disabled, not
// misconfigured.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	if !cfg.CheckpointEnabled || cfg.DatabaseURL == "" {
		return nil, nil
	}

	client, err := database.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: connect: %w", err)
	}
	if err := client.MigrateUp(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("checkpoint: migrate: %w", err)
	}
	return &Store{client: client}, nil
}

// Close releases the underlying database connection. Safe to call on a nil
// *Store.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}

// Record appends a new checkpoint. Safe to call on a nil *Store, in which
// case it returns the zero UUID and a nil error.
func (s *Store) Record(ctx context.Context, height int64, root hash.Hash, cardinality int64) (uuid.UUID, error) {
	if s == nil {
		return uuid.UUID{}, nil
	}

	id := uuid.New()
	_, err := s.client.ExecContext(ctx,
		`INSERT INTO forest_checkpoints (id, height, root, cardinality) VALUES ($1, $2, $3, $4)`,
		id, height, root.Bytes(), cardinality,
	)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("checkpoint: insert: %w", err)
	}
	return id, nil
}

// Health reports the checkpoint database's connection health. Safe to call
// on a nil *Store, which returns (nil, nil): checkpointing is disabled, not
// unhealthy.
func (s *Store) Health(ctx context.Context) (*database.HealthStatus, error) {
	if s == nil {
		return nil, nil
	}
	return s.client.Health(ctx)
}

// MigrationStatus reports which schema migrations have been applied to the
// checkpoint database. Safe to call on a nil *Store, which returns (nil,
// nil).
func (s *Store) MigrationStatus(ctx context.Context) ([]database.MigrationInfo, error) {
	if s == nil {
		return nil, nil
	}
	return s.client.MigrationStatus(ctx)
}

// Latest returns the most recently recorded checkpoint. On a nil *Store, or
// when no checkpoint has ever been recorded, it returns
// database.ErrCheckpointNotFound.
func (s *Store) Latest(ctx context.Context) (*Checkpoint, error) {
	if s == nil {
		return nil, database.ErrCheckpointNotFound
	}

	row := s.client.QueryRowContext(ctx,
		`SELECT id, height, root, cardinality, committed_at
		 FROM forest_checkpoints ORDER BY height DESC LIMIT 1`,
	)

	var (
		cp       Checkpoint
		rootByte []byte
	)
	if err := row.Scan(&cp.ID, &cp.Height, &rootByte, &cp.Cardinality, &cp.CommittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("checkpoint: query latest: %w", err)
	}
	if len(rootByte) != hash.Size {
		return nil, fmt.Errorf("checkpoint: stored root has %d bytes, want %d", len(rootByte), hash.Size)
	}
	copy(cp.Root[:], rootByte)
	return &cp, nil
}
