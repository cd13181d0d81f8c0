// Copyright 2025 Certen Protocol
//
// Unit tests for the checkpoint store. The round-trip test needs a real
// Postgres instance and is skipped unless FORESTLOG_TEST_DB is set.

package checkpoint

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/certen/forestlog/pkg/config"
	"github.com/certen/forestlog/pkg/database"
	"github.com/certen/forestlog/pkg/hash"
)

func TestNilStoreIsNoOp(t *testing.T) {
	var s *Store

	if err := s.Close(); err != nil {
		t.Fatalf("Close on nil store: %v", err)
	}

	id, err := s.Record(context.Background(), 1, hash.Hash{}, 1)
	if err != nil {
		t.Fatalf("Record on nil store: %v", err)
	}
	if id.String() != "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("Record on nil store returned non-zero id %s", id)
	}

	if _, err := s.Latest(context.Background()); !errors.Is(err, database.ErrCheckpointNotFound) {
		t.Fatalf("Latest on nil store = %v, want ErrCheckpointNotFound", err)
	}
}

func TestOpenWithEmptyDatabaseURLReturnsNilStore(t *testing.T) {
	cfg := &config.Config{DatabaseURL: ""}
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s != nil {
		t.Fatalf("Open with empty DatabaseURL returned non-nil store")
	}
}

func TestOpenWithCheckpointDisabledReturnsNilStoreEvenWithURL(t *testing.T) {
	cfg := &config.Config{CheckpointEnabled: false, DatabaseURL: "postgres://unused/unused"}
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s != nil {
		t.Fatalf("Open with CheckpointEnabled=false returned non-nil store")
	}
}

func TestRecordAndLatestRoundTrip(t *testing.T) {
	connStr := os.Getenv("FORESTLOG_TEST_DB")
	if connStr == "" {
		t.Skip("FORESTLOG_TEST_DB not set, skipping Postgres-backed checkpoint test")
	}

	cfg := &config.Config{
		CheckpointEnabled: true,
		DatabaseURL:       connStr,
		DBMaxOpenConns:    5,
		DBMaxIdleConns:    2,
		DBConnMaxIdleTime: 0,
		DBConnMaxLifetime: 0,
	}
	s, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	root := hash.Hash{0xAA}
	if _, err := s.Record(context.Background(), 7, root, 42); err != nil {
		t.Fatalf("Record: %v", err)
	}

	latest, err := s.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Height != 7 || latest.Root != root || latest.Cardinality != 42 {
		t.Fatalf("Latest = %+v, want height=7 root=%x cardinality=42", latest, root)
	}
}
