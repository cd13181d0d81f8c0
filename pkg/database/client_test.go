// Copyright 2025 Certen Protocol
//
// Unit tests for Client. Connection-backed tests require a real Postgres
// and are skipped unless FORESTLOG_TEST_DB is set.

package database

import (
	"context"
	"os"
	"testing"

	"github.com/certen/forestlog/pkg/config"
)

func testConfig(databaseURL string) *config.Config {
	cfg := &config.Config{
		DatabaseURL:       databaseURL,
		DBMaxOpenConns:    5,
		DBMaxIdleConns:    2,
		DBConnMaxIdleTime: 0,
		DBConnMaxLifetime: 0,
	}
	return cfg
}

func TestNewClientRejectsNilConfig(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Fatal("NewClient(nil): want error, got nil")
	}
}

func TestNewClientRejectsEmptyDatabaseURL(t *testing.T) {
	if _, err := NewClient(testConfig("")); err == nil {
		t.Fatal("NewClient(empty URL): want error, got nil")
	}
}

func TestClientLifecycleAgainstRealDatabase(t *testing.T) {
	connStr := os.Getenv("FORESTLOG_TEST_DB")
	if connStr == "" {
		t.Skip("FORESTLOG_TEST_DB not set, skipping database-backed test")
	}
	ctx := context.Background()

	client, err := NewClient(testConfig(connStr))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if err := client.MigrateUp(ctx); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}

	status, err := client.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if !status.Healthy {
		t.Fatalf("Health().Healthy = false, want true: %s", status.Error)
	}

	migrations, err := client.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("MigrationStatus returned no migrations, want at least one")
	}
	for _, m := range migrations {
		if !m.Applied {
			t.Fatalf("migration %s not applied after MigrateUp", m.Version)
		}
	}
}
