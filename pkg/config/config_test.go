// Copyright 2025 Certen Protocol

package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaultsAndValidate(t *testing.T) {
	for _, key := range []string{"DATA_DIR", "BLOB_BACKEND", "LEVELDB_PATH", "API_HOST", "API_PORT"} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.BlobBackend != "file" {
		t.Fatalf("BlobBackend = %q, want file", cfg.BlobBackend)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := &Config{BlobBackend: "s3", DataDir: "./data"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Validate accepted unknown BlobBackend")
	}
}

func TestGetEnvDurationFallsBackOnInvalidValue(t *testing.T) {
	os.Setenv("TEST_DURATION_KEY", "not-a-duration")
	defer os.Unsetenv("TEST_DURATION_KEY")

	got := getEnvDuration("TEST_DURATION_KEY", 5*time.Minute)
	if got != 5*time.Minute {
		t.Fatalf("getEnvDuration = %v, want fallback 5m", got)
	}
}

func TestGetEnvBoolParsesAndFallsBack(t *testing.T) {
	os.Unsetenv("TEST_BOOL_KEY")
	if got := getEnvBool("TEST_BOOL_KEY", true); got != true {
		t.Fatalf("getEnvBool unset = %v, want fallback true", got)
	}

	os.Setenv("TEST_BOOL_KEY", "false")
	defer os.Unsetenv("TEST_BOOL_KEY")
	if got := getEnvBool("TEST_BOOL_KEY", true); got != false {
		t.Fatalf("getEnvBool(\"false\") = %v, want false", got)
	}

	os.Setenv("TEST_BOOL_KEY", "not-a-bool")
	if got := getEnvBool("TEST_BOOL_KEY", true); got != true {
		t.Fatalf("getEnvBool(invalid) = %v, want fallback true", got)
	}
}

func TestLoadRespectsCheckpointEnabledOverride(t *testing.T) {
	os.Setenv("CHECKPOINT_ENABLED", "false")
	defer os.Unsetenv("CHECKPOINT_ENABLED")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CheckpointEnabled {
		t.Fatalf("CheckpointEnabled = true, want false when CHECKPOINT_ENABLED=false")
	}
}
