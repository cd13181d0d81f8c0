// Copyright 2025 Certen Protocol
//
// Package database provides sentinel errors for repository operations.
// Explicit errors instead of nil, nil returns

package database

import "errors"

// Sentinel errors for database operations
var (
	// ErrNotFound is returned when a requested entity is not found in the database
	ErrNotFound = errors.New("entity not found")

	// ErrCheckpointNotFound is returned when no checkpoint record exists yet
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)
