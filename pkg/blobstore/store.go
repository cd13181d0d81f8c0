// Copyright 2025 Certen Protocol
//
// Package blobstore abstracts the durable storage of tree blobs behind a
// content-addressed Store interface. The tree and forest packages never
// touch a filesystem or database directly; they only ever call Put/Open/
// Delete on a Store.
package blobstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/certen/forestlog/pkg/hash"
)

// ErrNotFound is returned by Open when no blob exists for the given handle.
var ErrNotFound = errors.New("blobstore: blob not found")

// Handle identifies a blob by the content hash the caller chose for it
// (for this repository, always a tree root produced by pkg/hash).
type Handle = hash.Hash

// Reader supports the random-access reads Tree needs over a blob: a single
// 32-byte slot read, or the whole blob for iteration.
type Reader interface {
	// ReadAt reads len(p) bytes starting at byte offset off. It behaves like
	// io.ReaderAt: a short read is only acceptable at EOF.
	ReadAt(p []byte, off int64) (int, error)
	// Size returns the blob's length in bytes.
	Size() int64
}

// Store is the abstract blob store consumed by pkg/tree and pkg/forest.
// Implementations MUST make Put durable (fsync'd, or the backend's
// equivalent) before returning a nil error, and MUST make the write visible
// under its final content-addressed name atomically — a crash between the
// two must never leave a reader able to Open a partially-written blob.
type Store interface {
	// Put stores data under the given content-addressed handle. Calling Put
	// twice with the same handle and equal data is a no-op on the second
	// call; calling it with the same handle and different data is a caller
	// bug (content-addressing assumes this never happens) and backends are
	// free to detect or ignore it.
	Put(ctx context.Context, h Handle, data []byte) error
	// Open returns a Reader over the blob stored under h, or ErrNotFound.
	Open(ctx context.Context, h Handle) (Reader, error)
	// Delete best-effort removes the blob stored under h. Not required for
	// correctness — callers (pkg/tree's Merge) use it purely for space
	// reclamation of blobs it has logically consumed.
	Delete(ctx context.Context, h Handle) error
}

// wrapErr gives every backend a consistent error-wrapping shape, matching
// the teacher's fmt.Errorf("...: %w", err) convention throughout
// pkg/database and pkg/ledger.
func wrapErr(op string, h Handle, err error) error {
	return fmt.Errorf("blobstore: %s %x: %w", op, h[:], err)
}
