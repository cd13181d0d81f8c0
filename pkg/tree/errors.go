// Copyright 2025 Certen Protocol

package tree

import "errors"

var (
	// ErrInvalidEntryLength is returned when an entry is not exactly 32 bytes.
	ErrInvalidEntryLength = errors.New("tree: entry must be exactly 32 bytes")

	// ErrInvalidBlobLength is returned by Open when a blob's length is not
	// (2^h - 1) * 32 for any integer h >= 1.
	ErrInvalidBlobLength = errors.New("tree: blob length is not (2^h-1)*32 for any h>=1")

	// ErrHeightMismatch is returned by Merge when the two trees have
	// different heights.
	ErrHeightMismatch = errors.New("tree: merge requires equal heights")

	// ErrBlobStore marks an error as originating from the underlying
	// blobstore.Store rather than from tree logic itself. It wraps the
	// store's own error, so callers can errors.Is(err, ErrBlobStore) to
	// tell a backend failure (disk full, connection lost) apart from a
	// tree-layout invariant violation.
	ErrBlobStore = errors.New("tree: blob store error")
)
