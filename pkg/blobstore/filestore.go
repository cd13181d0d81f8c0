// Copyright 2025 Certen Protocol
//
// FileStore persists blobs as plain files on a local filesystem, one file per
// handle, named by hex(handle). Writes go to a temp file in the same
// directory and are renamed into place, so a reader can never observe a
// partially-written blob — the layout invariant spec.md calls out as the
// recommended implementation strategy for a local-file backend.
package blobstore

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore is a blobstore.Store backed by a directory of files.
type FileStore struct {
	dir string
}

// NewFileStore opens dir as a blob store, creating it if necessary.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: filestore init %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(h Handle) string {
	return filepath.Join(s.dir, hex.EncodeToString(h[:]))
}

func (s *FileStore) Put(_ context.Context, h Handle, data []byte) error {
	final := s.path(h)
	if _, err := os.Stat(final); err == nil {
		// Content-addressed: an existing blob under this handle is assumed
		// equal, per Store.Put's contract.
		return nil
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return wrapErr("put", h, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return wrapErr("put", h, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return wrapErr("put", h, err)
	}
	if err := tmp.Close(); err != nil {
		return wrapErr("put", h, err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		return wrapErr("put", h, err)
	}
	return nil
}

func (s *FileStore) Open(_ context.Context, h Handle) (Reader, error) {
	f, err := os.Open(s.path(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapErr("open", h, ErrNotFound)
		}
		return nil, wrapErr("open", h, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, wrapErr("open", h, err)
	}
	return &fileReader{f: f, size: info.Size()}, nil
}

func (s *FileStore) Delete(_ context.Context, h Handle) error {
	if err := os.Remove(s.path(h)); err != nil && !os.IsNotExist(err) {
		return wrapErr("delete", h, err)
	}
	return nil
}

type fileReader struct {
	f    *os.File
	size int64
}

func (r *fileReader) Size() int64 { return r.size }

func (r *fileReader) ReadAt(p []byte, off int64) (int, error) {
	return r.f.ReadAt(p, off)
}
