// Copyright 2025 Certen Protocol

package blobstore

import (
	"context"
	"errors"
	"testing"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/certen/forestlog/pkg/hash"
)

func handleOf(b byte) Handle {
	var h Handle
	h[0] = b
	return h
}

func withBackends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("Mem", func(t *testing.T) {
		fn(t, NewMem())
	})

	t.Run("KVStore", func(t *testing.T) {
		db := dbm.NewMemDB()
		fn(t, NewKVStore(db))
	})

	t.Run("FileStore", func(t *testing.T) {
		dir := t.TempDir()
		fs, err := NewFileStore(dir)
		if err != nil {
			t.Fatalf("NewFileStore: %v", err)
		}
		fn(t, fs)
	})
}

func TestStorePutOpenRoundTrip(t *testing.T) {
	withBackends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		h := hash.Leaf([]byte("entry-1"))
		data := []byte("some tree blob bytes")

		if err := s.Put(ctx, h, data); err != nil {
			t.Fatalf("Put: %v", err)
		}
		r, err := s.Open(ctx, h)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if r.Size() != int64(len(data)) {
			t.Fatalf("Size() = %d, want %d", r.Size(), len(data))
		}
		buf := make([]byte, len(data))
		if _, err := r.ReadAt(buf, 0); err != nil {
			t.Fatalf("ReadAt: %v", err)
		}
		if string(buf) != string(data) {
			t.Fatalf("round-tripped data mismatch: got %q, want %q", buf, data)
		}
	})
}

func TestStoreOpenMissingReturnsErrNotFound(t *testing.T) {
	withBackends(t, func(t *testing.T, s Store) {
		_, err := s.Open(context.Background(), handleOf(0xAB))
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Open of missing handle: got %v, want ErrNotFound", err)
		}
	})
}

func TestStoreDeleteThenOpenMisses(t *testing.T) {
	withBackends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		h := handleOf(0x01)
		if err := s.Put(ctx, h, []byte("x")); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := s.Delete(ctx, h); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Open(ctx, h); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Open after Delete: got %v, want ErrNotFound", err)
		}
	})
}

func TestStorePartialReadAt(t *testing.T) {
	withBackends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		h := handleOf(0x02)
		data := []byte("0123456789")
		if err := s.Put(ctx, h, data); err != nil {
			t.Fatalf("Put: %v", err)
		}
		r, err := s.Open(ctx, h)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		buf := make([]byte, 4)
		if _, err := r.ReadAt(buf, 3); err != nil {
			t.Fatalf("ReadAt offset 3: %v", err)
		}
		if string(buf) != "3456" {
			t.Fatalf("ReadAt offset 3 = %q, want %q", buf, "3456")
		}
	})
}
