// Copyright 2025 Certen Protocol
//
// KVStore backs the blob store with a CometBFT dbm.DB, the same engine
// pkg/kvdb/adapter.go wraps for pkg/ledger's metadata store. Tree blobs are
// keyed by "blob:" + hex(root hash); Put uses SetSync so a blob is durable
// before the caller is told its merge committed, matching kvdb.KVAdapter's
// choice of SetSync "for durable writes at commit time".
package blobstore

import (
	"context"
	"encoding/hex"

	dbm "github.com/cometbft/cometbft-db"
)

// KVStore is a blobstore.Store backed by a CometBFT key-value database
// (GoLevelDB by default; see pkg/config for backend selection).
type KVStore struct {
	db dbm.DB
}

// NewKVStore wraps an already-open dbm.DB as a blob store.
func NewKVStore(db dbm.DB) *KVStore {
	return &KVStore{db: db}
}

var blobKeyPrefix = []byte("blob:")

func blobKey(h Handle) []byte {
	enc := hex.EncodeToString(h[:])
	key := make([]byte, 0, len(blobKeyPrefix)+len(enc))
	key = append(key, blobKeyPrefix...)
	key = append(key, enc...)
	return key
}

func (s *KVStore) Put(_ context.Context, h Handle, data []byte) error {
	if err := s.db.SetSync(blobKey(h), data); err != nil {
		return wrapErr("put", h, err)
	}
	return nil
}

func (s *KVStore) Open(_ context.Context, h Handle) (Reader, error) {
	data, err := s.db.Get(blobKey(h))
	if err != nil {
		return nil, wrapErr("open", h, err)
	}
	if data == nil {
		return nil, wrapErr("open", h, ErrNotFound)
	}
	return &memReader{data: data}, nil
}

func (s *KVStore) Delete(_ context.Context, h Handle) error {
	// Best-effort, per Store.Delete's contract: not required for
	// correctness, so a failure here is not surfaced as fatal by callers.
	if err := s.db.Delete(blobKey(h)); err != nil {
		return wrapErr("delete", h, err)
	}
	return nil
}

// DB exposes the underlying dbm.DB so pkg/forest's optional tree-root index
// (pkg/forest/index.go) can share the same database instance and durability
// guarantees without a second dependency.
func (s *KVStore) DB() dbm.DB {
	return s.db
}
