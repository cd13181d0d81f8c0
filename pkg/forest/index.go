// Copyright 2025 Certen Protocol
//
// Index persists a forest's current tuple of tree roots under a single
// fixed key in a CometBFT key-value database, the same pattern pkg/ledger's
// LedgerStore uses for its system/anchor metadata records (one JSON-ish
// blob under a well-known key, loaded whole and replaced whole). It lets a
// process restart and resume a forest without re-adding every entry, as
// long as the blobstore.KVStore backing it shares the same database.
package forest

import (
	"context"
	"encoding/binary"
	"fmt"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/certen/forestlog/pkg/blobstore"
	"github.com/certen/forestlog/pkg/hash"
	"github.com/certen/forestlog/pkg/tree"
)

var indexKey = []byte("forest:trees")

// SaveIndex persists f's tree tuple (height, root per tree, largest first)
// under the fixed index key in db. It does not touch the blobs themselves
// — those are already durable via whatever Store produced them.
func SaveIndex(db dbm.DB, f *Forest) error {
	buf := make([]byte, 0, 4+len(f.trees)*(1+32))
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(f.trees)))
	buf = append(buf, countBuf[:]...)
	for _, t := range f.trees {
		h := t.Height()
		if h < 0 || h > 255 {
			return fmt.Errorf("forest: save index: height %d out of encodable range", h)
		}
		root := t.Root()
		buf = append(buf, byte(h))
		buf = append(buf, root[:]...)
	}
	if err := db.SetSync(indexKey, buf); err != nil {
		return fmt.Errorf("forest: save index: %w", err)
	}
	return nil
}

// LoadIndex reconstructs a Forest from the tuple persisted by SaveIndex,
// opening each tree from store by its recorded root handle. It returns an
// empty forest (not an error) if no index has been saved yet.
func LoadIndex(ctx context.Context, db dbm.DB, store blobstore.Store) (*Forest, error) {
	raw, err := db.Get(indexKey)
	if err != nil {
		return nil, fmt.Errorf("forest: load index: %w", err)
	}
	if raw == nil {
		return Empty(store), nil
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("forest: load index: truncated record")
	}
	count := binary.BigEndian.Uint32(raw[:4])
	rest := raw[4:]

	trees := make([]*tree.Tree, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(rest) < 1+32 {
			return nil, fmt.Errorf("forest: load index: truncated record at tree %d", i)
		}
		// height byte is informational only and is not checked; Open derives
		// height from the blob's length (rejecting lengths that fit no height
		// with ErrInvalidBlobLength), and New checks the derived heights are
		// strictly decreasing.
		_ = rest[0]
		var root hash.Hash
		copy(root[:], rest[1:33])
		rest = rest[33:]

		t, err := tree.Open(ctx, store, root)
		if err != nil {
			return nil, fmt.Errorf("forest: load index: tree %d: %w", i, err)
		}
		trees = append(trees, t)
	}

	return New(store, trees...)
}
