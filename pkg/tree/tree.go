// Copyright 2025 Certen Protocol
//
// Package tree implements the immutable, sort-ordered Merkle tree that is
// the forest's building block. A tree of height h holds 2^(h-1) leaves in
// non-decreasing order packed into one content-addressed blob of exactly
// (2^h - 1) * 32 bytes; see layout.go for the exact slot layout.
//
// Trees never mutate. Singleton and Merge each write a fresh blob and
// return a handle to it; opening that handle later via Open yields an
// equivalent Tree value. All IO goes through a blobstore.Store, never a
// filesystem or database directly.
package tree

import (
	"bytes"
	"context"
	"fmt"

	"github.com/certen/forestlog/pkg/blobstore"
	"github.com/certen/forestlog/pkg/hash"
)

// Entry is the fixed-width value a caller inserts into the log.
type Entry = [32]byte

// EntryFromBytes validates that b is exactly 32 bytes and returns it as an
// Entry, or ErrInvalidEntryLength otherwise.
func EntryFromBytes(b []byte) (Entry, error) {
	var e Entry
	if len(b) != len(e) {
		return e, ErrInvalidEntryLength
	}
	copy(e[:], b)
	return e, nil
}

// Tree is an immutable perfect binary Merkle tree over sorted leaves.
type Tree struct {
	store       blobstore.Store
	handle      hash.Hash
	height      int
	cardinality int
}

// Singleton builds a height-1 tree holding a single entry. Per the storage
// convention noted on hash.Leaf, the leaf slot holds the raw
// entry bytes unwrapped, so for h=1 the root IS the entry.
func Singleton(ctx context.Context, store blobstore.Store, entry Entry) (*Tree, error) {
	h := hash.Hash(entry)
	if err := store.Put(ctx, h, entry[:]); err != nil {
		return nil, fmt.Errorf("tree: singleton: %w: %w", ErrBlobStore, err)
	}
	return &Tree{store: store, handle: h, height: 1, cardinality: 1}, nil
}

// Open loads a tree from its root handle, validating the blob's length
// against the (2^h - 1) * 32 invariant.
func Open(ctx context.Context, store blobstore.Store, handle hash.Hash) (*Tree, error) {
	r, err := store.Open(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("tree: open: %w: %w", ErrBlobStore, err)
	}
	h, ok := heightForSlots(r.Size() / 32)
	if !ok || r.Size()%32 != 0 {
		return nil, ErrInvalidBlobLength
	}
	return &Tree{store: store, handle: handle, height: h, cardinality: 1 << uint(h-1)}, nil
}

// Height returns the tree's height h (h >= 1).
func (t *Tree) Height() int { return t.height }

// Cardinality returns the number of leaves, 2^(h-1).
func (t *Tree) Cardinality() int { return t.cardinality }

// Root returns the tree's content-addressed root handle.
func (t *Tree) Root() hash.Hash { return t.handle }

// Slot returns the raw 32 bytes at slot index k of the tree's blob.
func (t *Tree) Slot(ctx context.Context, k int) (hash.Hash, error) {
	return t.slotAt(ctx, k)
}

func (t *Tree) slotAt(ctx context.Context, slot int) (hash.Hash, error) {
	r, err := t.store.Open(ctx, t.handle)
	if err != nil {
		return hash.Hash{}, fmt.Errorf("tree: slot %d: %w: %w", slot, ErrBlobStore, err)
	}
	var out hash.Hash
	if _, err := r.ReadAt(out[:], int64(slot)*32); err != nil {
		return hash.Hash{}, fmt.Errorf("tree: slot %d: %w: %w", slot, ErrBlobStore, err)
	}
	return out, nil
}

// Leaf returns the i-th leaf (0-indexed, storage order = sorted order).
func (t *Tree) Leaf(ctx context.Context, i int) (hash.Hash, error) {
	if i < 0 || i >= t.cardinality {
		return hash.Hash{}, fmt.Errorf("tree: leaf index %d out of range [0,%d)", i, t.cardinality)
	}
	return t.slotAt(ctx, leafSlot(i))
}

// PathStep is one edge of a bottom-up inclusion path. Right reports whether
// the node being carried up the tree is the right child of the step's
// parent: if so, the parent hash is H_node(Sibling, acc); otherwise it is
// H_node(acc, Sibling).
type PathStep struct {
	Right   bool
	Sibling hash.Hash
}

// VerifyPath recomputes a tree root from a leaf and its bottom-up path and
// reports whether it equals root. It never panics on malformed input.
func VerifyPath(leaf hash.Hash, path []PathStep, root hash.Hash) bool {
	acc := leaf
	for _, step := range path {
		if step.Right {
			acc = hash.Node(step.Sibling, acc)
		} else {
			acc = hash.Node(acc, step.Sibling)
		}
	}
	return acc == root
}

// leafIter yields a tree's leaves in storage order from a single in-memory
// copy of its blob, honoring the ctz1 skip rule from the blob layout so the
// read pattern mirrors a genuine sequential scan of the underlying store.
type leafIter struct {
	blob []byte
	n    int
	pos  int
	i    int
}

func (t *Tree) newLeafIter(ctx context.Context) (*leafIter, error) {
	r, err := t.store.Open(ctx, t.handle)
	if err != nil {
		return nil, fmt.Errorf("tree: iterate: %w: %w", ErrBlobStore, err)
	}
	buf := make([]byte, r.Size())
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("tree: iterate: %w: %w", ErrBlobStore, err)
	}
	return &leafIter{blob: buf, n: t.cardinality}, nil
}

func (it *leafIter) next() (hash.Hash, bool) {
	if it.i >= it.n {
		return hash.Hash{}, false
	}
	var leaf hash.Hash
	copy(leaf[:], it.blob[it.pos:it.pos+32])
	it.pos += 32
	it.pos += ctz1(it.i) * 32
	it.i++
	return leaf, true
}

// Leaves returns the tree's leaves as a slice, in storage (sorted) order.
func (t *Tree) Leaves(ctx context.Context) ([]hash.Hash, error) {
	it, err := t.newLeafIter(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]hash.Hash, 0, t.cardinality)
	for {
		leaf, ok := it.next()
		if !ok {
			break
		}
		out = append(out, leaf)
	}
	return out, nil
}

// Merge combines two trees of equal height into a new tree of height h+1,
// streaming both inputs' leaves through an ordered merge and a hashing
// stack as described by the blob layout invariant. It performs one
// sequential read per input and one sequential write of the output; ties
// break stably towards t (the receiver is treated as the older/left input).
func (t *Tree) Merge(ctx context.Context, store blobstore.Store, other *Tree) (*Tree, error) {
	if t.height != other.height {
		return nil, ErrHeightMismatch
	}

	ia, err := t.newLeafIter(ctx)
	if err != nil {
		return nil, err
	}
	ib, err := other.newLeafIter(ctx)
	if err != nil {
		return nil, err
	}

	newHeight := t.height + 1
	blobLen := (int64(1)<<uint(newHeight) - 1) * 32
	out := make([]byte, 0, blobLen)
	stack := make([]hash.Hash, 0, newHeight)

	leafA, okA := ia.next()
	leafB, okB := ib.next()

	for i := 0; okA || okB; i++ {
		var e hash.Hash
		var fromA bool
		switch {
		case okA && okB:
			if bytes.Compare(leafA[:], leafB[:]) <= 0 {
				e, fromA = leafA, true
			} else {
				e, fromA = leafB, false
			}
		case okA:
			e, fromA = leafA, true
		default:
			e, fromA = leafB, false
		}

		out = append(out, e[:]...)
		stack = append(stack, e)

		for k := 0; k < ctz1(i); k++ {
			top := stack[len(stack)-1]
			below := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			p := hash.Node(below, top)
			out = append(out, p[:]...)
			stack = append(stack, p)
		}

		if fromA {
			leafA, okA = ia.next()
		} else {
			leafB, okB = ib.next()
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("tree: merge left stack of size %d, want 1", len(stack))
	}
	root := stack[0]

	if err := store.Put(ctx, root, out); err != nil {
		return nil, fmt.Errorf("tree: merge: %w: %w", ErrBlobStore, err)
	}

	// Space reclamation: inputs are logically consumed by the merge. Only
	// non-leaf inputs are unlinked here, mirroring the teacher's policy of
	// leaving singleton blobs (which may still be referenced elsewhere)
	// alone.
	if t.height > 1 {
		_ = store.Delete(ctx, t.handle)
	}
	if other.height > 1 {
		_ = store.Delete(ctx, other.handle)
	}

	return &Tree{
		store:       store,
		handle:      root,
		height:      newHeight,
		cardinality: t.cardinality + other.cardinality,
	}, nil
}
