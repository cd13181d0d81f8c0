// Copyright 2025 Certen Protocol
//
// Package forest implements the canonical forest of strictly-decreasing-
// height trees: the transparency log's top-level, append-only value type.
// Forest.Add is the only mutation entry point, and it is logical only — it
// returns a new Forest and leaves the one it was called on unchanged. The
// older forest stays readable only while its tree blobs remain in the
// store: Tree.Merge deletes the blobs of consumed trees of height > 1.
package forest

import (
	"bytes"
	"container/heap"
	"context"
	"fmt"

	"github.com/certen/forestlog/pkg/blobstore"
	"github.com/certen/forestlog/pkg/hash"
	"github.com/certen/forestlog/pkg/tree"
)

// Forest is an immutable ordered tuple of trees of strictly decreasing
// heights.
type Forest struct {
	store blobstore.Store
	trees []*tree.Tree
}

// Empty returns the forest with no trees, cardinality 0 and root
// H("EMPTY:").
func Empty(store blobstore.Store) *Forest {
	return &Forest{store: store}
}

// New builds a Forest from an already-built tuple of trees. The trees MUST
// have strictly decreasing heights (largest first); otherwise New rejects
// the input with ErrNonCanonicalForest so that a forest's identity stays a
// pure function of the add sequence that produced it.
func New(store blobstore.Store, trees ...*tree.Tree) (*Forest, error) {
	for i := 1; i < len(trees); i++ {
		if trees[i-1].Height() <= trees[i].Height() {
			return nil, ErrNonCanonicalForest
		}
	}
	cp := make([]*tree.Tree, len(trees))
	copy(cp, trees)
	return &Forest{store: store, trees: cp}, nil
}

// Add performs a carry-style insertion: it builds a singleton tree from
// entry, then repeatedly merges it with the rightmost (smallest) existing
// tree while their heights match, exactly like incrementing a binary
// counter. It returns a new Forest; f is left unchanged.
func (f *Forest) Add(ctx context.Context, entry tree.Entry) (*Forest, error) {
	acc, err := tree.Singleton(ctx, f.store, entry)
	if err != nil {
		return nil, fmt.Errorf("forest: add: %w", err)
	}

	kept := len(f.trees)
	for kept > 0 && f.trees[kept-1].Height() == acc.Height() {
		merged, err := f.trees[kept-1].Merge(ctx, f.store, acc)
		if err != nil {
			return nil, fmt.Errorf("forest: add: %w", err)
		}
		acc = merged
		kept--
	}

	next := make([]*tree.Tree, kept, kept+1)
	copy(next, f.trees[:kept])
	next = append(next, acc)
	return &Forest{store: f.store, trees: next}, nil
}

// Root returns H_forest(root(T1), ..., root(Tk)), or the empty-forest
// sentinel if the forest has no trees.
func (f *Forest) Root() hash.Hash {
	roots := make([][32]byte, len(f.trees))
	for i, t := range f.trees {
		roots[i] = t.Root()
	}
	return hash.Forest(roots...)
}

// Cardinality returns the total number of entries ever added (multiset
// count, duplicates included).
func (f *Forest) Cardinality() int {
	n := 0
	for _, t := range f.trees {
		n += t.Cardinality()
	}
	return n
}

// Trees returns the forest's trees, largest height first. The returned
// slice is a copy; mutating it does not affect f.
func (f *Forest) Trees() []*tree.Tree {
	cp := make([]*tree.Tree, len(f.trees))
	copy(cp, f.trees)
	return cp
}

// Store returns the blob store this forest's trees are read from.
func (f *Forest) Store() blobstore.Store { return f.store }

// leafRun is one tree's leaves with a read cursor, used as a heap item by
// the k-way merge below.
type leafRun struct {
	leaves []hash.Hash
	pos    int
}

// leafRunHeap is a min-heap of leafRuns ordered by each run's current
// (unread) leaf, so Pop always yields the globally smallest remaining leaf
// across every run.
type leafRunHeap []*leafRun

func (h leafRunHeap) Len() int { return len(h) }
func (h leafRunHeap) Less(i, j int) bool {
	return bytes.Compare(h[i].leaves[h[i].pos][:], h[j].leaves[h[j].pos][:]) < 0
}
func (h leafRunHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *leafRunHeap) Push(x interface{}) {
	*h = append(*h, x.(*leafRun))
}
func (h *leafRunHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// mergeSortedLeaves performs a k-way merge of every tree's leaves (each
// already sorted within its own tree) into one globally ascending sequence,
// so the result is independent of the order the trees are visited in.
func mergeSortedLeaves(ctx context.Context, trees []*tree.Tree) ([]hash.Hash, error) {
	total := 0
	h := make(leafRunHeap, 0, len(trees))
	for _, t := range trees {
		leaves, err := t.Leaves(ctx)
		if err != nil {
			return nil, fmt.Errorf("forest: union: %w", err)
		}
		if len(leaves) == 0 {
			continue
		}
		total += len(leaves)
		h = append(h, &leafRun{leaves: leaves})
	}
	heap.Init(&h)

	out := make([]hash.Hash, 0, total)
	for h.Len() > 0 {
		run := h[0]
		out = append(out, run.leaves[run.pos])
		run.pos++
		if run.pos == len(run.leaves) {
			heap.Pop(&h)
		} else {
			heap.Fix(&h, 0)
		}
	}
	return out, nil
}

// Union re-inserts every entry of the smaller forest (by cardinality) into
// the larger one, in ascending leaf order obtained by a k-way merge over
// Tree.Leaves(), so the result is deterministic regardless of which side
// Union is called on. Equal-cardinality forests break the tie by comparing
// root bytes, so the "larger" side is still chosen the same way no matter
// which forest is the receiver. Unlike Add, this is a supplemented
// convenience (see pkg/forest's package doc in SPEC_FULL) — the core spec
// only requires single-entry Add; Union exists for bulk ingestion from e.g.
// a replicated or imported log segment.
func (f *Forest) Union(ctx context.Context, other *Forest) (*Forest, error) {
	larger, smaller := f, other
	fRoot, otherRoot := f.Root(), other.Root()
	if other.Cardinality() > f.Cardinality() ||
		(other.Cardinality() == f.Cardinality() && bytes.Compare(otherRoot[:], fRoot[:]) > 0) {
		larger, smaller = other, f
	}

	leaves, err := mergeSortedLeaves(ctx, smaller.trees)
	if err != nil {
		return nil, err
	}

	result := larger
	for _, leaf := range leaves {
		next, err := result.Add(ctx, tree.Entry(leaf))
		if err != nil {
			return nil, fmt.Errorf("forest: union: %w", err)
		}
		result = next
	}
	return result, nil
}
