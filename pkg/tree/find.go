// Copyright 2025 Certen Protocol
//
// find_left (and its mirror, find_right) binary-search a tree's sorted
// leaves while accumulating the bottom-up sibling path needed to verify
// the returned leaf against the tree root. Both walk leaf-index ranges
// [lo, hi) that halve at each step; because cardinality is always a power
// of two, every such range aligns with a real subtree, and rootSlot gives
// that subtree's root slot directly from the blob layout.
package tree

import (
	"bytes"
	"context"
	"fmt"

	"github.com/certen/forestlog/pkg/hash"
)

// FindLeft returns the greatest leaf <= needle (the "floor"), clamped to
// the leftmost leaf if needle precedes every leaf in the tree. found
// reports whether the returned leaf actually satisfies leaf <= needle;
// when false, leaf/path/idx describe the clamped leftmost leaf, which
// callers building per-tree exclusion witnesses should treat as "no
// predecessor in this tree".
func (t *Tree) FindLeft(ctx context.Context, needle hash.Hash) (idx int, leaf hash.Hash, path []PathStep, found bool, err error) {
	return t.floorSearch(ctx, needle)
}

// FindRight returns the least leaf >= needle (the "ceiling"). found
// reports whether such a leaf exists in this tree.
func (t *Tree) FindRight(ctx context.Context, needle hash.Hash) (idx int, leaf hash.Hash, path []PathStep, found bool, err error) {
	fIdx, fLeaf, fPath, fFound, err := t.floorSearch(ctx, needle)
	if err != nil {
		return 0, hash.Hash{}, nil, false, err
	}
	switch {
	case !fFound:
		// needle precedes all leaves: the clamped leftmost leaf IS the
		// ceiling.
		return 0, fLeaf, fPath, true, nil
	case bytes.Equal(fLeaf[:], needle[:]):
		return fIdx, fLeaf, fPath, true, nil
	case fIdx+1 < t.cardinality:
		leaf, path, err := t.pathForIndex(ctx, fIdx+1)
		if err != nil {
			return 0, hash.Hash{}, nil, false, err
		}
		return fIdx + 1, leaf, path, true, nil
	default:
		return 0, hash.Hash{}, nil, false, nil
	}
}

func (t *Tree) floorSearch(ctx context.Context, needle hash.Hash) (idx int, leaf hash.Hash, path []PathStep, found bool, err error) {
	lo, hi := 0, t.cardinality
	var steps []PathStep

	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		midLeaf, e := t.Leaf(ctx, mid)
		if e != nil {
			return 0, hash.Hash{}, nil, false, e
		}
		if bytes.Compare(needle[:], midLeaf[:]) < 0 {
			sib, e := t.slotAt(ctx, rootSlot(mid, hi))
			if e != nil {
				return 0, hash.Hash{}, nil, false, e
			}
			steps = append(steps, PathStep{Right: false, Sibling: sib})
			hi = mid
		} else {
			sib, e := t.slotAt(ctx, rootSlot(lo, mid))
			if e != nil {
				return 0, hash.Hash{}, nil, false, e
			}
			steps = append(steps, PathStep{Right: true, Sibling: sib})
			lo = mid
		}
	}

	idx = lo
	leaf, err = t.Leaf(ctx, lo)
	if err != nil {
		return 0, hash.Hash{}, nil, false, err
	}
	found = bytes.Compare(leaf[:], needle[:]) <= 0
	path = reversePath(steps)
	return idx, leaf, path, found, nil
}

// pathForIndex builds the bottom-up path for a known leaf index, with no
// value comparisons: direction at each level is decided purely by idx
// against the level's midpoint.
func (t *Tree) pathForIndex(ctx context.Context, idx int) (hash.Hash, []PathStep, error) {
	if idx < 0 || idx >= t.cardinality {
		return hash.Hash{}, nil, fmt.Errorf("tree: index %d out of range [0,%d)", idx, t.cardinality)
	}
	lo, hi := 0, t.cardinality
	var steps []PathStep
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if idx < mid {
			sib, err := t.slotAt(ctx, rootSlot(mid, hi))
			if err != nil {
				return hash.Hash{}, nil, err
			}
			steps = append(steps, PathStep{Right: false, Sibling: sib})
			hi = mid
		} else {
			sib, err := t.slotAt(ctx, rootSlot(lo, mid))
			if err != nil {
				return hash.Hash{}, nil, err
			}
			steps = append(steps, PathStep{Right: true, Sibling: sib})
			lo = mid
		}
	}
	leaf, err := t.Leaf(ctx, lo)
	if err != nil {
		return hash.Hash{}, nil, err
	}
	return leaf, reversePath(steps), nil
}

// reversePath turns the top-down order steps are discovered in (root-near
// first) into the bottom-up order Verify expects (leaf-near first).
func reversePath(steps []PathStep) []PathStep {
	path := make([]PathStep, len(steps))
	for i, s := range steps {
		path[len(steps)-1-i] = s
	}
	return path
}
