// Copyright 2025 Certen Protocol

package proof

import (
	"bytes"
	"context"

	"github.com/certen/forestlog/pkg/forest"
	"github.com/certen/forestlog/pkg/hash"
	"github.com/certen/forestlog/pkg/tree"
)

// LeafWitness pairs a leaf with its inclusion proof.
type LeafWitness struct {
	Leaf  hash.Hash
	Proof InclusionProof
}

// ExclusionProof proves a target entry is absent from a forest by
// bracketing it between the global predecessor and successor leaves.
// Either may be nil, meaning the target lies beyond that end of the
// forest's global order (or the forest is empty).
type ExclusionProof struct {
	Target      hash.Hash
	Predecessor *LeafWitness
	Successor   *LeafWitness
	ForestRoot  hash.Hash
}

// Verify checks that both bracketing inclusion proofs (when present) verify
// against ForestRoot and that Predecessor < Target < Successor. An empty
// bracket (both nil) is only accepted against the empty-forest sentinel
// root. It never panics on malformed input.
func (p *ExclusionProof) Verify() bool {
	if p.Predecessor == nil && p.Successor == nil {
		return p.ForestRoot == hash.Forest()
	}
	if p.Predecessor != nil {
		if !p.Predecessor.Proof.Verify(p.ForestRoot) {
			return false
		}
		if bytes.Compare(p.Predecessor.Leaf[:], p.Target[:]) >= 0 {
			return false
		}
	}
	if p.Successor != nil {
		if !p.Successor.Proof.Verify(p.ForestRoot) {
			return false
		}
		if bytes.Compare(p.Target[:], p.Successor.Leaf[:]) >= 0 {
			return false
		}
	}
	return true
}

// ProveExclusion brackets target with the forest-wide predecessor
// (maximum per-tree floor strictly less than target) and successor
// (minimum per-tree ceiling strictly greater than target). present is true
// (with proof == nil) if target is actually in the forest.
func ProveExclusion(ctx context.Context, f *forest.Forest, target tree.Entry) (p *ExclusionProof, present bool, err error) {
	trees := f.Trees()
	needle := hash.Hash(target)

	type candidate struct {
		treeIdx int
		leaf    hash.Hash
		path    []tree.PathStep
	}
	var pred, succ *candidate

	for j, t := range trees {
		_, leaf, path, found, err := t.FindLeft(ctx, needle)
		if err != nil {
			return nil, false, err
		}
		if found {
			if leaf == needle {
				return nil, true, nil
			}
			if pred == nil || bytes.Compare(leaf[:], pred.leaf[:]) > 0 {
				pred = &candidate{j, leaf, path}
			}
		}

		_, rleaf, rpath, rfound, err := t.FindRight(ctx, needle)
		if err != nil {
			return nil, false, err
		}
		if rfound && (succ == nil || bytes.Compare(rleaf[:], succ.leaf[:]) < 0) {
			succ = &candidate{j, rleaf, rpath}
		}
	}

	toWitness := func(c *candidate) *LeafWitness {
		if c == nil {
			return nil
		}
		return &LeafWitness{
			Leaf: c.leaf,
			Proof: InclusionProof{
				Leaf:           c.leaf,
				TreeIndex:      c.treeIdx,
				TreeRoot:       trees[c.treeIdx].Root(),
				Path:           c.path,
				OtherTreeRoots: otherRoots(trees, c.treeIdx),
			},
		}
	}

	return &ExclusionProof{
		Target:      needle,
		Predecessor: toWitness(pred),
		Successor:   toWitness(succ),
		ForestRoot:  f.Root(),
	}, false, nil
}
