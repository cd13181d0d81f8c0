// Copyright 2025 Certen Protocol
//
// Package proof builds and verifies inclusion and exclusion proofs over a
// forest. An inclusion proof pairs a single-tree path (see pkg/tree) with
// the forest's other tree roots so a verifier can recompute the forest
// root; an exclusion proof brackets a target with the global predecessor
// and successor's inclusion proofs.
package proof

import (
	"context"

	"github.com/certen/forestlog/pkg/forest"
	"github.com/certen/forestlog/pkg/hash"
	"github.com/certen/forestlog/pkg/tree"
)

// InclusionProof proves a single entry is present in a forest.
type InclusionProof struct {
	Leaf           hash.Hash
	TreeIndex      int
	TreeRoot       hash.Hash
	Path           []tree.PathStep
	OtherTreeRoots []hash.Hash
}

// Verify recomputes the tree root from Leaf and Path, then recomputes the
// forest root by reinserting TreeRoot at TreeIndex among OtherTreeRoots,
// and reports whether both match. It never panics on malformed input.
func (p *InclusionProof) Verify(forestRoot hash.Hash) bool {
	if !tree.VerifyPath(p.Leaf, p.Path, p.TreeRoot) {
		return false
	}
	if p.TreeIndex < 0 || p.TreeIndex > len(p.OtherTreeRoots) {
		return false
	}
	full := make([]hash.Hash, 0, len(p.OtherTreeRoots)+1)
	full = append(full, p.OtherTreeRoots[:p.TreeIndex]...)
	full = append(full, p.TreeRoot)
	full = append(full, p.OtherTreeRoots[p.TreeIndex:]...)

	raw := make([][32]byte, len(full))
	for i, r := range full {
		raw[i] = r
	}
	return hash.Forest(raw...) == forestRoot
}

// ProveInclusion scans f's trees in ascending index order ("first-found
// match") and returns an InclusionProof for the first tree containing
// entry. ok is false if entry is not present in any tree.
func ProveInclusion(ctx context.Context, f *forest.Forest, entry tree.Entry) (proof *InclusionProof, ok bool, err error) {
	trees := f.Trees()
	needle := hash.Hash(entry)

	for j, t := range trees {
		_, leaf, path, found, err := t.FindLeft(ctx, needle)
		if err != nil {
			return nil, false, err
		}
		if !found || leaf != needle {
			continue
		}
		return &InclusionProof{
			Leaf:           leaf,
			TreeIndex:      j,
			TreeRoot:       t.Root(),
			Path:           path,
			OtherTreeRoots: otherRoots(trees, j),
		}, true, nil
	}
	return nil, false, nil
}

func otherRoots(trees []*tree.Tree, skip int) []hash.Hash {
	out := make([]hash.Hash, 0, len(trees)-1)
	for k, t := range trees {
		if k == skip {
			continue
		}
		out = append(out, t.Root())
	}
	return out
}
