// Copyright 2025 Certen Protocol
//
// Wire encodes proofs as JSON with hex-encoded hash fields, the same
// convention pkg/merkle's Receipt type uses (ToHex/mustHex32Lower) rather
// than the compact varint sketch spec.md marks as "suggested, not
// normative" — JSON is what every other handler and test fixture in this
// codebase already speaks.
package proof

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/certen/forestlog/pkg/hash"
	"github.com/certen/forestlog/pkg/tree"
)

type pathStepWire struct {
	Right   bool   `json:"right"`
	Sibling string `json:"sibling"`
}

type inclusionProofWire struct {
	Leaf           string         `json:"leaf"`
	TreeIndex      int            `json:"tree_index"`
	TreeRoot       string         `json:"tree_root"`
	Path           []pathStepWire `json:"path"`
	OtherTreeRoots []string       `json:"other_tree_roots"`
}

func hexOf(h hash.Hash) string { return hex.EncodeToString(h[:]) }

func hashFromHex(s string) (hash.Hash, error) {
	var out hash.Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("proof: invalid hex %q: %w", s, err)
	}
	if len(b) != hash.Size {
		return out, fmt.Errorf("proof: hex field %q decodes to %d bytes, want %d", s, len(b), hash.Size)
	}
	copy(out[:], b)
	return out, nil
}

func (p *InclusionProof) toWire() inclusionProofWire {
	path := make([]pathStepWire, len(p.Path))
	for i, s := range p.Path {
		path[i] = pathStepWire{Right: s.Right, Sibling: hexOf(s.Sibling)}
	}
	others := make([]string, len(p.OtherTreeRoots))
	for i, r := range p.OtherTreeRoots {
		others[i] = hexOf(r)
	}
	return inclusionProofWire{
		Leaf:           hexOf(p.Leaf),
		TreeIndex:      p.TreeIndex,
		TreeRoot:       hexOf(p.TreeRoot),
		Path:           path,
		OtherTreeRoots: others,
	}
}

func (w inclusionProofWire) toProof() (*InclusionProof, error) {
	leaf, err := hashFromHex(w.Leaf)
	if err != nil {
		return nil, err
	}
	root, err := hashFromHex(w.TreeRoot)
	if err != nil {
		return nil, err
	}
	path := make([]tree.PathStep, len(w.Path))
	for i, s := range w.Path {
		sib, err := hashFromHex(s.Sibling)
		if err != nil {
			return nil, err
		}
		path[i] = tree.PathStep{Right: s.Right, Sibling: sib}
	}
	others := make([]hash.Hash, len(w.OtherTreeRoots))
	for i, r := range w.OtherTreeRoots {
		h, err := hashFromHex(r)
		if err != nil {
			return nil, err
		}
		others[i] = h
	}
	return &InclusionProof{
		Leaf:           leaf,
		TreeIndex:      w.TreeIndex,
		TreeRoot:       root,
		Path:           path,
		OtherTreeRoots: others,
	}, nil
}

// MarshalJSON encodes the proof with hex-encoded hash fields.
func (p *InclusionProof) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toWire())
}

// UnmarshalJSON decodes a proof previously produced by MarshalJSON.
func (p *InclusionProof) UnmarshalJSON(data []byte) error {
	var w inclusionProofWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("proof: unmarshal inclusion proof: %w", err)
	}
	decoded, err := w.toProof()
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

type leafWitnessWire struct {
	Leaf  string             `json:"leaf"`
	Proof inclusionProofWire `json:"proof"`
}

type exclusionProofWire struct {
	Target      string           `json:"target"`
	Predecessor *leafWitnessWire `json:"predecessor,omitempty"`
	Successor   *leafWitnessWire `json:"successor,omitempty"`
	ForestRoot  string           `json:"forest_root"`
}

func witnessToWire(w *LeafWitness) *leafWitnessWire {
	if w == nil {
		return nil
	}
	return &leafWitnessWire{Leaf: hexOf(w.Leaf), Proof: w.Proof.toWire()}
}

func witnessFromWire(w *leafWitnessWire) (*LeafWitness, error) {
	if w == nil {
		return nil, nil
	}
	leaf, err := hashFromHex(w.Leaf)
	if err != nil {
		return nil, err
	}
	p, err := w.Proof.toProof()
	if err != nil {
		return nil, err
	}
	return &LeafWitness{Leaf: leaf, Proof: *p}, nil
}

// MarshalJSON encodes the proof with hex-encoded hash fields.
func (p *ExclusionProof) MarshalJSON() ([]byte, error) {
	w := exclusionProofWire{
		Target:      hexOf(p.Target),
		Predecessor: witnessToWire(p.Predecessor),
		Successor:   witnessToWire(p.Successor),
		ForestRoot:  hexOf(p.ForestRoot),
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a proof previously produced by MarshalJSON.
func (p *ExclusionProof) UnmarshalJSON(data []byte) error {
	var w exclusionProofWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("proof: unmarshal exclusion proof: %w", err)
	}
	target, err := hashFromHex(w.Target)
	if err != nil {
		return err
	}
	forestRoot, err := hashFromHex(w.ForestRoot)
	if err != nil {
		return err
	}
	pred, err := witnessFromWire(w.Predecessor)
	if err != nil {
		return err
	}
	succ, err := witnessFromWire(w.Successor)
	if err != nil {
		return err
	}
	p.Target = target
	p.Predecessor = pred
	p.Successor = succ
	p.ForestRoot = forestRoot
	return nil
}
