// Copyright 2025 Certen Protocol

package proof

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/certen/forestlog/pkg/blobstore"
	"github.com/certen/forestlog/pkg/forest"
	"github.com/certen/forestlog/pkg/hash"
	"github.com/certen/forestlog/pkg/tree"
)

// bigEndianEntry matches spec.md scenario 4/5's "32-byte big-endian ints".
func bigEndianEntry(n uint64) tree.Entry {
	var e tree.Entry
	binary.BigEndian.PutUint64(e[24:], n)
	return e
}

func buildForest(t *testing.T, ctx context.Context, store blobstore.Store, values []uint64) *forest.Forest {
	t.Helper()
	f := forest.Empty(store)
	for _, v := range values {
		var err error
		f, err = f.Add(ctx, bigEndianEntry(v))
		if err != nil {
			t.Fatalf("Add(%d): %v", v, err)
		}
	}
	return f
}

func TestProveInclusionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMem()
	f := buildForest(t, ctx, store, []uint64{10, 20, 30, 40, 50})

	p, ok, err := ProveInclusion(ctx, f, bigEndianEntry(30))
	if err != nil {
		t.Fatalf("ProveInclusion: %v", err)
	}
	if !ok {
		t.Fatalf("ProveInclusion(30) ok = false, want true")
	}
	if !p.Verify(f.Root()) {
		t.Fatalf("inclusion proof for present entry failed to verify")
	}
}

func TestProveInclusionAbsentEntry(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMem()
	f := buildForest(t, ctx, store, []uint64{10, 20, 30})

	_, ok, err := ProveInclusion(ctx, f, bigEndianEntry(25))
	if err != nil {
		t.Fatalf("ProveInclusion: %v", err)
	}
	if ok {
		t.Fatalf("ProveInclusion(25) ok = true, want false (25 was never added)")
	}
}

func TestInclusionProofTamperDetection(t *testing.T) {
	// Scenario 6 (inclusion half): flipping a sibling bit breaks verification.
	ctx := context.Background()
	store := blobstore.NewMem()
	f := buildForest(t, ctx, store, []uint64{10, 20, 30, 40})

	p, ok, err := ProveInclusion(ctx, f, bigEndianEntry(10))
	if err != nil || !ok {
		t.Fatalf("ProveInclusion: ok=%v err=%v", ok, err)
	}
	if !p.Verify(f.Root()) {
		t.Fatalf("untampered proof should verify")
	}
	if len(p.Path) == 0 {
		t.Skip("no sibling in path to tamper with for a single-leaf tree")
	}
	p.Path[0].Sibling[0] ^= 0x01
	if p.Verify(f.Root()) {
		t.Fatalf("tampered proof verified, want false")
	}
}

func TestExclusionGap(t *testing.T) {
	// Scenario 4: exclusion gap.
	ctx := context.Background()
	store := blobstore.NewMem()
	f := buildForest(t, ctx, store, []uint64{10, 20, 30, 40, 50})

	p, present, err := ProveExclusion(ctx, f, bigEndianEntry(25))
	if err != nil {
		t.Fatalf("ProveExclusion: %v", err)
	}
	if present {
		t.Fatalf("ProveExclusion(25) present = true, want false")
	}
	if p.Predecessor == nil || p.Predecessor.Leaf != hash.Hash(bigEndianEntry(20)) {
		t.Fatalf("predecessor = %+v, want 20", p.Predecessor)
	}
	if p.Successor == nil || p.Successor.Leaf != hash.Hash(bigEndianEntry(30)) {
		t.Fatalf("successor = %+v, want 30", p.Successor)
	}
	if !p.Verify() {
		t.Fatalf("exclusion proof for gap did not verify")
	}
}

func TestExclusionAtEnds(t *testing.T) {
	// Scenario 5: exclusion at the ends of the global order.
	ctx := context.Background()
	store := blobstore.NewMem()
	f := buildForest(t, ctx, store, []uint64{10, 20, 30, 40, 50})

	below, present, err := ProveExclusion(ctx, f, bigEndianEntry(5))
	if err != nil {
		t.Fatalf("ProveExclusion(5): %v", err)
	}
	if present {
		t.Fatalf("ProveExclusion(5) present = true, want false")
	}
	if below.Predecessor != nil {
		t.Fatalf("predecessor = %+v, want nil", below.Predecessor)
	}
	if below.Successor == nil || below.Successor.Leaf != hash.Hash(bigEndianEntry(10)) {
		t.Fatalf("successor = %+v, want 10", below.Successor)
	}
	if !below.Verify() {
		t.Fatalf("exclusion proof for below-all did not verify")
	}

	above, present, err := ProveExclusion(ctx, f, bigEndianEntry(100))
	if err != nil {
		t.Fatalf("ProveExclusion(100): %v", err)
	}
	if present {
		t.Fatalf("ProveExclusion(100) present = true, want false")
	}
	if above.Successor != nil {
		t.Fatalf("successor = %+v, want nil", above.Successor)
	}
	if above.Predecessor == nil || above.Predecessor.Leaf != hash.Hash(bigEndianEntry(50)) {
		t.Fatalf("predecessor = %+v, want 50", above.Predecessor)
	}
	if !above.Verify() {
		t.Fatalf("exclusion proof for above-all did not verify")
	}
}

func TestExclusionPresentEntryReturnsNotAbsent(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMem()
	f := buildForest(t, ctx, store, []uint64{10, 20, 30})

	p, present, err := ProveExclusion(ctx, f, bigEndianEntry(20))
	if err != nil {
		t.Fatalf("ProveExclusion: %v", err)
	}
	if !present {
		t.Fatalf("present = false, want true (20 was added)")
	}
	if p != nil {
		t.Fatalf("proof = %+v, want nil when entry is present", p)
	}
}

func TestExclusionTamperDetection(t *testing.T) {
	// Scenario 6 (exclusion half): swapping predecessor/successor breaks verification.
	ctx := context.Background()
	store := blobstore.NewMem()
	f := buildForest(t, ctx, store, []uint64{10, 20, 30, 40, 50})

	p, _, err := ProveExclusion(ctx, f, bigEndianEntry(25))
	if err != nil {
		t.Fatalf("ProveExclusion: %v", err)
	}
	p.Predecessor, p.Successor = p.Successor, p.Predecessor
	if p.Verify() {
		t.Fatalf("proof with swapped predecessor/successor verified, want false")
	}
}

func TestEmptyForestExclusion(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMem()
	f := forest.Empty(store)

	p, present, err := ProveExclusion(ctx, f, bigEndianEntry(1))
	if err != nil {
		t.Fatalf("ProveExclusion: %v", err)
	}
	if present {
		t.Fatalf("present = true on empty forest, want false")
	}
	if p.Predecessor != nil || p.Successor != nil {
		t.Fatalf("expected nil bracket on empty forest, got %+v", p)
	}
	if !p.Verify() {
		t.Fatalf("exclusion proof on empty forest did not verify")
	}
}

func TestVerifyIsIdempotent(t *testing.T) {
	// I9: verify is a pure function.
	ctx := context.Background()
	store := blobstore.NewMem()
	f := buildForest(t, ctx, store, []uint64{1, 2, 3})

	p, ok, err := ProveInclusion(ctx, f, bigEndianEntry(2))
	if err != nil || !ok {
		t.Fatalf("ProveInclusion: ok=%v err=%v", ok, err)
	}
	first := p.Verify(f.Root())
	for i := 0; i < 5; i++ {
		if p.Verify(f.Root()) != first {
			t.Fatalf("Verify is not idempotent")
		}
	}
}

func TestInclusionProofJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMem()
	f := buildForest(t, ctx, store, []uint64{1, 2, 3, 4, 5})

	p, ok, err := ProveInclusion(ctx, f, bigEndianEntry(4))
	if err != nil || !ok {
		t.Fatalf("ProveInclusion: ok=%v err=%v", ok, err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded InclusionProof
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Verify(f.Root()) {
		t.Fatalf("round-tripped proof failed to verify")
	}
}

func TestExclusionProofJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMem()
	f := buildForest(t, ctx, store, []uint64{10, 20, 30, 40, 50})

	p, _, err := ProveExclusion(ctx, f, bigEndianEntry(25))
	if err != nil {
		t.Fatalf("ProveExclusion: %v", err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded ExclusionProof
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Verify() {
		t.Fatalf("round-tripped exclusion proof failed to verify")
	}
}
