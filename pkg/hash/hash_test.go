// Copyright 2025 Certen Protocol

package hash

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestForestEmptyIsSentinel(t *testing.T) {
	got := Forest()
	want := sha256.Sum256(tagEmpty)
	if !bytes.Equal(got[:], want[:]) {
		t.Fatalf("empty forest root mismatch: got %x, want %x", got, want)
	}
}

func TestForestDistinctFromEmpty(t *testing.T) {
	var r [Size]byte
	r[0] = 1
	got := Forest(r)
	empty := Forest()
	if bytes.Equal(got[:], empty[:]) {
		t.Fatalf("non-empty forest root collided with empty sentinel")
	}
}

func TestNodeDomainSeparatedFromLeaf(t *testing.T) {
	var a, b [Size]byte
	a[0], b[0] = 1, 2
	n := Node(a, b)
	l := Leaf(append(a[:], b[:]...))
	if n == l {
		t.Fatalf("Node and Leaf collided for the same input bytes")
	}
}

func TestNodeOrderSensitive(t *testing.T) {
	var a, b [Size]byte
	a[0], b[0] = 1, 2
	if Node(a, b) == Node(b, a) {
		t.Fatalf("Node(a,b) should differ from Node(b,a)")
	}
}
