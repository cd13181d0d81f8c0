// Copyright 2025 Certen Protocol
//
// The blob layout puts leaves and internal hashes in post-order-of-writing-
// under-merge order (see package doc). The helpers below translate between
// leaf index, slot index and the structural ranges the search and merge
// algorithms walk; they are pure arithmetic, independent of any blob store.
package tree

import "math/bits"

// ctz1 returns the number of trailing 1-bits in i's binary representation,
// i.e. how many internal hashes a streaming merge emits right after leaf i.
func ctz1(i int) int {
	return bits.TrailingZeros(uint(^i))
}

// leafSlot returns the slot index holding the i-th leaf (0-indexed) of a
// tree, derived from ctz1: slot(i) = i + sum_{j<i} ctz1(j) = 2i - popcount(i).
func leafSlot(i int) int {
	return 2*i - bits.OnesCount(uint(i))
}

// rootSlot returns the slot index of the root of the subtree spanning leaf
// indices [lo, hi), where hi-lo is always a power of two.
func rootSlot(lo, hi int) int {
	last := hi - 1
	return leafSlot(last) + ctz1(last-lo)
}

// heightForSlots inverts the blob-length invariant: a blob of n slots is
// valid iff n+1 is a power of two, n+1 = 2^h, h >= 1.
func heightForSlots(slots int64) (int, bool) {
	if slots < 1 {
		return 0, false
	}
	n := slots + 1
	h := bits.Len64(uint64(n)) - 1
	if int64(1)<<uint(h) != n || h < 1 {
		return 0, false
	}
	return h, true
}
