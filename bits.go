package probemap

import (
	"encoding/binary"
	"math/bits"
)

const (
	groupSize = 8

	bitsetLSB = 0x0101010101010101
	bitsetMSB = 0x8080808080808080
)

// bitset represents a set of slots within a group of consecutive control bytes.
//
// The underlying representation uses one byte per slot, where each byte is
// either 0x80 if the slot is part of the set or 0x00 otherwise. This makes it
// convenient to calculate for an entire group at once (e.g. see matchEmpty).
type bitset uint64

// first assumes that only the MSB of each control byte can be set (e.g. bitset
// is the result of matchEmpty or similar) and returns the relative index of the
// first control byte in the group that has the MSB set.
//
// Returns groupSize if the bitset is empty.
func (b bitset) first() uintptr {
	return uintptr(bits.TrailingZeros64(uint64(b)) >> 3)
}

// removeFirst removes the first set bit (that is, resets the least significant set bit to 0).
func (b bitset) removeFirst() bitset {
	return b & ^(bitset(slotEmpty) << (bits.TrailingZeros64(uint64(b)) & ^7))
}

// loadGroup reads 8 control bytes starting at slot i. The first control byte
// ends up in the least significant byte, whatever the platform byte order is.
//
//go:inline
func loadGroup(ctrls []uint8, i uintptr) uint64 {
	return binary.LittleEndian.Uint64(ctrls[i : i+groupSize])
}

// matchH2 may report false positives for the byte following a real match,
// callers must confirm every candidate against the control byte itself.
//
//go:inline
func matchH2(group uint64, h2 uint8) bitset {
	v := group ^ (bitsetLSB * uint64(h2))
	return bitset(((v - bitsetLSB) &^ v) & bitsetMSB)
}

// matchEmpty: full slots hold a 7 bit h2, so only empty ones have the MSB set.
//
//go:inline
func matchEmpty(group uint64) bitset {
	return bitset(group & bitsetMSB)
}
