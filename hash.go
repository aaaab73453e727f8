package probemap

import "hash/maphash"

type HashFunc[K comparable] func(K) uint64

// processSeed is shared by every map of the process, so maps holding the same
// entries agree on Hash regardless of their own hash function.
var processSeed = maphash.MakeSeed()

// MakeDefaultHashFunc returns a maphash based hash function for the given seed.
func MakeDefaultHashFunc[K comparable](seed maphash.Seed) HashFunc[K] {
	return func(k K) uint64 {
		return maphash.Comparable(seed, k)
	}
}

// HashSplit splits the hash into the probe start (h1) and the 7 bit
// fragment kept in the control byte (h2).
func HashSplit(hash uint64) (uintptr, uint8) {
	h1 := uintptr(hash >> 7)
	h2 := uint8(hash & 0x7F)

	return h1, h2
}

func entryHash[K comparable, V comparable](k K, v V) uint64 {
	return maphash.Comparable(processSeed, k) ^ maphash.Comparable(processSeed, v)
}
