package probemap

import (
	"math/bits"
	"unsafe"
)

// Returns the next power of 2 for the given value `v`.
func NextPowerOf2(v uint32) uint32 {
	return uint32(1) << min(bits.Len32(v-1), 31)
}

// Estimates capacity (number of slots) from the given memory size in bytes.
// The result is rounded down to a power of two, since that's what a table
// would be allocated with.
func CapacityFromSize[K comparable, V comparable](size uintptr) int {
	var (
		k K
		v V
	)

	// One control byte per slot, plus the mirrored group tail.
	sizeOfSlot := unsafe.Sizeof(k) + unsafe.Sizeof(v) + 1
	if size < groupSize-1 {
		return 0
	}

	numSlots := (size - (groupSize - 1)) / sizeOfSlot
	if numSlots < minCapacity {
		return 0
	}

	return 1 << (bits.Len64(uint64(numSlots)) - 1)
}

func capacityFor(initialCapacity int) uintptr {
	return uintptr(NextPowerOf2(uint32(max(minCapacity, initialCapacity))))
}
