package probemap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

//go:nocheckptr
func unsafeConvertSlice[Dest any, Src any](s []Src) []Dest {
	return unsafe.Slice((*Dest)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}

func newTestMap[K comparable, V comparable](t testing.TB, opts ...Option[K, V]) *Map[K, V] {
	t.Helper()

	m, err := New(opts...)
	require.NoError(t, err)

	return m
}

// idealHash places every key at the slot given in ideal, with h2 = 0.
func idealHash(ideal map[string]uintptr) HashFunc[string] {
	return func(k string) uint64 {
		return uint64(ideal[k]) << 7
	}
}

// intHash is a cheap multiplicative hash, used where maphash would get in the
// way of allocation counting.
func intHash(k int) uint64 {
	return uint64(k) * 0x9E3779B97F4A7C15
}

// checkInvariants verifies the table layout: mirrored control bytes, size,
// and that every entry is reachable from its ideal slot without crossing an
// empty one.
func checkInvariants[K comparable, V comparable](t testing.TB, tt *table[K, V]) {
	t.Helper()

	capacity := tt.capacity()
	require.Equal(t, capacity+groupSize-1, uintptr(len(tt.ctrls)))
	require.Zero(t, capacity&(capacity-1), "capacity %d is not a power of two", capacity)
	require.GreaterOrEqual(t, capacity, uintptr(minCapacity))

	for i := uintptr(0); i < groupSize-1; i++ {
		require.Equalf(t, tt.ctrls[i], tt.ctrls[capacity+i], "mirror of ctrl %d out of sync", i)
	}

	size := 0
	for i := uintptr(0); i < capacity; i++ {
		if !tt.occupied(i) {
			continue
		}
		size++

		h1, h2 := HashSplit(tt.hashFunc(tt.keys[i]))
		require.Equalf(t, h2, tt.ctrls[i], "wrong h2 at slot %d", i)

		for j := h1 & tt.mask; j != i; j = (j + 1) & tt.mask {
			require.Truef(t, tt.occupied(j), "slot %d unreachable: empty slot %d in its chain", i, j)
		}
	}

	require.Equal(t, size, tt.size)
}
