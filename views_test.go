package probemap

import (
	"fmt"
	"maps"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViews_Lazy(t *testing.T) {
	m := newTestMap[string, int](t)

	require.Nil(t, m.keyView)
	require.Same(t, m.Keys(), m.Keys())
	require.Same(t, m.Values(), m.Values())
	require.Same(t, m.Entries(), m.Entries())
}

func TestKeyView(t *testing.T) {
	m := newTestMap[string, int](t)
	keys := m.Keys()

	assert.True(t, keys.IsEmpty())

	require.NoError(t, m.PutMap(map[string]int{"a": 1, "b": 2, "c": 3}))

	// Views are live, not snapshots.
	assert.Equal(t, 3, keys.Len())
	assert.False(t, keys.IsEmpty())

	ok, err := keys.Contains("b")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = keys.Contains("z")
	require.NoError(t, err)
	assert.False(t, ok)

	var got []string
	for it := keys.Iterator(); it.HasNext(); {
		k, err := it.Next()
		require.NoError(t, err)
		got = append(got, k)
	}

	assert.ElementsMatch(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, got, slices.Collect(keys.All()))

	keys.Clear()
	assert.True(t, m.IsEmpty())
}

func TestKeyView_Contains_Nil(t *testing.T) {
	m := newTestMap[*int, int](t)

	_, err := m.Keys().Contains(nil)
	require.ErrorIs(t, err, ErrNullArgument)
}

func TestValueView(t *testing.T) {
	m := newTestMap[string, int](t)
	values := m.Values()

	require.NoError(t, m.PutMap(map[string]int{"a": 1, "b": 2, "c": 2}))

	assert.Equal(t, 3, values.Len())
	assert.True(t, values.Contains(2))
	assert.False(t, values.Contains(4))
	assert.ElementsMatch(t, []int{1, 2, 2}, slices.Collect(values.All()))

	// Removing through the value iterator removes the whole entry.
	for it := values.Iterator(); it.HasNext(); {
		v, err := it.Next()
		require.NoError(t, err)

		if v == 2 {
			require.NoError(t, it.Remove())
		}
	}

	assert.Equal(t, map[string]int{"a": 1}, maps.Collect(m.All()))

	values.Clear()
	assert.True(t, values.IsEmpty())
}

func TestEntryView(t *testing.T) {
	m := newTestMap[string, int](t)
	entries := m.Entries()

	require.NoError(t, m.PutMap(map[string]int{"a": 1, "b": 2}))

	assert.Equal(t, 2, entries.Len())

	ok, err := entries.Contains("a", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = entries.Contains("a", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = entries.Contains("z", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, map[string]int{"a": 1, "b": 2}, maps.Collect(entries.All()))

	entries.Clear()
	assert.True(t, entries.IsEmpty())
}

func TestEntryView_ReuseMode(t *testing.T) {
	m := newTestMap[string, int](t)
	require.NoError(t, m.PutMap(map[string]int{"a": 1, "b": 2}))

	it := m.Entries().Iterator()

	first, err := it.Next()
	require.NoError(t, err)
	require.Same(t, it, first)

	key := first.Key()
	old, err := first.SetValue(10)
	require.NoError(t, err)

	v, _, _ := m.Get(key)
	assert.Equal(t, 10, v)
	assert.Equal(t, 10, first.Value())
	assert.NotEqual(t, 10, old)

	// The next entry is the same object, now at the next position.
	second, err := it.Next()
	require.NoError(t, err)
	require.Same(t, first, second)
	assert.NotEqual(t, key, first.Key())
}

func TestEntryView_IndependentMode(t *testing.T) {
	m := newTestMap(t, WithReuseCursors[string, int](false))
	require.NoError(t, m.PutMap(map[string]int{"a": 1, "b": 2}))

	it := m.Entries().Iterator()

	first, err := it.Next()
	require.NoError(t, err)

	second, err := it.Next()
	require.NoError(t, err)

	require.NotSame(t, first, second)
	assert.NotEqual(t, first.Key(), second.Key())

	// Snapshots keep their key and value after the iterator moved on, and
	// write through the map.
	key, value := first.Key(), first.Value()

	old, err := first.SetValue(value + 100)
	require.NoError(t, err)
	assert.Equal(t, value, old)
	assert.Equal(t, value, first.Value())

	v, _, _ := m.Get(key)
	assert.Equal(t, value+100, v)
}

func TestEntryView_IndependentMode_String(t *testing.T) {
	m := newTestMap(t, WithReuseCursors[string, int](false))

	_, _, err := m.Put("a", 1)
	require.NoError(t, err)

	e, err := m.Entries().Iterator().Next()
	require.NoError(t, err)

	assert.Equal(t, "a=1", fmt.Sprint(e))
}

func TestEntryView_IndependentMode_SetValueNil(t *testing.T) {
	m := newTestMap(t, WithReuseCursors[string, *int](false))

	one := 1
	_, _, err := m.Put("a", &one)
	require.NoError(t, err)

	e, err := m.Entries().Iterator().Next()
	require.NoError(t, err)

	_, err = e.SetValue(nil)
	require.ErrorIs(t, err, ErrNullArgument)
}
