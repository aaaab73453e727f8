package probemap

import "iter"

// KeyView is a live, set-like view of the keys of a map.
type KeyView[K comparable, V comparable] struct {
	m  *Map[K, V]
	it *KeyIterator[K, V]
}

func (v *KeyView[K, V]) Len() int { return v.m.Len() }
func (v *KeyView[K, V]) IsEmpty() bool { return v.m.IsEmpty() }
func (v *KeyView[K, V]) Clear() { v.m.Clear() }

func (v *KeyView[K, V]) Contains(key K) (bool, error) {
	return v.m.ContainsKey(key)
}

// Iterator returns a key iterator positioned before the first key. With
// cursor reuse the same iterator is reset and returned on every call.
func (v *KeyView[K, V]) Iterator() *KeyIterator[K, V] {
	it := v.it
	if it == nil {
		it = &KeyIterator[K, V]{}
	}

	it.reset(&v.m.table)

	return it
}

func (v *KeyView[K, V]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		var c Cursor[K, V]
		c.reset(&v.m.table)

		for c.HasNext() {
			if c.Advance() != nil || !yield(c.Key()) {
				return
			}
		}
	}
}

// ValueView is a live view of the values of a map.
type ValueView[K comparable, V comparable] struct {
	m  *Map[K, V]
	it *ValueIterator[K, V]
}

func (v *ValueView[K, V]) Len() int { return v.m.Len() }
func (v *ValueView[K, V]) IsEmpty() bool { return v.m.IsEmpty() }
func (v *ValueView[K, V]) Clear() { v.m.Clear() }

// Contains scans the whole table.
func (v *ValueView[K, V]) Contains(value V) bool {
	return v.m.ContainsValue(value)
}

func (v *ValueView[K, V]) Iterator() *ValueIterator[K, V] {
	it := v.it
	if it == nil {
		it = &ValueIterator[K, V]{}
	}

	it.reset(&v.m.table)

	return it
}

func (v *ValueView[K, V]) All() iter.Seq[V] {
	return func(yield func(V) bool) {
		var c Cursor[K, V]
		c.reset(&v.m.table)

		for c.HasNext() {
			if c.Advance() != nil || !yield(c.Value()) {
				return
			}
		}
	}
}

// EntryView is a live view of the key/value pairs of a map.
type EntryView[K comparable, V comparable] struct {
	m  *Map[K, V]
	it *EntryIterator[K, V]
}

func (v *EntryView[K, V]) Len() int { return v.m.Len() }
func (v *EntryView[K, V]) IsEmpty() bool { return v.m.IsEmpty() }
func (v *EntryView[K, V]) Clear() { v.m.Clear() }

// Contains reports whether key is mapped to value.
func (v *EntryView[K, V]) Contains(key K, value V) (bool, error) {
	got, ok, err := v.m.Get(key)
	if err != nil || !ok {
		return false, err
	}

	return got == value, nil
}

func (v *EntryView[K, V]) Iterator() *EntryIterator[K, V] {
	it := v.it
	if it == nil {
		it = &EntryIterator[K, V]{m: v.m}
	}

	it.reset(&v.m.table)

	return it
}

func (v *EntryView[K, V]) All() iter.Seq2[K, V] {
	return v.m.All()
}
