package probemap

import "fmt"

// Cursor walks the occupied slots of a map, from the end of the table towards
// its start.
//
// The backward direction is what makes Remove safe: backward shifting only
// moves entries from later slots of a chain into the freed one, and a
// backward walk has already visited all of them. So no entry is skipped and
// none is produced twice.
//
// When the last slot is occupied, its chain wraps around to the start of the
// table. The walk then starts at the first empty slot after the wrap and ends
// there, so the wrapped chain is visited as a whole.
//
// A cursor is only valid as long as the map isn't mutated by anything but the
// cursor itself. Other mutations aren't detected.
type Cursor[K comparable, V comparable] struct {
	t *table[K, V]

	// position counts down from stop + capacity, slot is position & mask.
	position  uintptr
	stop      uintptr
	remaining int
	valid     bool
}

func (c *Cursor[K, V]) reset(t *table[K, V]) {
	capacity := t.capacity()

	stop := capacity
	if t.occupied(capacity - 1) {
		stop = 0
		for stop < capacity && t.occupied(stop) {
			stop++
		}
	}

	c.t = t
	c.position = stop + capacity
	c.stop = stop
	c.remaining = t.size
	c.valid = false
}

// Remaining returns the number of entries not produced yet.
func (c *Cursor[K, V]) Remaining() int {
	return c.remaining
}

func (c *Cursor[K, V]) HasNext() bool {
	return c.remaining > 0
}

// Advance moves to the next occupied slot.
// Returns ErrNoSuchElement if the cursor is exhausted, and ErrIllegalState if
// the map was changed behind the cursor's back so the walk ran out of slots.
func (c *Cursor[K, V]) Advance() error {
	if c.remaining <= 0 {
		return ErrNoSuchElement
	}

	t := c.t
	for p := c.position; p > c.stop; {
		p--

		if t.occupied(p & t.mask) {
			c.position = p
			c.remaining--
			c.valid = true

			return nil
		}
	}

	c.valid = false

	return ErrIllegalState
}

func (c *Cursor[K, V]) slot() uintptr {
	return c.position & c.t.mask
}

// Key returns the key at the current position. It's only meaningful while
// the position is valid, i.e. after a successful Advance and before Remove.
func (c *Cursor[K, V]) Key() K {
	return c.t.keys[c.slot()]
}

// Value returns the value at the current position, see Key.
func (c *Cursor[K, V]) Value() V {
	return c.t.values[c.slot()]
}

// SetValue replaces the value at the current position in place and returns
// the previous one.
func (c *Cursor[K, V]) SetValue(value V) (V, error) {
	var zero V

	if !c.valid {
		return zero, ErrIllegalState
	}

	if c.t.nilValue(value) {
		return zero, ErrNullArgument
	}

	i := c.slot()
	old := c.t.values[i]
	c.t.values[i] = value

	return old, nil
}

// Remove deletes the entry at the current position. The position stays
// invalid until the next Advance.
func (c *Cursor[K, V]) Remove() error {
	if !c.valid {
		return ErrIllegalState
	}

	c.t.removeAt(c.slot())
	c.valid = false

	return nil
}

// KeyIterator produces the keys of a map.
type KeyIterator[K comparable, V comparable] struct {
	Cursor[K, V]
}

func (it *KeyIterator[K, V]) Next() (K, error) {
	if err := it.Advance(); err != nil {
		var k K
		return k, err
	}

	return it.Key(), nil
}

// ValueIterator produces the values of a map.
type ValueIterator[K comparable, V comparable] struct {
	Cursor[K, V]
}

func (it *ValueIterator[K, V]) Next() (V, error) {
	if err := it.Advance(); err != nil {
		var v V
		return v, err
	}

	return it.Value(), nil
}

// Entry is a key/value pair produced by an EntryIterator.
type Entry[K comparable, V comparable] interface {
	Key() K
	Value() V
	SetValue(value V) (V, error)
}

// EntryIterator produces the entries of a map.
//
// If the map reuses cursors, the produced entry is the iterator itself: it
// reflects the current position and is overwritten by the next call to Next.
// Otherwise every entry is an independent snapshot that writes through to the
// map on SetValue.
type EntryIterator[K comparable, V comparable] struct {
	Cursor[K, V]

	m *Map[K, V]
}

func (it *EntryIterator[K, V]) Next() (Entry[K, V], error) {
	if err := it.Advance(); err != nil {
		return nil, err
	}

	if it.m.reuseCursors {
		return it, nil
	}

	return &snapshotEntry[K, V]{m: it.m, key: it.Key(), value: it.Value()}, nil
}

type snapshotEntry[K comparable, V comparable] struct {
	m     *Map[K, V]
	key   K
	value V
}

func (e *snapshotEntry[K, V]) Key() K {
	return e.key
}

func (e *snapshotEntry[K, V]) Value() V {
	return e.value
}

func (e *snapshotEntry[K, V]) String() string {
	return fmt.Sprintf("%v=%v", e.key, e.value)
}

// SetValue puts the value into the map under the entry's key. The snapshot
// itself keeps the value it was taken with.
func (e *snapshotEntry[K, V]) SetValue(value V) (V, error) {
	old, _, err := e.m.Put(e.key, value)
	return old, err
}
