package probemap

import (
	"fmt"
	"hash/maphash"
	"iter"
	"maps"
	"strings"

	"go.uber.org/zap"
)

// Map is a hash map using open addressing with linear probing.
//
// Lookups, insertions and removals don't allocate, only growing the table
// does. Removal shifts the rest of the probe chain back instead of leaving
// tombstones, so the table never degrades and never needs a cleanup pass.
// The table grows by doubling once the load factor is exceeded and only
// shrinks on an explicit Compact.
//
// Nil is not a valid key or value for pointer, interface and channel types.
//
// Map is not safe for concurrent use.
type Map[K comparable, V comparable] struct {
	table[K, V]

	opts         options[K, V]
	reuseCursors bool

	keyView   *KeyView[K, V]
	valueView *ValueView[K, V]
	entryView *EntryView[K, V]
}

// New returns a map configured by the given options, see DefaultConfig for
// the defaults. Returns ErrInvalidConfiguration if the options are invalid.
func New[K comparable, V comparable](opts ...Option[K, V]) (*Map[K, V], error) {
	o := options[K, V]{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	if o.hashFunc == nil {
		o.hashFunc = MakeDefaultHashFunc[K](maphash.MakeSeed())
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	m := &Map[K, V]{
		opts:         o,
		reuseCursors: o.config.ReuseCursors,
	}

	if err := m.init(&o); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Map[K, V]) Len() int {
	return m.size
}

func (m *Map[K, V]) IsEmpty() bool {
	return m.size == 0
}

// Capacity returns the number of slots of the current table.
func (m *Map[K, V]) Capacity() int {
	return int(m.capacity())
}

func (m *Map[K, V]) LoadFactor() float64 {
	return m.loadFactor
}

// ResizeThreshold returns the size above which the table grows.
func (m *Map[K, V]) ResizeThreshold() int {
	return m.resizeThreshold
}

func (m *Map[K, V]) Get(key K) (V, bool, error) {
	if m.nilKey(key) {
		return m.emptyV, false, ErrNullArgument
	}

	v, ok := m.get(key)

	return v, ok, nil
}

func (m *Map[K, V]) ContainsKey(key K) (bool, error) {
	_, ok, err := m.Get(key)
	return ok, err
}

// ContainsValue scans the whole table.
func (m *Map[K, V]) ContainsValue(value V) bool {
	if m.nilValue(value) {
		return false
	}

	return m.containsValue(value)
}

// Put maps key to value. Returns the previous value and whether there was one.
//
// If the insertion pushes the size over the resize threshold, the table is
// doubled before Put returns. Should that exceed MaxCapacity,
// ErrCapacityExceeded is returned with the entry already inserted.
func (m *Map[K, V]) Put(key K, value V) (V, bool, error) {
	if m.nilKey(key) || m.nilValue(value) {
		return m.emptyV, false, ErrNullArgument
	}

	return m.put(key, value)
}

// Remove deletes key. Returns the removed value and whether there was one.
func (m *Map[K, V]) Remove(key K) (V, bool, error) {
	if m.nilKey(key) {
		return m.emptyV, false, ErrNullArgument
	}

	v, ok := m.remove(key)

	return v, ok, nil
}

// PutAll puts every pair of seq, stopping at the first error.
func (m *Map[K, V]) PutAll(seq iter.Seq2[K, V]) error {
	for k, v := range seq {
		if _, _, err := m.Put(k, v); err != nil {
			return err
		}
	}

	return nil
}

func (m *Map[K, V]) PutMap(src map[K]V) error {
	return m.PutAll(maps.All(src))
}

// Clone returns a map with the same configuration and entries.
func (m *Map[K, V]) Clone() (*Map[K, V], error) {
	o := m.opts

	c, err := New(
		WithConfig[K, V](o.config),
		WithInitialCapacity[K, V](m.Capacity()),
		WithHashFunc[K, V](o.hashFunc),
		WithLogger[K, V](o.logger),
	)
	if err != nil {
		return nil, err
	}

	for i, k := range m.keys {
		if m.ctrls[i] == slotEmpty {
			continue
		}

		if _, _, err := c.put(k, m.values[i]); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Clear removes all entries, keeping the capacity.
func (m *Map[K, V]) Clear() {
	m.reset()
}

// Compact shrinks the table to the smallest power of two capacity, at least
// 8, that keeps the current size within the load factor. Entries are kept.
func (m *Map[K, V]) Compact() error {
	return m.compact()
}

// ForEach calls fn for every entry in table order. fn must not mutate the map.
func (m *Map[K, V]) ForEach(fn func(K, V)) {
	for i, k := range m.keys {
		if m.ctrls[i] != slotEmpty {
			fn(k, m.values[i])
		}
	}
}

// All returns an iterator over the entries, in the same order the views use.
// Unlike view iterators it never shares a cursor, so nested loops are fine.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		var c Cursor[K, V]
		c.reset(&m.table)

		for c.HasNext() {
			if c.Advance() != nil || !yield(c.Key(), c.Value()) {
				return
			}
		}
	}
}

// Keys returns the live key view of the map.
func (m *Map[K, V]) Keys() *KeyView[K, V] {
	if m.keyView == nil {
		m.keyView = &KeyView[K, V]{m: m}
		if m.reuseCursors {
			m.keyView.it = &KeyIterator[K, V]{}
		}
	}

	return m.keyView
}

// Values returns the live value view of the map.
func (m *Map[K, V]) Values() *ValueView[K, V] {
	if m.valueView == nil {
		m.valueView = &ValueView[K, V]{m: m}
		if m.reuseCursors {
			m.valueView.it = &ValueIterator[K, V]{}
		}
	}

	return m.valueView
}

// Entries returns the live entry view of the map.
func (m *Map[K, V]) Entries() *EntryView[K, V] {
	if m.entryView == nil {
		m.entryView = &EntryView[K, V]{m: m}
		if m.reuseCursors {
			m.entryView.it = &EntryIterator[K, V]{m: m}
		}
	}

	return m.entryView
}

// Equal reports whether both maps hold the same entries.
func (m *Map[K, V]) Equal(other *Map[K, V]) bool {
	if m == other {
		return true
	}

	if other == nil || m.size != other.size {
		return false
	}

	for i, k := range m.keys {
		if m.ctrls[i] == slotEmpty {
			continue
		}

		v, ok := other.get(k)
		if !ok || v != m.values[i] {
			return false
		}
	}

	return true
}

// Hash returns a hash of the entries that doesn't depend on insertion order
// or capacity. Maps that are Equal have the same Hash within a process.
func (m *Map[K, V]) Hash() uint64 {
	var h uint64
	m.ForEach(func(k K, v V) {
		h += entryHash(k, v)
	})

	return h
}

// String renders the map as {k1=v1, k2=v2} in iteration order.
func (m *Map[K, V]) String() string {
	if m.IsEmpty() {
		return "{}"
	}

	var sb strings.Builder
	sb.WriteByte('{')

	first := true
	for k, v := range m.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false

		fmt.Fprintf(&sb, "%v=%v", k, v)
	}

	sb.WriteByte('}')

	return sb.String()
}

func (m *Map[K, V]) Stats() Stats {
	s := Stats{
		Size:            m.size,
		Capacity:        m.Capacity(),
		ResizeThreshold: m.resizeThreshold,
		LoadFactor:      m.loadFactor,
	}

	var total int
	for i, k := range m.keys {
		if m.ctrls[i] == slotEmpty {
			continue
		}

		distance := int((uintptr(i) - m.idealIndex(k)) & m.mask)
		total += distance
		s.MaxProbeDistance = max(s.MaxProbeDistance, distance)
	}

	if m.size > 0 {
		s.AvgProbeDistance = float32(total) / float32(m.size)
	}

	return s
}
