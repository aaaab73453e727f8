package probemap

import (
	"math"
	"reflect"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	minCapacity = 8

	// MaxCapacity is the largest number of slots a table can be grown to.
	MaxCapacity = 1 << 30

	slotEmpty = 0x80

	noSlot = ^uintptr(0)
)

// table is an open addressing hash table with linear probing.
//
// Slots are kept in parallel slices. A control byte of slotEmpty marks an
// unoccupied slot, any other value is the h2 fragment of the key stored in
// it. There are no tombstones: removal shifts later members of the probe
// chain back, so every key is reachable from its ideal slot without crossing
// an empty one.
type table[K comparable, V comparable] struct {
	// capacity + groupSize - 1 bytes. The first groupSize - 1 control bytes
	// are mirrored at the end, so a group load never has to wrap around.
	ctrls  []uint8
	keys   []K
	values []V
	mask   uintptr

	size            int
	loadFactor      float64
	resizeThreshold int

	hashFunc HashFunc[K]
	logger   *zap.Logger

	// Only nilable kinds have a forbidden value. For those the zero value is nil.
	keyNilable   bool
	valueNilable bool

	emptyK K
	emptyV V
}

func (t *table[K, V]) init(o *options[K, V]) error {
	t.loadFactor = o.config.LoadFactor
	t.hashFunc = o.hashFunc
	t.logger = o.logger
	t.keyNilable = isNilable(reflect.TypeFor[K]())
	t.valueNilable = isNilable(reflect.TypeFor[V]())

	return t.alloc(capacityFor(o.config.InitialCapacity))
}

func isNilable(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

func (t *table[K, V]) alloc(capacity uintptr) error {
	if capacity > MaxCapacity {
		return errors.Wrapf(ErrCapacityExceeded, "capacity=%d size=%d", capacity, t.size)
	}

	t.ctrls = make([]uint8, capacity+groupSize-1)
	for i := range t.ctrls {
		t.ctrls[i] = slotEmpty
	}

	t.keys = make([]K, capacity)
	t.values = make([]V, capacity)
	t.mask = capacity - 1
	t.resizeThreshold = int(float64(capacity) * t.loadFactor)

	return nil
}

func (t *table[K, V]) capacity() uintptr {
	return uintptr(len(t.keys))
}

func (t *table[K, V]) nilKey(key K) bool {
	return t.keyNilable && key == t.emptyK
}

func (t *table[K, V]) nilValue(value V) bool {
	return t.valueNilable && value == t.emptyV
}

func (t *table[K, V]) occupied(i uintptr) bool {
	return t.ctrls[i] != slotEmpty
}

func (t *table[K, V]) idealIndex(key K) uintptr {
	h1, _ := HashSplit(t.hashFunc(key))
	return h1 & t.mask
}

func (t *table[K, V]) setCtrl(i uintptr, c uint8) {
	t.ctrls[i] = c
	if i < groupSize-1 {
		t.ctrls[t.capacity()+i] = c
	}
}

func (t *table[K, V]) clearSlot(i uintptr) {
	t.setCtrl(i, slotEmpty)
	t.keys[i] = t.emptyK
	t.values[i] = t.emptyV
}

// find walks the probe chain of key, a group of control bytes at a time.
// Returns the slot holding key, or the first empty slot of the chain and
// false. Returns noSlot if the table has no empty slot at all.
func (t *table[K, V]) find(key K, h1 uintptr, h2 uint8) (uintptr, bool) {
	mask := t.mask
	pos := h1 & mask

	for n := uintptr(0); n <= mask; n += groupSize {
		ctrl := loadGroup(t.ctrls, pos)

		matches := matchH2(ctrl, h2)
		for matches != 0 {
			i := (pos + matches.first()) & mask
			if t.ctrls[i] == h2 && t.keys[i] == key {
				return i, true
			}

			matches = matches.removeFirst()
		}

		// Keys are never stored past the first empty slot of their chain,
		// so matches beyond it in the same group can't be ours.
		if empty := matchEmpty(ctrl); empty != 0 {
			return (pos + empty.first()) & mask, false
		}

		pos = (pos + groupSize) & mask
	}

	return noSlot, false
}

// firstEmpty returns the first empty slot of the chain starting at h1.
func (t *table[K, V]) firstEmpty(h1 uintptr) uintptr {
	mask := t.mask
	pos := h1 & mask

	for n := uintptr(0); n <= mask; n += groupSize {
		if empty := matchEmpty(loadGroup(t.ctrls, pos)); empty != 0 {
			return (pos + empty.first()) & mask
		}

		pos = (pos + groupSize) & mask
	}

	return noSlot
}

func (t *table[K, V]) get(key K) (V, bool) {
	h1, h2 := HashSplit(t.hashFunc(key))

	i, ok := t.find(key, h1, h2)
	if !ok {
		return t.emptyV, false
	}

	return t.values[i], true
}

func (t *table[K, V]) put(key K, value V) (V, bool, error) {
	h1, h2 := HashSplit(t.hashFunc(key))

	i, ok := t.find(key, h1, h2)
	if ok {
		old := t.values[i]
		t.values[i] = value

		return old, true, nil
	}

	if i == noSlot {
		return t.emptyV, false, errors.Wrapf(ErrCapacityExceeded, "table is full at size=%d", t.size)
	}

	t.setCtrl(i, h2)
	t.keys[i] = key
	t.values[i] = value
	t.size++

	if t.size > t.resizeThreshold {
		if err := t.rehash(t.capacity() * 2); err != nil {
			return t.emptyV, false, err
		}
	}

	return t.emptyV, false, nil
}

func (t *table[K, V]) remove(key K) (V, bool) {
	h1, h2 := HashSplit(t.hashFunc(key))

	i, ok := t.find(key, h1, h2)
	if !ok {
		return t.emptyV, false
	}

	old := t.values[i]
	t.removeAt(i)

	return old, true
}

func (t *table[K, V]) removeAt(i uintptr) {
	t.clearSlot(i)
	t.size--

	t.shiftBack(i)
}

// shiftBack closes the hole left by a removal. Every later member of the
// chain that may legally sit in the hole is moved there, which opens a new
// hole at its old slot. The walk ends at the first empty slot.
func (t *table[K, V]) shiftBack(hole uintptr) {
	mask := t.mask

	for i := (hole + 1) & mask; t.occupied(i); i = (i + 1) & mask {
		if !canShift(hole, i, t.idealIndex(t.keys[i]), mask) {
			continue
		}

		t.setCtrl(hole, t.ctrls[i])
		t.keys[hole] = t.keys[i]
		t.values[hole] = t.values[i]
		t.clearSlot(i)

		hole = i
	}
}

// canShift reports whether the entry at slot, whose ideal slot is ideal, can
// be moved into hole. That is the case iff hole lies on the cyclic arc from
// ideal to slot, both ends included.
func canShift(hole, slot, ideal, mask uintptr) bool {
	return (hole-ideal)&mask <= (slot-ideal)&mask
}

// rehash moves every entry into a freshly allocated table. Keys are known to
// be distinct, so each one just takes the first empty slot of its chain.
func (t *table[K, V]) rehash(newCapacity uintptr) error {
	var (
		oldCapacity = t.capacity()
		oldCtrls    = t.ctrls
		oldKeys     = t.keys
		oldValues   = t.values
	)

	if err := t.alloc(newCapacity); err != nil {
		return err
	}

	for i := range oldKeys {
		h2 := oldCtrls[i]
		if h2 == slotEmpty {
			continue
		}

		h1, _ := HashSplit(t.hashFunc(oldKeys[i]))
		j := t.firstEmpty(h1)

		t.setCtrl(j, h2)
		t.keys[j] = oldKeys[i]
		t.values[j] = oldValues[i]
	}

	if ce := t.logger.Check(zap.DebugLevel, "table rehashed"); ce != nil {
		ce.Write(
			zap.Uint64("old_capacity", uint64(oldCapacity)),
			zap.Uint64("new_capacity", uint64(newCapacity)),
			zap.Int("size", t.size),
		)
	}

	return nil
}

// compact rehashes into the smallest table that keeps the current size within
// the load factor. Rounding may undershoot at high load factors, so the
// capacity doubles until the size fits under the resize threshold and a free
// slot is left for the next insert.
func (t *table[K, V]) compact() error {
	idealCapacity := math.Round(float64(t.size) / t.loadFactor)
	if idealCapacity > MaxCapacity {
		return errors.Wrapf(ErrCapacityExceeded, "compact to %v at size=%d", idealCapacity, t.size)
	}

	capacity := capacityFor(int(idealCapacity))
	for capacity < MaxCapacity && int(float64(capacity)*t.loadFactor) < t.size {
		capacity <<= 1
	}

	return t.rehash(capacity)
}

func (t *table[K, V]) containsValue(value V) bool {
	for i, v := range t.values {
		if t.ctrls[i] != slotEmpty && v == value {
			return true
		}
	}

	return false
}

func (t *table[K, V]) reset() {
	if t.size == 0 {
		return
	}

	for i := range t.ctrls {
		t.ctrls[i] = slotEmpty
	}

	clear(t.keys)
	clear(t.values)
	t.size = 0
}
