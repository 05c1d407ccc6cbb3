// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package quadprobe implements an open-addressing hash table of int keys
// that resolves collisions with bounded quadratic probing over a prime
// number of slots.
//
// # Probing
//
// A key hashes to h(key) = key mod capacity, normalized into [0, capacity)
// for negative keys. Attempt i examines slot (h(key) + i*i) mod capacity.
// Quadratic probing avoids the primary clustering of linear probing, but it
// does not visit every slot: with a prime capacity the first
// (capacity+1)/2 attempts hit distinct slots and later attempts only revisit
// them. Every probe walk is therefore capped at (capacity+1)/2 attempts.
// Guaranteed coverage would require a load factor of at most 0.5. The
// default load factor is 0.8, so Insert may return ErrProbeLimitExceeded
// even though free slots remain elsewhere in the table.
//
// # Growth
//
// Before placing a key, Insert checks whether the table would exceed its
// load factor with one more element. If so the table grows to
// nextPrime(2*capacity+1) and every key is rehashed from attempt 0 against
// the new capacity. The capacity is prime at all times.
//
// # Deletion
//
// By default Remove marks the vacated slot empty, indistinguishable from a
// slot that was never used. Search stops at the first empty slot, so
// removing a key can hide any key whose probe sequence passed through the
// removed slot before reaching its own. A later Insert of such a hidden key
// succeeds and stores a second copy. This is the classic tombstone-free
// behavior and is kept as the default. WithTombstones switches Remove to
// leave a tombstone that searches probe past, which closes the gap.
//
// A Table is NOT goroutine-safe. Callers that share one must serialize all
// calls, for example with a sync.Mutex per Table.
package quadprobe

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const defaultLoadFactor = 0.8

// ctrl is the tag describing the state of a slot.
type ctrl uint8

const (
	ctrlEmpty ctrl = iota
	ctrlFull
	// ctrlDeleted is only used by tables created WithTombstones.
	ctrlDeleted
)

// Slot is a single table position: either empty or holding a key.
type Slot struct {
	key  int
	ctrl ctrl
}

// Table is an open-addressing hash set of int keys. See the package
// documentation for the probing, growth, and deletion rules.
type Table struct {
	// slots is capacity in length.
	slots []Slot
	// The number of slots. Always prime.
	capacity int
	// The number of full slots.
	used int
	// The number of tombstones. Always 0 unless tombstones is set.
	deleted int
	// Occupancy ratio that an insert may not push the table past.
	loadFactor float64
	tombstones bool
	allocator  Allocator
	logger     *zap.Logger
}

// New constructs a Table with capacity nextPrime(initialCapacity). It
// returns an error wrapping ErrInvalidCapacity if initialCapacity is not
// positive, or ErrInvalidLoadFactor if a WithLoadFactor option is outside
// (0, 1].
func New(initialCapacity int, options ...Option) (*Table, error) {
	if initialCapacity <= 0 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "initial capacity %d", initialCapacity)
	}

	t := &Table{
		loadFactor: defaultLoadFactor,
		allocator:  defaultAllocator{},
		logger:     zap.NewNop(),
	}
	for _, op := range options {
		op.apply(t)
	}
	if !(t.loadFactor > 0 && t.loadFactor <= 1) {
		return nil, errors.Wrapf(ErrInvalidLoadFactor, "load factor %v", t.loadFactor)
	}

	t.capacity = nextPrime(initialCapacity)
	t.slots = t.allocSlots(t.capacity)
	t.checkInvariants()
	return t, nil
}

// Close releases the slots back to the configured allocator. It is
// unnecessary to close a table using the default allocator. It is invalid to
// use a Table after it has been closed, though Close itself is idempotent.
func (t *Table) Close() {
	if t.allocator != nil && t.slots != nil {
		t.allocator.FreeSlots(t.slots)
	}
	t.slots = nil
	t.capacity = 0
	t.used = 0
	t.deleted = 0
	t.allocator = nil
}

// Insert adds key to the table. It returns an error wrapping ErrDuplicateKey
// if the key is already reachable, or ErrProbeLimitExceeded if the probe
// sequence found no free slot. The table is unchanged when an error is
// returned, except that the table may already have grown: the load factor
// check runs before probing.
func (t *Table) Insert(key int) error {
	// A small load factor can need more than one doubling.
	for t.exceedsLoad(t.used + t.deleted + 1) {
		t.rehash()
	}

	// The first tombstone on the probe sequence is where the key goes, but
	// the walk has to continue to rule out a duplicate further along.
	tombstone := -1
	seq := makeProbeSeq(key, t.capacity)
	for ; seq.valid(); seq = seq.next() {
		s := &t.slots[seq.offset]
		switch s.ctrl {
		case ctrlEmpty:
			if tombstone >= 0 {
				t.fillTombstone(tombstone, key)
			} else {
				*s = Slot{key: key, ctrl: ctrlFull}
			}
			t.used++
			t.checkInvariants()
			return nil
		case ctrlDeleted:
			if tombstone < 0 {
				tombstone = seq.offset
			}
		case ctrlFull:
			if s.key == key {
				return errors.Wrapf(ErrDuplicateKey, "key %d at slot %d", key, seq.offset)
			}
		}
	}

	if tombstone >= 0 {
		t.fillTombstone(tombstone, key)
		t.used++
		t.checkInvariants()
		return nil
	}
	return errors.Wrapf(ErrProbeLimitExceeded, "key %d after %d probes", key, seq.index)
}

func (t *Table) fillTombstone(i, key int) {
	t.slots[i] = Slot{key: key, ctrl: ctrlFull}
	t.deleted--
}

// Search returns the index of the slot holding key. It returns -1 and an
// error wrapping ErrNotFound if the probe sequence reaches an empty slot or
// is exhausted first.
func (t *Table) Search(key int) (int, error) {
	if i, ok := t.find(key); ok {
		return i, nil
	}
	return -1, errors.Wrapf(ErrNotFound, "key %d", key)
}

// Contains reports whether Search would find key.
func (t *Table) Contains(key int) bool {
	_, ok := t.find(key)
	return ok
}

func (t *Table) find(key int) (int, bool) {
	for seq := makeProbeSeq(key, t.capacity); seq.valid(); seq = seq.next() {
		s := &t.slots[seq.offset]
		switch s.ctrl {
		case ctrlEmpty:
			return -1, false
		case ctrlFull:
			if s.key == key {
				return seq.offset, true
			}
		}
	}
	return -1, false
}

// Remove deletes key from the table, returning an error wrapping ErrNotFound
// if Search cannot find it.
func (t *Table) Remove(key int) error {
	i, ok := t.find(key)
	if !ok {
		return errors.Wrapf(ErrNotFound, "key %d", key)
	}

	t.slots[i] = Slot{}
	if t.tombstones {
		t.slots[i].ctrl = ctrlDeleted
		t.deleted++
	}
	t.used--
	t.checkInvariants()
	return nil
}

// Clear removes all keys from the table. The capacity is retained.
func (t *Table) Clear() {
	clear(t.slots)
	t.used = 0
	t.deleted = 0
	t.checkInvariants()
}

// Len returns the number of keys in the table.
func (t *Table) Len() int {
	return t.used
}

// Capacity returns the number of slots in the table.
func (t *Table) Capacity() int {
	return t.capacity
}

// LoadFactor returns the current occupancy ratio, Len()/Capacity().
func (t *Table) LoadFactor() float64 {
	if t.capacity == 0 {
		return 0
	}
	return float64(t.used) / float64(t.capacity)
}

// All calls yield sequentially for each key in the table, in slot order,
// along with the index of its slot. If yield returns false, iteration stops.
func (t *Table) All(yield func(index, key int) bool) {
	// Snapshot the slots so that iteration remains valid if the table is
	// resized during iteration.
	slots := t.slots
	for i := range slots {
		if slots[i].ctrl == ctrlFull {
			if !yield(i, slots[i].key) {
				return
			}
		}
	}
}

// Tokens calls yield with one display token per slot in slot order: "-" for
// an empty slot, "x" for a tombstone, and the decimal key for a full slot.
// If yield returns false, iteration stops. Each call starts over from slot 0.
func (t *Table) Tokens(yield func(token string) bool) {
	for i := range t.slots {
		var tok string
		switch s := t.slots[i]; s.ctrl {
		case ctrlEmpty:
			tok = "-"
		case ctrlDeleted:
			tok = "x"
		default:
			tok = strconv.Itoa(s.key)
		}
		if !yield(tok) {
			return
		}
	}
}

// WriteTo writes the display tokens to w as a single space-separated line.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	var buf strings.Builder
	t.Tokens(func(tok string) bool {
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(tok)
		return true
	})
	buf.WriteByte('\n')
	n, err := io.WriteString(w, buf.String())
	return int64(n), err
}

// Print writes the display line to standard output.
func (t *Table) Print() {
	_, _ = t.WriteTo(os.Stdout)
}

// String returns a multi-line dump of the table state, one line per slot.
func (t *Table) String() string {
	return t.debugString()
}

func (t *Table) exceedsLoad(n int) bool {
	if t.capacity == 0 {
		return true
	}
	return float64(n)/float64(t.capacity) > t.loadFactor
}

// rehash makes room for one more key. If dropping the tombstones alone
// brings the load under both the threshold and 0.5 the table is rehashed at
// its current capacity, otherwise it grows. Staying at or under 0.5 keeps
// every key placeable by uncheckedPut.
func (t *Table) rehash() {
	if t.deleted > 0 && !t.exceedsLoad(t.used+1) && 2*(t.used+1) <= t.capacity {
		t.resize(t.capacity)
		return
	}
	t.resize(nextPrime(2*t.capacity + 1))
}

// resize allocates a slot slice of newCapacity and uncheckedPuts every key
// into it (we know that no insertion here will meet an already-present key),
// discarding the tombstones and the old slice.
func (t *Table) resize(newCapacity int) {
	oldSlots, oldCapacity := t.slots, t.capacity
	t.slots = t.allocSlots(newCapacity)
	t.capacity = newCapacity
	t.deleted = 0

	for i := range oldSlots {
		if oldSlots[i].ctrl == ctrlFull {
			t.uncheckedPut(oldSlots[i].key)
		}
	}

	if oldSlots != nil {
		t.allocator.FreeSlots(oldSlots)
	}

	t.logger.Debug("resized hash table",
		zap.Int("old_capacity", oldCapacity),
		zap.Int("new_capacity", newCapacity),
		zap.Int("used", t.used))
	t.checkInvariants()
}

// uncheckedPut places a key known not to be in the table. The load of a table
// being rehashed stays below 0.5, where quadratic probing over a prime
// capacity always finds a free slot, so running out of probes means the
// table is corrupt.
func (t *Table) uncheckedPut(key int) {
	for seq := makeProbeSeq(key, t.capacity); seq.valid(); seq = seq.next() {
		if s := &t.slots[seq.offset]; s.ctrl == ctrlEmpty {
			*s = Slot{key: key, ctrl: ctrlFull}
			return
		}
	}
	panic(fmt.Sprintf("invariant failed: no free slot for %d while rehashing\n%s",
		key, t.debugString()))
}

func (t *Table) allocSlots(n int) []Slot {
	s := t.allocator.AllocSlots(n)
	clear(s)
	return s
}

func (t *Table) checkInvariants() {
	if invariants {
		if err := t.verify(); err != nil {
			panic(fmt.Sprintf("invariant failed: %v\n%s", err, t.debugString()))
		}
	}
}

// verify checks the structural invariants of the table. Key uniqueness and
// reachability of every key are only guaranteed with tombstones: without
// them, Remove can hide a key and a later Insert can store it again.
func (t *Table) verify() error {
	if !isPrime(t.capacity) {
		return errors.Newf("capacity %d is not prime", t.capacity)
	}
	if len(t.slots) != t.capacity {
		return errors.Newf("found %d slots, but capacity is %d", len(t.slots), t.capacity)
	}

	var used, deleted int
	seen := make(map[int]int, t.used)
	for i := range t.slots {
		switch s := t.slots[i]; s.ctrl {
		case ctrlEmpty:
		case ctrlDeleted:
			deleted++
		case ctrlFull:
			used++
			if !t.tombstones {
				continue
			}
			if j, ok := seen[s.key]; ok {
				return errors.Newf("key %d in slots %d and %d", s.key, j, i)
			}
			seen[s.key] = i
			if j, ok := t.find(s.key); !ok || j != i {
				return errors.Newf("slot(%d): %d not found", i, s.key)
			}
		default:
			return errors.Newf("slot(%d): unexpected ctrl %d", i, s.ctrl)
		}
	}

	if used != t.used {
		return errors.Newf("found %d used slots, but used count is %d", used, t.used)
	}
	if deleted != t.deleted {
		return errors.Newf("found %d tombstones, but deleted count is %d", deleted, t.deleted)
	}
	if deleted > 0 && !t.tombstones {
		return errors.Newf("found %d tombstones in a table without tombstones", deleted)
	}
	if t.exceedsLoad(t.used) {
		return errors.Newf("load %d/%d exceeds %v", t.used, t.capacity, t.loadFactor)
	}
	return nil
}

func (t *Table) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d  deleted=%d  load-factor=%.3f/%.3f\n",
		t.capacity, t.used, t.deleted, t.LoadFactor(), t.loadFactor)
	for i := range t.slots {
		switch s := t.slots[i]; s.ctrl {
		case ctrlEmpty:
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
		case ctrlDeleted:
			fmt.Fprintf(&buf, "  %4d: deleted\n", i)
		default:
			fmt.Fprintf(&buf, "  %4d: %d [h=%d]\n", i, s.key, hash(s.key, t.capacity))
		}
	}
	return buf.String()
}
