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

package quadprobe

import "go.uber.org/zap"

// Option configures a Table while it is being created.
type Option interface {
	apply(t *Table)
}

type loadFactorOption struct {
	loadFactor float64
}

func (op loadFactorOption) apply(t *Table) {
	t.loadFactor = op.loadFactor
}

// WithLoadFactor sets the occupancy ratio above which an insert grows the
// table first. It must be in (0, 1]. The default is 0.8.
func WithLoadFactor(loadFactor float64) Option {
	return loadFactorOption{loadFactor}
}

type tombstoneOption struct{}

func (tombstoneOption) apply(t *Table) {
	t.tombstones = true
}

// WithTombstones makes Remove leave a tombstone in the vacated slot instead
// of marking it empty. Searches probe past tombstones, so removing a key
// never hides another key whose probe sequence passes through the removed
// slot. Inserts reuse tombstones, and tombstones are purged whenever the
// table is rehashed.
//
// Without this option a Table reproduces the classic tombstone-free
// behavior: removing a key can make keys further along the same probe
// sequence unreachable.
func WithTombstones() Option {
	return tombstoneOption{}
}

type loggerOption struct {
	logger *zap.Logger
}

func (op loggerOption) apply(t *Table) {
	if op.logger != nil {
		t.logger = op.logger
	}
}

// WithLogger sets the logger used to report resizes at debug level. By
// default nothing is logged.
func WithLogger(logger *zap.Logger) Option {
	return loggerOption{logger}
}

// Allocator specifies an interface for allocating and releasing the slot
// slices used by a Table. The default allocator utilizes Go's builtin make()
// and allows the GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that slots be
// freed then Table.Close must be called in order to ensure FreeSlots is
// called for the final slice.
type Allocator interface {
	// AllocSlots should return a slice equivalent to make([]Slot, n). The
	// Table clears the slice before use, so recycled memory is fine.
	AllocSlots(n int) []Slot

	// FreeSlots can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocSlots.
	FreeSlots(v []Slot)
}

type defaultAllocator struct{}

func (defaultAllocator) AllocSlots(n int) []Slot {
	return make([]Slot, n)
}

func (defaultAllocator) FreeSlots(v []Slot) {
}

type allocatorOption struct {
	allocator Allocator
}

func (op allocatorOption) apply(t *Table) {
	t.allocator = op.allocator
}

// WithAllocator is an option to specify the Allocator to use for a Table.
func WithAllocator(allocator Allocator) Option {
	return allocatorOption{allocator}
}
