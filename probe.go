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

import "fmt"

// probeSeq is the quadratic probe sequence for a key in a table of the given
// capacity. The i'th offset is
//
//	p(key, i) = (hash(key) + i*i) mod capacity
//
// and the sequence ends after maxProbes(capacity) offsets. The offsets are
// generated incrementally using (i+1)^2 - i^2 = 2i+1 so the square is never
// materialized and cannot overflow.
//
// When the capacity is prime the offsets p(key, 0) ... p(key, (capacity-1)/2)
// are pairwise distinct, which is exactly maxProbes(capacity) of them. The
// remaining slots are never visited for this key. That is why an insert can
// fail with ErrProbeLimitExceeded once the load factor is above 0.5.
type probeSeq struct {
	capacity int
	offset   int
	index    int
	limit    int
}

func makeProbeSeq(key, capacity int) probeSeq {
	if capacity <= 0 {
		return probeSeq{}
	}
	return probeSeq{
		capacity: capacity,
		offset:   hash(key, capacity),
		limit:    maxProbes(capacity),
	}
}

// valid reports whether the sequence has an offset left to examine.
func (s probeSeq) valid() bool {
	return s.index < s.limit
}

func (s probeSeq) next() probeSeq {
	s.index++
	s.offset = (s.offset + 2*s.index - 1) % s.capacity
	return s
}

func (s probeSeq) String() string {
	return fmt.Sprintf("capacity=%d offset=%d index=%d limit=%d",
		s.capacity, s.offset, s.index, s.limit)
}

// hash maps key into [0, capacity). Negative keys are normalized rather than
// producing a negative index.
func hash(key, capacity int) int {
	h := key % capacity
	if h < 0 {
		h += capacity
	}
	return h
}

// maxProbes is the number of probe attempts made before giving up.
func maxProbes(capacity int) int {
	return (capacity + 1) / 2
}
