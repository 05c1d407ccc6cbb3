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

import "github.com/cockroachdb/errors"

// Errors returned by Table operations. Operation errors wrap one of these
// with the offending key, so callers should test for them with errors.Is.
// None of them leave the table modified.
var (
	// ErrDuplicateKey is returned by Insert when the key is already present.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrProbeLimitExceeded is returned by Insert when the probe sequence is
	// exhausted without reaching an empty slot. Quadratic probing only
	// visits (capacity+1)/2 distinct slots, so this can happen while other
	// slots are still free.
	ErrProbeLimitExceeded = errors.New("probe limit exceeded")
	// ErrNotFound is returned by Search and Remove when the key is absent.
	ErrNotFound = errors.New("key not found")
	// ErrInvalidCapacity is returned by New for a non-positive capacity.
	ErrInvalidCapacity = errors.New("invalid capacity")
	// ErrInvalidLoadFactor is returned by New when WithLoadFactor was given
	// a value outside (0, 1].
	ErrInvalidLoadFactor = errors.New("invalid load factor")
)
