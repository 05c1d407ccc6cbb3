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

package main

import (
	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// scenario is the sequence of operations applied to a fresh table. Reinsert
// runs after Remove so that freed slots get reused.
//
//	capacity = 7
//	tombstones = false
//	load_factor = 0.8
//	insert = [1, 6, 15, 25]
//	remove = [15]
//	reinsert = [29]
//	search = [22]
type scenario struct {
	Capacity   int     `toml:"capacity"`
	LoadFactor float64 `toml:"load_factor"`
	Tombstones bool    `toml:"tombstones"`
	Insert     []int   `toml:"insert"`
	Remove     []int   `toml:"remove"`
	Reinsert   []int   `toml:"reinsert"`
	Search     []int   `toml:"search"`
}

func defaultScenario() scenario {
	return scenario{
		Capacity: 7,
		Insert:   []int{1, 6, 15, 25},
		Remove:   []int{15},
		Reinsert: []int{29},
		Search:   []int{22},
	}
}

func loadScenario(path string) (scenario, error) {
	var sc scenario
	md, err := toml.DecodeFile(path, &sc)
	if err != nil {
		return scenario{}, errors.Wrapf(err, "decoding %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return scenario{}, errors.Newf("%s: unknown keys %v", path, undecoded)
	}
	if sc.Capacity == 0 {
		sc.Capacity = defaultScenario().Capacity
	}
	return sc, nil
}
