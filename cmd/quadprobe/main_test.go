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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/quadprobe"
	"github.com/prashantv/gostub"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRun(t *testing.T) {
	Convey("Given a stubbed stdout", t, func() {
		var buf bytes.Buffer
		stubs := gostub.Stub(&stdout, &buf)
		defer stubs.Reset()

		Convey("the default scenario prints every step", func() {
			So(run(defaultScenario(), zap.NewNop()), ShouldBeNil)
			So(buf.String(), ShouldEqual, ""+
				"- 1 - - - - -\n"+
				"- 1 - - - - 6\n"+
				"- 1 15 - - - 6\n"+
				"- 1 15 - 25 - 6\n"+
				"- 1 - - 25 - 6\n"+
				"- 1 29 - 25 - 6\n"+
				"Found at:-1\n")
		})

		Convey("tombstones show up until they are reused", func() {
			sc := defaultScenario()
			sc.Tombstones = true
			So(run(sc, zap.NewNop()), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "- 1 x - 25 - 6\n- 1 29 - 25 - 6\n")
		})

		Convey("failed operations are logged and the scenario continues", func() {
			core, logs := observer.New(zapcore.InfoLevel)
			sc := scenario{
				Capacity: 7,
				Insert:   []int{3, 3},
				Remove:   []int{9},
				Search:   []int{3},
			}
			So(run(sc, zap.New(core)), ShouldBeNil)
			So(buf.String(), ShouldEqual, ""+
				"- - - 3 - - -\n"+
				"- - - 3 - - -\n"+
				"- - - 3 - - -\n"+
				"Found at:3\n")

			So(logs.FilterMessage("insert failed").Len(), ShouldEqual, 1)
			So(logs.FilterMessage("remove failed").Len(), ShouldEqual, 1)
			So(logs.FilterMessage("search missed").Len(), ShouldEqual, 0)
		})

		Convey("an invalid capacity fails the run", func() {
			err := run(scenario{Capacity: -1}, zap.NewNop())
			So(errors.Is(err, quadprobe.ErrInvalidCapacity), ShouldBeTrue)
			So(buf.Len(), ShouldEqual, 0)
		})
	})
}

func TestLoadScenario(t *testing.T) {
	Convey("Given a scenario file", t, func() {
		path := filepath.Join(t.TempDir(), "scenario.toml")
		write := func(s string) {
			So(os.WriteFile(path, []byte(s), 0644), ShouldBeNil)
		}

		Convey("all keys are decoded", func() {
			write(`
capacity = 11
load_factor = 0.5
tombstones = true
insert = [1, 2, 3]
remove = [2]
reinsert = [13]
search = [2, 3]
`)
			sc, err := loadScenario(path)
			So(err, ShouldBeNil)
			So(sc, ShouldResemble, scenario{
				Capacity:   11,
				LoadFactor: 0.5,
				Tombstones: true,
				Insert:     []int{1, 2, 3},
				Remove:     []int{2},
				Reinsert:   []int{13},
				Search:     []int{2, 3},
			})
		})

		Convey("capacity defaults to 7", func() {
			write(`insert = [4]`)
			sc, err := loadScenario(path)
			So(err, ShouldBeNil)
			So(sc.Capacity, ShouldEqual, 7)
		})

		Convey("unknown keys are rejected", func() {
			write(`capacty = 7`)
			_, err := loadScenario(path)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "capacty")
		})

		Convey("a missing file is an error", func() {
			_, err := loadScenario(filepath.Join(t.TempDir(), "missing.toml"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNewLogger(t *testing.T) {
	Convey("A file logger writes JSON to the log file", t, func() {
		path := filepath.Join(t.TempDir(), "quadprobe.log")
		logger, err := newLogger(path, true)
		So(err, ShouldBeNil)

		logger.Debug("resized hash table", zap.Int("new_capacity", 17))
		So(logger.Sync(), ShouldBeNil)

		data, err := os.ReadFile(path)
		So(err, ShouldBeNil)
		So(string(data), ShouldContainSubstring, `"new_capacity":17`)
	})

	Convey("Debug is disabled unless verbose", t, func() {
		logger, err := newLogger(filepath.Join(t.TempDir(), "quadprobe.log"), false)
		So(err, ShouldBeNil)
		So(logger.Core().Enabled(zapcore.DebugLevel), ShouldBeFalse)
		So(logger.Core().Enabled(zapcore.InfoLevel), ShouldBeTrue)
	})
}
