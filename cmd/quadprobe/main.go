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

// Command quadprobe drives a quadprobe.Table through a scenario of inserts,
// removals, and searches, printing the table after every mutation.
//
// Without -config it runs the built-in demonstration: a table of capacity 7
// receives 1, 6, 15, and 25, loses 15, receives 29, and is searched for 22.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/quadprobe"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configFile = flag.String("config", "", "TOML scenario file (default: built-in demonstration)")
	capacity   = flag.Int("capacity", 0, "initial capacity, overriding the scenario")
	tombstones = flag.Bool("tombstones", false, "remove keys by leaving tombstones")
	logFile    = flag.String("log-file", "", "write JSON logs to this file, rotating it (default: stderr)")
	verbose    = flag.Bool("v", false, "log at debug level")
)

// stdout receives the table display lines and search results.
var stdout io.Writer = os.Stdout

func main() {
	flag.Parse()

	logger, err := newLogger(*logFile, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	sc := defaultScenario()
	if *configFile != "" {
		if sc, err = loadScenario(*configFile); err != nil {
			logger.Fatal("loading scenario", zap.String("file", *configFile), zap.Error(err))
		}
	}
	if *capacity != 0 {
		sc.Capacity = *capacity
	}
	if *tombstones {
		sc.Tombstones = true
	}

	if err := run(sc, logger); err != nil {
		logger.Fatal("running scenario", zap.Error(err))
	}
}

func newLogger(file string, verbose bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	if file == "" {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		return cfg.Build()
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    16, // megabytes
		MaxBackups: 3,
	})
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), w, level)
	return zap.New(core), nil
}

// run executes the scenario: construct, insert, remove, reinsert, search.
// Operation failures are logged and the scenario carries on; only a table
// that cannot be constructed is an error.
func run(sc scenario, logger *zap.Logger) error {
	options := []quadprobe.Option{quadprobe.WithLogger(logger)}
	if sc.LoadFactor != 0 {
		options = append(options, quadprobe.WithLoadFactor(sc.LoadFactor))
	}
	if sc.Tombstones {
		options = append(options, quadprobe.WithTombstones())
	}

	t, err := quadprobe.New(sc.Capacity, options...)
	if err != nil {
		return err
	}
	defer t.Close()

	show := func(op string, key int, err error) error {
		if err != nil {
			logger.Warn(op+" failed", zap.Int("key", key), zap.Error(err))
		}
		_, err = t.WriteTo(stdout)
		return err
	}

	for _, k := range sc.Insert {
		if err := show("insert", k, t.Insert(k)); err != nil {
			return err
		}
	}
	for _, k := range sc.Remove {
		if err := show("remove", k, t.Remove(k)); err != nil {
			return err
		}
	}
	for _, k := range sc.Reinsert {
		if err := show("insert", k, t.Insert(k)); err != nil {
			return err
		}
	}
	for _, k := range sc.Search {
		i, err := t.Search(k)
		if err != nil {
			logger.Info("search missed", zap.Int("key", k), zap.Error(err))
		}
		if _, err := fmt.Fprintf(stdout, "Found at:%d\n", i); err != nil {
			return err
		}
	}

	logger.Debug("scenario complete",
		zap.Int("capacity", t.Capacity()),
		zap.Int("len", t.Len()),
		zap.Float64("load_factor", t.LoadFactor()))
	return nil
}
