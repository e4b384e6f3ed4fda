/*
 * Copyright 2022 The Gremlins Authors
 *
 *    Licensed under the Apache License, Version 2.0 (the "License");
 *    you may not use this file except in compliance with the License.
 *    You may obtain a copy of the License at
 *
 *        http://www.apache.org/licenses/LICENSE-2.0
 *
 *    Unless required by applicable law or agreed to in writing, software
 *    distributed under the License is distributed on an "AS IS" BASIS,
 *    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *    See the License for the specific language governing permissions and
 *    limitations under the License.
 */

// Package config resolves mewt.toml plus CLI flag overrides into a
// Config. It discovers its file by walking up from the working directory
// rather than searching a fixed list of system locations.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/trailofbits/mewt/internal/execution"
)

const fileBaseName = "mewt"

// PerTarget is one `[[test.per_target]]` table entry.
type PerTarget struct {
	Glob    string   `mapstructure:"glob"`
	Cmd     []string `mapstructure:"cmd"`
	Timeout int      `mapstructure:"timeout"`
}

// Config is the fully-merged configuration: file values with CLI flag
// overrides already applied by viper's precedence rules.
type Config struct {
	DB      string `mapstructure:"db"`
	Log     struct {
		Level string `mapstructure:"level"`
		Color bool   `mapstructure:"color"`
	} `mapstructure:"log"`
	Targets struct {
		Include []string `mapstructure:"include"`
		Ignore  []string `mapstructure:"ignore"`
	} `mapstructure:"targets"`
	Run struct {
		Mutations     []string `mapstructure:"mutations"`
		Comprehensive bool     `mapstructure:"comprehensive"`
	} `mapstructure:"run"`
	Test struct {
		Cmd       []string    `mapstructure:"cmd"`
		Timeout   int         `mapstructure:"timeout"`
		PerTarget []PerTarget `mapstructure:"per_target"`
	} `mapstructure:"test"`
}

// Init wires viper up to find mewt.toml by walking up from cwd, and to
// read MEWT_-prefixed environment variables, which take precedence over
// the file but not over explicit CLI flags bound later via cmd/internal/
// flags.Set. It does not itself read a Config; call Load after cobra has
// bound its flags, so flag values are visible to viper's precedence
// chain.
func Init(cwd string) {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.SetEnvPrefix("MEWT")
	viper.AutomaticEnv()
	viper.SetConfigName(fileBaseName)
	viper.SetConfigType("toml")

	for _, dir := range ancestry(cwd) {
		viper.AddConfigPath(dir)
	}

	viper.SetDefault("db", "mewt.sqlite")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.color", true)
}

// Load reads the config file discovered by Init and unmarshals the merged
// result. A missing file is not an error: every setting has a usable
// default or is optional.
func Load() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, execution.NewExitErr(execution.Usage, "reading config file: %v", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, execution.NewExitErr(execution.Usage, "parsing config: %v", err)
	}

	return &cfg, nil
}

// ancestry lists start and every ancestor directory up to the filesystem
// root, in that order — the walk-up search path for mewt.toml.
func ancestry(start string) []string {
	abs, err := filepath.Abs(start)
	if err != nil {
		abs = start
	}
	var dirs []string
	for {
		dirs = append(dirs, abs)
		parent := filepath.Dir(abs)
		if parent == abs {
			break
		}
		abs = parent
	}

	return dirs
}

// Reset clears viper's global state; used by tests.
func Reset() {
	viper.Reset()
}

// WorkingDir is a small testability seam over os.Getwd.
var WorkingDir = os.Getwd
