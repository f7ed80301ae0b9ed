// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the launcher's tunables from an optional YAML
// file. A missing file is not an error: every field has a default.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSchedulerBinary = "runai"
	DefaultForwarderBinary = "kubectl"

	defaultPollSeconds          = 5
	defaultEndpointAttempts     = 20
	defaultEndpointDelaySeconds = 10
)

// Config holds the launcher's tunables. Zero values resolve to the
// documented defaults.
type Config struct {
	// SchedulerBinary is the cluster scheduler command-line tool.
	SchedulerBinary string `yaml:"scheduler_binary"`
	// ForwarderBinary is the port-forwarding command-line tool.
	ForwarderBinary string `yaml:"forwarder_binary"`
	// PollSeconds is the delay between job status polls.
	PollSeconds int `yaml:"poll_interval_seconds"`
	// EndpointAttempts bounds the notebook endpoint discovery loop.
	EndpointAttempts uint `yaml:"endpoint_attempts"`
	// EndpointDelaySeconds is the delay between discovery attempts.
	EndpointDelaySeconds int `yaml:"endpoint_delay_seconds"`
	// SubmitArgs are appended to every submit command.
	SubmitArgs []string `yaml:"submit_args"`
	// HistoryPath locates the launch history database.
	HistoryPath string `yaml:"history_path"`
}

// PollInterval returns the poll delay as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// EndpointDelay returns the discovery retry delay as a duration.
func (c Config) EndpointDelay() time.Duration {
	return time.Duration(c.EndpointDelaySeconds) * time.Second
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return withDefaults(Config{})
}

func withDefaults(c Config) Config {
	if c.SchedulerBinary == "" {
		c.SchedulerBinary = DefaultSchedulerBinary
	}
	if c.ForwarderBinary == "" {
		c.ForwarderBinary = DefaultForwarderBinary
	}
	if c.PollSeconds == 0 {
		c.PollSeconds = defaultPollSeconds
	}
	if c.EndpointAttempts == 0 {
		c.EndpointAttempts = defaultEndpointAttempts
	}
	if c.EndpointDelaySeconds == 0 {
		c.EndpointDelaySeconds = defaultEndpointDelaySeconds
	}
	if c.HistoryPath == "" {
		c.HistoryPath = DefaultHistoryPath()
	}
	return c
}

// DefaultPath returns the default config file location, or "" when the
// home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".isession.yaml")
}

// DefaultHistoryPath returns the default history database location, or
// "" when the home directory cannot be determined.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".isession", "history.db")
}

// Load reads the config file at path, or the default location when
// path is empty. A missing file at the default location yields the
// defaults; an explicitly named file must exist. Unknown keys are
// rejected.
func Load(fs afero.Fs, path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path == "" {
		return Default(), nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Config{}, errors.Wrapf(err, "failed to read config file %s", path)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return withDefaults(cfg), nil
}
