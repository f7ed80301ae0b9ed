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

package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	. "gopkg.in/check.v1"
)

func Test(t *testing.T) {
	TestingT(t)
}

type ConfigSuite struct{}

var _ = Suite(&ConfigSuite{})

func (s *ConfigSuite) TestDefaults(c *C) {
	cfg := Default()
	c.Check(cfg.SchedulerBinary, Equals, "runai")
	c.Check(cfg.ForwarderBinary, Equals, "kubectl")
	c.Check(cfg.PollInterval(), Equals, 5*time.Second)
	c.Check(cfg.EndpointAttempts, Equals, uint(20))
	c.Check(cfg.EndpointDelay(), Equals, 10*time.Second)
	c.Check(cfg.SubmitArgs, HasLen, 0)
	c.Check(cfg.HistoryPath, Not(Equals), "")
}

func (s *ConfigSuite) TestLoadMissingExplicitFile(c *C) {
	fs := afero.NewMemMapFs()
	_, err := Load(fs, "/etc/isession/absent.yaml")
	c.Assert(err, NotNil)
	c.Check(err, ErrorMatches, "failed to read config file .*")
}

func (s *ConfigSuite) TestLoadOverrides(c *C) {
	fs := afero.NewMemMapFs()
	content := `
scheduler_binary: /opt/bin/runai
forwarder_binary: /opt/bin/kubectl
poll_interval_seconds: 2
endpoint_attempts: 3
endpoint_delay_seconds: 1
submit_args: ["--project", "research"]
history_path: /var/lib/isession/history.db
`
	c.Assert(afero.WriteFile(fs, "/home/u/.isession.yaml", []byte(content), 0644), IsNil)

	cfg, err := Load(fs, "/home/u/.isession.yaml")
	c.Assert(err, IsNil)
	c.Check(cfg.SchedulerBinary, Equals, "/opt/bin/runai")
	c.Check(cfg.ForwarderBinary, Equals, "/opt/bin/kubectl")
	c.Check(cfg.PollInterval(), Equals, 2*time.Second)
	c.Check(cfg.EndpointAttempts, Equals, uint(3))
	c.Check(cfg.EndpointDelay(), Equals, time.Second)
	c.Check(cfg.SubmitArgs, DeepEquals, []string{"--project", "research"})
	c.Check(cfg.HistoryPath, Equals, "/var/lib/isession/history.db")
}

func (s *ConfigSuite) TestLoadPartialFileKeepsDefaults(c *C) {
	fs := afero.NewMemMapFs()
	content := "poll_interval_seconds: 1\n"
	c.Assert(afero.WriteFile(fs, "/home/u/partial.yaml", []byte(content), 0644), IsNil)

	cfg, err := Load(fs, "/home/u/partial.yaml")
	c.Assert(err, IsNil)
	c.Check(cfg.PollInterval(), Equals, time.Second)
	c.Check(cfg.SchedulerBinary, Equals, "runai")
	c.Check(cfg.EndpointAttempts, Equals, uint(20))
}

func (s *ConfigSuite) TestLoadEmptyFileKeepsDefaults(c *C) {
	fs := afero.NewMemMapFs()
	c.Assert(afero.WriteFile(fs, "/home/u/empty.yaml", nil, 0644), IsNil)

	cfg, err := Load(fs, "/home/u/empty.yaml")
	c.Assert(err, IsNil)
	c.Check(cfg, DeepEquals, Default())
}

func (s *ConfigSuite) TestLoadRejectsUnknownKeys(c *C) {
	fs := afero.NewMemMapFs()
	content := "scheduler_binry: runai\n"
	c.Assert(afero.WriteFile(fs, "/home/u/typo.yaml", []byte(content), 0644), IsNil)

	_, err := Load(fs, "/home/u/typo.yaml")
	c.Assert(err, NotNil)
}

func (s *ConfigSuite) TestLoadRejectsMalformedYAML(c *C) {
	fs := afero.NewMemMapFs()
	content := "scheduler_binary: [unterminated\n"
	c.Assert(afero.WriteFile(fs, "/home/u/bad.yaml", []byte(content), 0644), IsNil)

	_, err := Load(fs, "/home/u/bad.yaml")
	c.Assert(err, NotNil)
}
