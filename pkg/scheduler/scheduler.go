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

// Package scheduler wraps the cluster scheduler's command-line tool:
// submitting interactive jobs, querying their status, fetching logs,
// and deleting them. The tool is an opaque external collaborator; it
// is only ever invoked as a subprocess.
package scheduler

import (
	"encoding/json"
	"strings"

	"interactive-toolkit/pkg/logging"
	"interactive-toolkit/pkg/shell"

	"github.com/pkg/errors"
)

// Status classifies the scheduler's reported job state.
type Status int

const (
	StatusPending Status = iota
	StatusContainerCreating
	StatusRunning
	StatusNotReady
	StatusImagePullBackOff
	StatusDoesNotExist
)

var statusNames = map[Status]string{
	StatusPending:           "Pending",
	StatusContainerCreating: "ContainerCreating",
	StatusRunning:           "Running",
	StatusNotReady:          "NotReady",
	StatusImagePullBackOff:  "ImagePullBackOff",
	StatusDoesNotExist:      "DoesNotExist",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "NotReady"
}

// StatusFromString maps a scheduler-reported state string to a Status.
// Unrecognized strings map to StatusNotReady: the scheduler's state
// vocabulary evolves, and an unknown state must mean "keep waiting"
// rather than a crash. StatusDoesNotExist is never parsed from a
// response; it is synthesized locally when the query itself fails.
func StatusFromString(s string) Status {
	switch s {
	case "Pending":
		return StatusPending
	case "ContainerCreating":
		return StatusContainerCreating
	case "Running":
		return StatusRunning
	case "ImagePullBackOff":
		return StatusImagePullBackOff
	default:
		return StatusNotReady
	}
}

// JobSpec holds the parameters for one interactive job submission.
// Built once from operator input and never mutated.
type JobSpec struct {
	Name  string
	Image string
	// Args are passed through to the submit command uninspected.
	Args []string
}

// Job is the live handle to a submitted job as last observed. A fresh
// handle is produced on every status query.
type Job struct {
	Name    string
	PodName string
	Status  Status
}

var (
	// ErrJobNotFound reports that the scheduler does not know the job,
	// or that the status query itself failed.
	ErrJobNotFound = errors.New("job does not exist")
	// ErrImagePull reports that the job's image cannot be pulled.
	ErrImagePull = errors.New("job image cannot be pulled")
)

// Client invokes the scheduler tool.
type Client struct {
	Binary string
	// SubmitArgs are extra arguments appended to every submit command,
	// before the job's own trailing arguments.
	SubmitArgs []string
}

// NewClient returns a client for the given scheduler binary.
func NewClient(binary string) *Client {
	return &Client{Binary: binary}
}

// Reachable verifies that the scheduler tool is installed and
// runnable. It must pass before any remote side effect is attempted.
func (c *Client) Reachable() error {
	res := shell.ExecuteCommand(c.Binary, "--help")
	if !res.Started() {
		return errors.Wrapf(res.Err, "scheduler tool %q not found", c.Binary)
	}
	if res.ExitCode != 0 {
		return errors.Errorf("scheduler tool %q is not usable (exit code %d): %s",
			c.Binary, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// Submit issues the interactive submit command with the tool's own
// output passed through to the terminal.
func (c *Client) Submit(spec JobSpec) error {
	args := buildSubmitArgs(spec, c.SubmitArgs)
	logging.Info("Executing: %s %s", c.Binary, strings.Join(args, " "))
	res := shell.NewCommand(c.Binary, args...).SetPassthrough().Execute()
	if !res.Started() {
		return errors.Wrapf(res.Err, "failed to run %s submit", c.Binary)
	}
	if res.ExitCode != 0 {
		return errors.Errorf("submit of job %q failed with exit code %d", spec.Name, res.ExitCode)
	}
	return nil
}

func buildSubmitArgs(spec JobSpec, extra []string) []string {
	args := []string{"submit", spec.Name, "-i", spec.Image, "--interactive"}
	args = append(args, extra...)
	args = append(args, spec.Args...)
	return args
}

// Describe queries the job's current state. A failed query (nonzero
// exit or missing tool) is reported as a handle in StatusDoesNotExist
// rather than an error: the tool's own failure modes are deliberately
// not distinguished from "job absent". Unparseable output on a zero
// exit is an error.
func (c *Client) Describe(name string) (Job, error) {
	res := shell.ExecuteCommand(c.Binary, "describe", "job", name, "--output", "json")
	if !res.Started() || res.ExitCode != 0 {
		return Job{Name: name, Status: StatusDoesNotExist}, nil
	}
	job, err := parseDescribeOutput([]byte(res.Stdout))
	if err != nil {
		return Job{}, errors.Wrapf(err, "describe of job %q returned unparseable output", name)
	}
	return job, nil
}

func parseDescribeOutput(data []byte) (Job, error) {
	var payload struct {
		Name      string `json:"name"`
		ChiefName string `json:"chiefName"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return Job{}, err
	}
	return Job{
		Name:    payload.Name,
		PodName: payload.ChiefName,
		Status:  StatusFromString(payload.Status),
	}, nil
}

// Delete removes the job. The child runs in its own process group so
// a terminal interrupt arriving mid-teardown cannot kill it.
func (c *Client) Delete(name string) error {
	res := shell.NewCommand(c.Binary, "delete", "job", name).
		SetPassthrough().
		SetDetached().
		Execute()
	if !res.Started() {
		return errors.Wrapf(res.Err, "failed to run %s delete", c.Binary)
	}
	if res.ExitCode != 0 {
		return errors.Errorf("delete of job %q failed with exit code %d", name, res.ExitCode)
	}
	return nil
}

// Logs fetches the job's accumulated log text.
func (c *Client) Logs(name string) (string, error) {
	res := shell.ExecuteCommand(c.Binary, "logs", name)
	if !res.Started() {
		return "", errors.Wrapf(res.Err, "failed to run %s logs", c.Binary)
	}
	if res.ExitCode != 0 {
		return "", errors.Errorf("logs of job %q failed with exit code %d: %s",
			name, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, nil
}

// ConnectInstruction renders the command an operator runs to attach a
// shell to the job.
func (c *Client) ConnectInstruction(name string) string {
	return c.Binary + " bash " + name
}
