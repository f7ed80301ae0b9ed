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

// Package shell runs the collaborator command-line tools as
// subprocesses and surfaces their results in a structured form.
package shell

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Result holds the outcome of a completed subprocess invocation.
// A command that could not be started at all (for example a missing
// executable) carries Err and exit code -1; a command that ran and
// exited nonzero carries only the exit code.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Started reports whether the command was actually launched. It is
// false when the executable could not be located or started, which
// callers must distinguish from an ordinary nonzero exit.
func (r Result) Started() bool {
	return r.Err == nil
}

// Command is a configurable subprocess invocation.
type Command struct {
	name        string
	args        []string
	input       string
	hasInput    bool
	passthrough bool
	detached    bool
}

// NewCommand prepares a command for execution.
func NewCommand(name string, args ...string) *Command {
	return &Command{name: name, args: args}
}

// SetInput feeds the given string to the command's stdin.
func (c *Command) SetInput(input string) *Command {
	c.input = input
	c.hasInput = true
	return c
}

// SetPassthrough wires the command's stdout and stderr to the
// operator's terminal instead of capturing them.
func (c *Command) SetPassthrough() *Command {
	c.passthrough = true
	return c
}

// SetDetached starts the command in its own process group so that a
// terminal interrupt delivered to the launcher's group does not reach
// it. Used for the teardown delete, which must survive a Ctrl-C
// arriving while cleanup is in flight.
func (c *Command) SetDetached() *Command {
	c.detached = true
	return c
}

// Execute runs the command to completion.
func (c *Command) Execute() Result {
	cmd := exec.Command(c.name, c.args...)

	var stdout, stderr bytes.Buffer
	if c.passthrough {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}
	if c.hasInput {
		cmd.Stdin = strings.NewReader(c.input)
	}
	if c.detached {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			res.Err = err
		}
	}
	return res
}

// ExecuteCommand runs a command with captured output and blocks until
// it exits.
func ExecuteCommand(name string, args ...string) Result {
	return NewCommand(name, args...).Execute()
}

// RandomString generates a random lowercase string of the given length.
func RandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz"
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}
