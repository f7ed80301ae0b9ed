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

package shell

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// Process is a long-lived child whose stdout is consumed incrementally
// while it runs. It is started in its own process group so the
// launcher's terminal interrupts do not reach it; termination is
// always explicit via Terminate.
type Process struct {
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	stderr    *bytes.Buffer
	terminate sync.Once
}

// StartCommand launches a streaming child process. The caller must
// eventually call Terminate (idempotent) and Wait to reap it.
func StartCommand(name string, args ...string) (*Process, error) {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe for %s: %w", name, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	return &Process{cmd: cmd, stdout: stdout, stderr: &stderr}, nil
}

// Stdout returns the child's standard output stream.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Stderr returns the child's captured standard error. Only valid once
// Wait has returned.
func (p *Process) Stderr() string {
	return p.stderr.String()
}

// Terminate sends SIGTERM to the child's process group. Safe to call
// more than once and after the child has already exited.
func (p *Process) Terminate() {
	p.terminate.Do(func() {
		// Negative pid targets the group created by Setpgid.
		_ = unix.Kill(-p.cmd.Process.Pid, unix.SIGTERM)
	})
}

// Wait reaps the child and returns its exit error, if any.
func (p *Process) Wait() error {
	return p.cmd.Wait()
}
