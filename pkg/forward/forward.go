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

// Package forward drives the port-forwarding tool as a long-lived
// subprocess, scraping its bind announcement for the ephemeral local
// port and guaranteeing the child is torn down with the session.
package forward

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"interactive-toolkit/pkg/logging"
	"interactive-toolkit/pkg/shell"
)

const forwardLinePrefix = "Forwarding"

// ParseForwardLine extracts the local port from the forwarding tool's
// bind announcement, e.g. "Forwarding from 127.0.0.1:34805 -> 8888".
// Lines not beginning with the literal prefix never match. The local
// port is taken from after the last colon before the arrow, so IPv6
// binds like "[::1]:34805" parse the same way.
func ParseForwardLine(line string) (int, bool) {
	if !strings.HasPrefix(line, forwardLinePrefix) {
		return 0, false
	}
	head, _, found := strings.Cut(line, " -> ")
	if !found {
		return 0, false
	}
	idx := strings.LastIndex(head, ":")
	if idx < 0 {
		return 0, false
	}
	port, err := strconv.Atoi(head[idx+1:])
	if err != nil {
		return 0, false
	}
	return port, true
}

// Forwarder invokes the port-forwarding tool.
type Forwarder struct {
	Binary string
}

// NewForwarder returns a forwarder for the given binary.
func NewForwarder(binary string) *Forwarder {
	return &Forwarder{Binary: binary}
}

// Reachable verifies the forwarding tool is installed.
func (f *Forwarder) Reachable() error {
	if _, err := exec.LookPath(f.Binary); err != nil {
		return fmt.Errorf("forwarding tool %q not found: %w", f.Binary, err)
	}
	return nil
}

// Open starts forwarding an ephemeral local port to the given
// container port on the pod and blocks until the tool announces the
// bind. The returned tunnel must be terminated by the caller on every
// exit path; cancellation of ctx also terminates the child.
func (f *Forwarder) Open(ctx context.Context, pod string, containerPort int) (*Tunnel, error) {
	target := "pods/" + pod
	portSpec := fmt.Sprintf(":%d", containerPort)
	logging.Info("Executing: %s port-forward %s %s", f.Binary, target, portSpec)

	proc, err := shell.StartCommand(f.Binary, "port-forward", target, portSpec)
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		proc.Terminate()
	}()

	scanner := bufio.NewScanner(proc.Stdout())
	for scanner.Scan() {
		if port, ok := ParseForwardLine(scanner.Text()); ok {
			// Keep draining stdout so the child never blocks on a full
			// pipe once the session is long-lived.
			go func() {
				for scanner.Scan() {
					logging.Debug("%s: %s", f.Binary, scanner.Text())
				}
			}()
			return &Tunnel{localPort: port, proc: proc}, nil
		}
	}

	// The stream ended without a bind announcement. The child may still
	// be alive with its stdout closed, so terminate it before reaping.
	proc.Terminate()
	waitErr := proc.Wait()
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	return nil, fmt.Errorf("port-forward of pod %q exited before binding (%v): %s",
		pod, waitErr, strings.TrimSpace(proc.Stderr()))
}

// Tunnel is an established forward.
type Tunnel struct {
	localPort int

	proc *shell.Process
	stop sync.Once
}

// Port returns the ephemeral local port chosen by the tool.
func (t *Tunnel) Port() int {
	return t.localPort
}

// Terminate stops the forwarding child and reaps it. Idempotent, and
// safe to call after the child has already been terminated through
// context cancellation.
func (t *Tunnel) Terminate() {
	t.stop.Do(func() {
		t.proc.Terminate()
		_ = t.proc.Wait()
	})
}
