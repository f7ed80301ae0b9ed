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

package session

import (
	"context"
	"fmt"
	"strings"

	"interactive-toolkit/pkg/notebook"
	"interactive-toolkit/pkg/scheduler"

	"github.com/agext/levenshtein"
	"github.com/pkg/errors"
)

// Mode selects how a running job is exposed to the operator.
type Mode int

const (
	// ModeShell prints the command that attaches a shell to the job.
	ModeShell Mode = iota
	// ModePort forwards a local port to a fixed container port.
	ModePort
	// ModeJupyter discovers the notebook server in the job's logs and
	// forwards a local port to it.
	ModeJupyter
)

var modeNames = []string{"shell", "port", "jupyter"}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps an operator-facing mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if s == name {
			return Mode(m), nil
		}
	}
	if hint, ok := closestMode(s); ok {
		return 0, errors.Errorf("unknown mode %q, did you mean %q?", s, hint)
	}
	return 0, errors.Errorf("unknown mode %q, valid modes are: %s", s, strings.Join(modeNames, ", "))
}

// closestMode suggests a known mode within edit distance 2.
func closestMode(s string) (string, bool) {
	best := ""
	bestDist := 3
	for _, name := range modeNames {
		if d := levenshtein.Distance(s, name, nil); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best, best != ""
}

func (s *Session) expose(ctx context.Context, job scheduler.Job) error {
	switch s.opts.Mode {
	case ModePort:
		return s.exposePort(ctx, job)
	case ModeJupyter:
		return s.exposeJupyter(ctx, job)
	default:
		return s.exposeShell(ctx, job)
	}
}

// exposeShell prints the attach instruction and holds the session open
// until the operator ends it.
func (s *Session) exposeShell(ctx context.Context, job scheduler.Job) error {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Connect to your session with:")
	fmt.Fprintln(s.out)
	highlight.Fprintf(s.out, "    %s\n", s.opts.Scheduler.ConnectInstruction(job.Name))
	fmt.Fprintln(s.out)
	return s.hold(ctx)
}

// exposePort forwards an ephemeral local port to the requested
// container port and holds the session open.
func (s *Session) exposePort(ctx context.Context, job scheduler.Job) error {
	tunnel, err := s.opts.Forwarder.Open(ctx, job.PodName, s.opts.Port)
	if err != nil {
		return err
	}
	defer tunnel.Terminate()

	fmt.Fprintln(s.out)
	fmt.Fprintf(s.out, "Port %d of job %s is available at ", s.opts.Port, job.Name)
	highlight.Fprintf(s.out, "http://localhost:%d/\n", tunnel.Port())
	fmt.Fprintln(s.out)
	return s.hold(ctx)
}

// exposeJupyter waits for the notebook server to announce itself in
// the job's logs, forwards a local port to it, and prints the
// tokenized URL.
func (s *Session) exposeJupyter(ctx context.Context, job scheduler.Job) error {
	progress := newProgress("Waiting for the notebook server...")
	progress.Start()
	endpoint, err := notebook.Extract(ctx, s.opts.Scheduler, job.Name, notebook.RetryPolicy{
		Attempts: s.opts.EndpointAttempts,
		Delay:    s.opts.EndpointDelay,
	})
	progress.Stop()
	if err != nil {
		return err
	}

	tunnel, err := s.opts.Forwarder.Open(ctx, job.PodName, endpoint.ContainerPort)
	if err != nil {
		return err
	}
	defer tunnel.Terminate()

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Open Jupyter in your browser:")
	fmt.Fprintln(s.out)
	highlight.Fprintf(s.out, "    %s\n", endpoint.URL(tunnel.Port()))
	fmt.Fprintln(s.out)
	return s.hold(ctx)
}

// hold blocks until the operator ends the session.
func (s *Session) hold(ctx context.Context) error {
	fmt.Fprintln(s.out, "Press Ctrl-C to end the session and delete the job.")
	<-ctx.Done()
	return context.Cause(ctx)
}
