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

// Package session drives one interactive job end to end: preflight
// checks, submission, the wait for Running, exposure in the requested
// mode, and guaranteed teardown of the remote job.
package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"interactive-toolkit/pkg/forward"
	"interactive-toolkit/pkg/history"
	"interactive-toolkit/pkg/logging"
	"interactive-toolkit/pkg/scheduler"

	"github.com/pkg/errors"
)

// Scheduler is the cluster scheduler surface a session drives.
// *scheduler.Client implements it.
type Scheduler interface {
	Reachable() error
	Submit(spec scheduler.JobSpec) error
	Describe(name string) (scheduler.Job, error)
	Delete(name string) error
	Logs(name string) (string, error)
	ConnectInstruction(name string) string
}

// Tunnel is one open local forwarding to the job's pod.
type Tunnel interface {
	Port() int
	Terminate()
}

// Forwarder opens tunnels to the job's pod.
type Forwarder interface {
	Reachable() error
	Open(ctx context.Context, pod string, containerPort int) (Tunnel, error)
}

// NewPortForwarder adapts the forwarding tool client to the Forwarder
// interface.
func NewPortForwarder(f *forward.Forwarder) Forwarder {
	return portForwarder{f}
}

type portForwarder struct {
	f *forward.Forwarder
}

func (p portForwarder) Reachable() error {
	return p.f.Reachable()
}

func (p portForwarder) Open(ctx context.Context, pod string, containerPort int) (Tunnel, error) {
	return p.f.Open(ctx, pod, containerPort)
}

// Recorder persists launch records. A nil Recorder records nothing.
type Recorder interface {
	RecordLaunch(jobName, image, mode string) (string, error)
	FinishLaunch(id, outcome string) error
}

// Options configures a session.
type Options struct {
	// JobName is the scheduler-visible name of the job.
	JobName string
	// Image is the container image the job runs.
	Image string
	// ExtraArgs are passed through to the submit command after the
	// configured defaults.
	ExtraArgs []string

	// Mode selects the exposure behavior once the job is Running.
	Mode Mode
	// Port is the container port to expose in ModePort. Other modes
	// ignore it.
	Port int

	Scheduler Scheduler
	// Forwarder is required by ModePort and ModeJupyter.
	Forwarder Forwarder
	// Recorder may be nil.
	Recorder Recorder

	// PollInterval between status queries; the scheduler default when
	// zero.
	PollInterval time.Duration
	// EndpointAttempts and EndpointDelay tune notebook endpoint
	// discovery; the notebook defaults when zero.
	EndpointAttempts uint
	EndpointDelay    time.Duration

	// Out receives operator-facing results. os.Stdout when nil.
	Out io.Writer
}

// Session owns one submitted job.
type Session struct {
	opts Options
	out  io.Writer

	historyID string
	cleanup   sync.Once
}

// New validates opts and returns a session ready to run.
func New(opts Options) (*Session, error) {
	if opts.JobName == "" {
		return nil, errors.New("job name must not be empty")
	}
	if opts.Image == "" {
		return nil, errors.New("image must not be empty")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("scheduler must not be nil")
	}
	if opts.Mode == ModePort && opts.Port <= 0 {
		return nil, errors.New("port mode requires a positive port")
	}
	if (opts.Mode == ModePort || opts.Mode == ModeJupyter) && opts.Forwarder == nil {
		return nil, errors.Errorf("%s mode requires a port forwarder", opts.Mode)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Session{opts: opts, out: out}, nil
}

// Run drives the session to completion. Cleanup of the remote job is
// armed only once submission succeeds and from then on runs exactly
// once, no matter how the session ends.
func (s *Session) Run(ctx context.Context) error {
	if err := s.preflight(); err != nil {
		return err
	}

	err := s.opts.Scheduler.Submit(scheduler.JobSpec{
		Name:  s.opts.JobName,
		Image: s.opts.Image,
		Args:  s.opts.ExtraArgs,
	})
	if err != nil {
		return err
	}
	defer s.teardown()
	s.record()

	job, err := s.waitUntilRunning(ctx)
	if err == nil {
		logging.Info("Job %s is running on pod %s", job.Name, job.PodName)
		err = s.expose(ctx, job)
	}
	s.finish(outcomeFor(err))
	return err
}

// preflight verifies the external tools before any remote side effect
// is attempted.
func (s *Session) preflight() error {
	if err := s.opts.Scheduler.Reachable(); err != nil {
		return err
	}
	if s.opts.Mode == ModePort || s.opts.Mode == ModeJupyter {
		if err := s.opts.Forwarder.Reachable(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) waitUntilRunning(ctx context.Context) (scheduler.Job, error) {
	progress := newProgress(fmt.Sprintf("Waiting for job %s to start...", s.opts.JobName))
	progress.Start()
	defer progress.Stop()

	return scheduler.WaitUntilRunning(ctx, s.opts.Scheduler, s.opts.JobName, scheduler.WaitOptions{
		Interval: s.opts.PollInterval,
		Notify:   progress.Notify,
	})
}

// teardown deletes the job. Best effort: a failed delete is logged,
// never escalated, so it cannot mask the error that ended the session.
func (s *Session) teardown() {
	s.cleanup.Do(func() {
		logging.Info("Cleaning up job %s...", s.opts.JobName)
		if err := s.opts.Scheduler.Delete(s.opts.JobName); err != nil {
			logging.Error("Failed to delete job %s: %v", s.opts.JobName, err)
			return
		}
		logging.Info("Job %s deleted", s.opts.JobName)
	})
}

func (s *Session) record() {
	if s.opts.Recorder == nil {
		return
	}
	id, err := s.opts.Recorder.RecordLaunch(s.opts.JobName, s.opts.Image, s.opts.Mode.String())
	if err != nil {
		logging.Debug("Failed to record launch: %v", err)
		return
	}
	s.historyID = id
}

func (s *Session) finish(outcome string) {
	if s.historyID == "" {
		return
	}
	if err := s.opts.Recorder.FinishLaunch(s.historyID, outcome); err != nil {
		logging.Debug("Failed to record launch outcome: %v", err)
	}
}

// outcomeFor classifies how the session ended for the launch record.
func outcomeFor(err error) string {
	var sigErr *SignalError
	switch {
	case err == nil:
		return history.OutcomeCompleted
	case errors.As(err, &sigErr), errors.Is(err, context.Canceled):
		return history.OutcomeInterrupted
	default:
		return history.OutcomeFailed + ": " + err.Error()
	}
}
