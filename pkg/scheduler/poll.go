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

package scheduler

import (
	"context"
	"time"

	"interactive-toolkit/pkg/logging"

	"github.com/pkg/errors"
)

// DefaultPollInterval is the fixed delay between status queries.
const DefaultPollInterval = 5 * time.Second

// StatusReader is the view of the scheduler client the poller needs.
type StatusReader interface {
	Describe(name string) (Job, error)
}

// WaitOptions tunes a WaitUntilRunning call.
type WaitOptions struct {
	// Interval between polls; DefaultPollInterval when zero.
	Interval time.Duration
	// Notify receives the one-time progress notices; logging.Info when
	// nil.
	Notify func(format string, args ...interface{})
}

// WaitUntilRunning polls the job's status until it is Running and
// returns the observed handle. The loop is unbounded: there is no
// retry cap and no timeout, and the operator's interrupt (context
// cancellation) is the only other way out.
//
// Status policy: DoesNotExist and ImagePullBackOff are fatal;
// ContainerCreating emits a single notice no matter how many polls
// observe it; Pending and NotReady keep waiting silently.
func WaitUntilRunning(ctx context.Context, reader StatusReader, name string, opts WaitOptions) (Job, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	notify := opts.Notify
	if notify == nil {
		notify = logging.Info
	}

	creatingNoticed := false
	for {
		job, err := reader.Describe(name)
		// A terminal interrupt hits the whole process group, so it also
		// kills an in-flight describe child, which then reads as
		// DoesNotExist. Cancellation outranks whatever that poll saw.
		if ctx.Err() != nil {
			return Job{}, context.Cause(ctx)
		}
		if err != nil {
			return Job{}, err
		}

		switch job.Status {
		case StatusRunning:
			return job, nil
		case StatusDoesNotExist:
			return Job{}, errors.Wrapf(ErrJobNotFound, "job %q", name)
		case StatusImagePullBackOff:
			return Job{}, errors.Wrapf(ErrImagePull, "job %q", name)
		case StatusContainerCreating:
			if !creatingNoticed {
				notify("Creating container for job %s...", name)
				creatingNoticed = true
			}
		}

		select {
		case <-ctx.Done():
			return Job{}, context.Cause(ctx)
		case <-time.After(interval):
		}
	}
}
