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
	"syscall"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestNotifyContextCancelsWithSignalCause(t *testing.T) {
	ctx, stop := NotifyContext(context.Background())
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("failed to send SIGINT: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled after signal")
	}

	var sigErr *SignalError
	if !errors.As(context.Cause(ctx), &sigErr) {
		t.Fatalf("cause = %v, want SignalError", context.Cause(ctx))
	}
	if sigErr.Signal != syscall.SIGINT {
		t.Errorf("signal = %v, want SIGINT", sigErr.Signal)
	}

	// The subscription must still be active: a repeat signal has to be
	// swallowed instead of killing the process.
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("failed to send second SIGINT: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
}

func TestNotifyContextStopIsIdempotent(t *testing.T) {
	ctx, stop := NotifyContext(context.Background())
	stop()
	stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("stop did not release the context")
	}
}

func TestSignalErrorExitCode(t *testing.T) {
	tests := []struct {
		sig  syscall.Signal
		want int
	}{
		{syscall.SIGINT, 130},
		{syscall.SIGTERM, 143},
		{syscall.SIGHUP, 129},
	}
	for _, tc := range tests {
		err := &SignalError{Signal: tc.sig}
		if got := err.ExitCode(); got != tc.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tc.sig, got, tc.want)
		}
	}
}
