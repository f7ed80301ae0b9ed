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
	"os"
	"os/signal"
	"sync"
	"syscall"

	"interactive-toolkit/pkg/logging"
)

// SignalError reports that the session ended because the operator sent
// a termination signal.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("received signal %v", e.Signal)
}

// ExitCode returns the conventional shell exit code for the signal.
func (e *SignalError) ExitCode() int {
	if sig, ok := e.Signal.(syscall.Signal); ok {
		return 128 + int(sig)
	}
	return 1
}

// NotifyContext returns a context cancelled with a *SignalError cause
// on the first SIGINT, SIGTERM, or SIGHUP. The subscription stays
// active after the first signal and swallows repeats, so a second
// interrupt cannot kill the process while teardown is still running.
// The returned stop function releases the subscription; it is safe to
// call more than once.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		sig, ok := <-ch
		if !ok {
			return
		}
		logging.Info("Received %v, shutting down...", sig)
		cancel(&SignalError{Signal: sig})
		for range ch {
			// Swallow repeats until stop releases the subscription.
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			signal.Stop(ch)
			close(ch)
			cancel(nil)
		})
	}
	return ctx, stop
}
