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

// Package notebook discovers a notebook server's connection endpoint
// by scraping the workload's logs for a tokenized URL.
package notebook

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"interactive-toolkit/pkg/logging"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
)

// ErrNoEndpoint reports that no tokenized URL was found in the job's
// logs. It is distinguishable from tool failures so the caller can
// tell "the notebook never announced itself" apart from anything else.
var ErrNoEndpoint = errors.New("no notebook endpoint found in job logs")

var urlPattern = regexp.MustCompile(`http\S+`)

// Endpoint is the notebook server's in-container port and access
// token, as announced in its startup logs.
type Endpoint struct {
	ContainerPort int
	Token         string
}

// URL renders the browser-usable address through a forwarded local
// port.
func (e Endpoint) URL(localPort int) string {
	return fmt.Sprintf("http://localhost:%d/?token=%s", localPort, e.Token)
}

// FindEndpoint scans log text for whitespace-delimited URL tokens and
// returns the first one carrying a non-empty "token" query parameter.
// The port is the URL's explicit port, defaulting to 80 for http and
// 443 for https; candidates with neither are skipped.
func FindEndpoint(logText string) (Endpoint, error) {
	for _, candidate := range urlPattern.FindAllString(logText, -1) {
		u, err := url.Parse(candidate)
		if err != nil {
			continue
		}
		token := u.Query().Get("token")
		if token == "" {
			continue
		}
		port, ok := endpointPort(u)
		if !ok {
			continue
		}
		return Endpoint{ContainerPort: port, Token: token}, nil
	}
	return Endpoint{}, ErrNoEndpoint
}

func endpointPort(u *url.URL) (int, bool) {
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return 0, false
		}
		return port, true
	}
	switch u.Scheme {
	case "http":
		return 80, true
	case "https":
		return 443, true
	}
	return 0, false
}

// Default retry budget for endpoint discovery.
const (
	DefaultExtractAttempts = 20
	DefaultExtractDelay    = 10 * time.Second
)

// LogSource is the view of the scheduler client the scraper needs.
type LogSource interface {
	Logs(name string) (string, error)
}

// RetryPolicy bounds the discovery loop. Zero values select the
// defaults.
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts == 0 {
		p.Attempts = DefaultExtractAttempts
	}
	if p.Delay <= 0 {
		p.Delay = DefaultExtractDelay
	}
	return p
}

// Extract fetches the job's logs and scans them for the notebook
// endpoint, retrying on a fixed delay until the budget is exhausted.
// A failed log fetch and a successful fetch with no endpoint yet
// consume the budget at the same rate. Exhaustion surfaces as
// ErrNoEndpoint; cancellation surfaces as the context's cause.
func Extract(ctx context.Context, src LogSource, jobName string, policy RetryPolicy) (Endpoint, error) {
	policy = policy.withDefaults()

	attempt := 0
	op := func() (Endpoint, error) {
		attempt++
		text, err := src.Logs(jobName)
		if err != nil {
			logging.Debug("Log fetch for job %s failed (attempt %d/%d): %v",
				jobName, attempt, policy.Attempts, err)
			return Endpoint{}, err
		}
		ep, err := FindEndpoint(text)
		if err != nil {
			logging.Debug("No notebook endpoint in logs of job %s yet (attempt %d/%d)",
				jobName, attempt, policy.Attempts)
			return Endpoint{}, err
		}
		return ep, nil
	}

	// The budget is attempts times delay; disable the library's elapsed
	// time cap so it cannot cut the budget short.
	ep, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(policy.Delay)),
		backoff.WithMaxTries(policy.Attempts),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		if ctx.Err() != nil {
			return Endpoint{}, context.Cause(ctx)
		}
		return Endpoint{}, errors.Wrapf(ErrNoEndpoint,
			"gave up after %d attempts (last: %v)", policy.Attempts, err)
	}
	return ep, nil
}
