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
	"os"
	"time"

	"interactive-toolkit/pkg/logging"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var highlight = color.New(color.FgGreen, color.Bold)

// progress is a terminal spinner that degrades to a single log line
// when stderr is not a terminal.
type progress struct {
	spin      *spinner.Spinner
	message   string
	announced bool
}

func newProgress(message string) *progress {
	p := &progress{message: message}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		p.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		p.spin.Writer = os.Stderr
		p.spin.Suffix = " " + message
	}
	return p
}

func (p *progress) Start() {
	if p.spin == nil {
		if !p.announced {
			logging.Info("%s", p.message)
			p.announced = true
		}
		return
	}
	p.spin.Start()
}

func (p *progress) Stop() {
	if p.spin != nil {
		p.spin.Stop()
	}
}

// Notify logs a notice without garbling the spinner line.
func (p *progress) Notify(format string, args ...interface{}) {
	p.Stop()
	logging.Info(format, args...)
	p.Start()
}
