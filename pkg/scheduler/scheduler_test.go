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
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// writeFakeTool installs an executable shell script standing in for
// the scheduler binary and returns its path.
func writeFakeTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-scheduler")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write fake tool: %v", err)
	}
	return path
}

func TestStatusFromString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Status
	}{
		{"running", "Running", StatusRunning},
		{"pending", "Pending", StatusPending},
		{"container creating", "ContainerCreating", StatusContainerCreating},
		{"image pull backoff", "ImagePullBackOff", StatusImagePullBackOff},
		{"not ready", "NotReady", StatusNotReady},
		{"unrecognized state keeps waiting", "Preempted", StatusNotReady},
		{"empty state keeps waiting", "", StatusNotReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFromString(tt.input); got != tt.want {
				t.Errorf("StatusFromString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDescribeOutput(t *testing.T) {
	job, err := parseDescribeOutput([]byte(`{"name":"nb-1","chiefName":"nb-1-0-0","status":"Running"}`))
	if err != nil {
		t.Fatalf("parseDescribeOutput failed: %v", err)
	}
	want := Job{Name: "nb-1", PodName: "nb-1-0-0", Status: StatusRunning}
	if diff := cmp.Diff(want, job); diff != "" {
		t.Errorf("Job mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDescribeOutputRejectsGarbage(t *testing.T) {
	if _, err := parseDescribeOutput([]byte("error: connection refused")); err == nil {
		t.Fatalf("expected an error for non-JSON output")
	}
}

func TestBuildSubmitArgs(t *testing.T) {
	tests := []struct {
		name  string
		spec  JobSpec
		extra []string
		want  []string
	}{
		{
			name: "plain submission",
			spec: JobSpec{Name: "nb-1", Image: "jupyter/base:latest"},
			want: []string{"submit", "nb-1", "-i", "jupyter/base:latest", "--interactive"},
		},
		{
			name:  "extra args precede workload args",
			spec:  JobSpec{Name: "nb-1", Image: "img", Args: []string{"--", "sleep", "infinity"}},
			extra: []string{"-p", "research"},
			want:  []string{"submit", "nb-1", "-i", "img", "--interactive", "-p", "research", "--", "sleep", "infinity"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSubmitArgs(tt.spec, tt.extra)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClientReachable(t *testing.T) {
	bin := writeFakeTool(t, "exit 0")
	if err := NewClient(bin).Reachable(); err != nil {
		t.Errorf("Reachable failed for a working tool: %v", err)
	}

	if err := NewClient("definitely-not-an-installed-binary").Reachable(); err == nil {
		t.Errorf("Reachable succeeded for a missing tool")
	}
}

func TestClientDescribeParsesJob(t *testing.T) {
	bin := writeFakeTool(t, `echo '{"name":"nb-1","chiefName":"nb-1-0-0","status":"ContainerCreating"}'`)
	job, err := NewClient(bin).Describe("nb-1")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	want := Job{Name: "nb-1", PodName: "nb-1-0-0", Status: StatusContainerCreating}
	if diff := cmp.Diff(want, job); diff != "" {
		t.Errorf("Job mismatch (-want +got):\n%s", diff)
	}
}

func TestClientDescribeSynthesizesDoesNotExist(t *testing.T) {
	tests := []struct {
		name   string
		client *Client
	}{
		{"query exits nonzero", NewClient(writeFakeTool(t, "echo 'job not found' >&2; exit 1"))},
		{"tool missing entirely", NewClient("definitely-not-an-installed-binary")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := tt.client.Describe("gone-job")
			if err != nil {
				t.Fatalf("Describe returned an error instead of a synthesized status: %v", err)
			}
			if job.Status != StatusDoesNotExist {
				t.Errorf("Expected StatusDoesNotExist, got %v", job.Status)
			}
			if job.Name != "gone-job" {
				t.Errorf("Expected synthesized handle to keep the name, got %q", job.Name)
			}
		})
	}
}

func TestClientDescribeRejectsUnparseableSuccess(t *testing.T) {
	bin := writeFakeTool(t, "echo 'Name: nb-1'")
	if _, err := NewClient(bin).Describe("nb-1"); err == nil {
		t.Fatalf("expected an error for unparseable describe output on exit 0")
	}
}

func TestClientLogs(t *testing.T) {
	bin := writeFakeTool(t, `echo "line one"; echo "line two"`)
	logs, err := NewClient(bin).Logs("nb-1")
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	if logs != "line one\nline two\n" {
		t.Errorf("Expected captured log text, got %q", logs)
	}
}

func TestClientLogsFailure(t *testing.T) {
	bin := writeFakeTool(t, "exit 2")
	if _, err := NewClient(bin).Logs("nb-1"); err == nil {
		t.Fatalf("expected an error for a failing logs command")
	}
}
