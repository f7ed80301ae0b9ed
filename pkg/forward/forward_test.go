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

package forward

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFakeForwarder(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-forwarder")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write fake forwarder: %v", err)
	}
	return path
}

func TestParseForwardLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantPort int
		wantOK   bool
	}{
		{"ipv4 bind", "Forwarding from 127.0.0.1:34805 -> 8888", 34805, true},
		{"ipv6 bind", "Forwarding from [::1]:34805 -> 8888", 34805, true},
		{"other output", "error: unable to forward port", 0, false},
		{"empty line", "", 0, false},
		{"prefix mid-line does not count", "note: Forwarding from 127.0.0.1:1 -> 2", 0, false},
		{"prefix without arrow", "Forwarding from 127.0.0.1:34805", 0, false},
		{"non-numeric port", "Forwarding from localhost:abc -> 8888", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, ok := ParseForwardLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseForwardLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if port != tt.wantPort {
				t.Errorf("ParseForwardLine(%q) port = %d, want %d", tt.line, port, tt.wantPort)
			}
		})
	}
}

func TestForwarderReachable(t *testing.T) {
	if err := NewForwarder("sh").Reachable(); err != nil {
		t.Errorf("Reachable failed for an installed tool: %v", err)
	}
	if err := NewForwarder("definitely-not-an-installed-binary").Reachable(); err == nil {
		t.Errorf("Reachable succeeded for a missing tool")
	}
}

func TestOpenReturnsAnnouncedPort(t *testing.T) {
	bin := writeFakeForwarder(t, `echo "Forwarding from 127.0.0.1:34805 -> 8888"; sleep 30`)

	tunnel, err := NewForwarder(bin).Open(context.Background(), "nb-1-0-0", 8888)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer tunnel.Terminate()

	if tunnel.Port() != 34805 {
		t.Errorf("Expected local port 34805, got %d", tunnel.Port())
	}
	tunnel.Terminate()
	tunnel.Terminate() // idempotent
}

func TestOpenReportsEarlyExit(t *testing.T) {
	bin := writeFakeForwarder(t, `echo "pods \"nb-1-0-0\" not found" >&2; exit 1`)

	_, err := NewForwarder(bin).Open(context.Background(), "nb-1-0-0", 8888)
	if err == nil {
		t.Fatalf("expected an error for a child that exits before binding")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected the child's stderr in the error, got %q", err)
	}
}

func TestOpenTerminatesChildThatClosesStdout(t *testing.T) {
	bin := writeFakeForwarder(t, `echo "no bind coming"; exec 1>&-; sleep 30`)

	start := time.Now()
	_, err := NewForwarder(bin).Open(context.Background(), "nb-1-0-0", 8888)
	if err == nil {
		t.Fatalf("expected an error when the child closes stdout without binding")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Open took %v, the child was not terminated after its stream ended", elapsed)
	}
}

func TestOpenStopsOnCancellation(t *testing.T) {
	bin := writeFakeForwarder(t, `sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := NewForwarder(bin).Open(ctx, "nb-1-0-0", 8888)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
