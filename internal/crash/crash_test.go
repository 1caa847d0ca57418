/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	defer func() { _ = os.Remove(path) }()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Go Screenwriter Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportNextToScript(t *testing.T) {
	root := t.TempDir()
	tg := &Target{ScriptPath: filepath.Join(root, "pilot.fountain")}
	path, err := writeReport(tg, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if filepath.Dir(path) != root {
		t.Fatalf("expected crash report in %s, got %s", root, path)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "Script: "+tg.ScriptPath) {
		t.Fatalf("script line missing: %s", b)
	}
}

func TestRecoverWritesReportAndAutosave(t *testing.T) {
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(io.Discard, r)
	}()

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	root := t.TempDir()
	script := filepath.Join(root, "pilot.fountain")
	if err := os.WriteFile(script, []byte("INT. OLD - DAY\n"), 0o644); err != nil {
		t.Fatalf("seed script: %v", err)
	}
	tg := &Target{ScriptPath: script, Text: func() string { return "INT. NEW - NIGHT\n" }}

	func() {
		defer Recover(tg)
		panic("boom")
	}()

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
	var report, autosave string
	entries, _ := os.ReadDir(root)
	for _, e := range entries {
		switch {
		case strings.HasPrefix(e.Name(), "crash-") && strings.HasSuffix(e.Name(), ".log"):
			report = filepath.Join(root, e.Name())
		case strings.HasPrefix(e.Name(), "pilot.crash-"):
			autosave = filepath.Join(root, e.Name())
		}
	}
	if report == "" || autosave == "" {
		t.Fatalf("missing report or autosave: %v", entries)
	}
	b, _ := os.ReadFile(autosave)
	if string(b) != "INT. NEW - NIGHT\n" {
		t.Fatalf("autosave content = %q", b)
	}
	orig, _ := os.ReadFile(script)
	if string(orig) != "INT. OLD - DAY\n" {
		t.Fatalf("original script modified: %q", orig)
	}
}

func TestAutosaveWithoutText(t *testing.T) {
	if _, err := Autosave(&Target{ScriptPath: "x.fountain"}); err == nil {
		t.Fatalf("expected error without text source")
	}
}
