/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigFile, path)
	for _, env := range envKeys {
		t.Setenv(env, "")
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.DefaultTitle != "Untitled Screenplay" || cfg.Export.OutDir != "exports" || !cfg.Export.TitlePage {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if len(cfg.Export.Formats) != 3 {
		t.Fatalf("formats = %v", cfg.Export.Formats)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.General.DefaultAuthor = "Jane Doe"
	cfg.Export.Formats = []string{"pdf"}
	cfg.Export.TitlePage = false
	cfg.Server.Addr = "127.0.0.1:9090"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.General.DefaultAuthor != "Jane Doe" || got.Export.TitlePage || got.Server.Addr != "127.0.0.1:9090" {
		t.Fatalf("round trip mismatch: %#v", got)
	}
	if len(got.Export.Formats) != 1 || got.Export.Formats[0] != "pdf" {
		t.Fatalf("formats = %v", got.Export.Formats)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("general: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEnvOverridesExport(t *testing.T) {
	isolate(t)
	t.Setenv(EnvFormats, " FDX , fountain ")
	t.Setenv(EnvTitlePage, "no")
	t.Setenv(EnvOutDir, "/tmp/out")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if strings.Join(cfg.Export.Formats, ",") != "fdx,fountain" {
		t.Fatalf("formats = %v", cfg.Export.Formats)
	}
	if cfg.Export.TitlePage || cfg.Export.OutDir != "/tmp/out" {
		t.Fatalf("export overrides not applied: %#v", cfg.Export)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "ERROR")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/tmp/gsw.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/tmp/gsw.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "Debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/var/log/gsw.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/var/log/gsw.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		ok     bool
	}{
		{"defaults", func(*AppConfig) {}, true},
		{"unknown format", func(c *AppConfig) { c.Export.Formats = []string{"docx"} }, false},
		{"no formats", func(c *AppConfig) { c.Export.Formats = nil }, false},
		{"bad color", func(c *AppConfig) { c.General.RevisionColor = "purple" }, false},
		{"bold without regular", func(c *AppConfig) { c.Export.BoldFontFile = "b.ttf" }, false},
		{"bold with regular", func(c *AppConfig) { c.Export.FontFile = "r.ttf"; c.Export.BoldFontFile = "b.ttf" }, true},
		{"bad addr", func(c *AppConfig) { c.Server.Addr = "8080" }, false},
		{"bad level", func(c *AppConfig) { c.Logging.Level = "loud" }, false},
		{"empty title", func(c *AppConfig) { c.General.DefaultTitle = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestEnvOverrideFor(t *testing.T) {
	isolate(t)
	if _, ok := EnvOverrideFor("server.addr"); ok {
		t.Fatalf("no override expected")
	}
	t.Setenv(EnvServerAddr, ":9999")
	if env, ok := EnvOverrideFor("server.addr"); !ok || env != EnvServerAddr {
		t.Fatalf("EnvOverrideFor = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("no.such.key"); ok {
		t.Fatalf("unknown key reported as overridden")
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("general:\n  default_author: Sam Lee\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.DefaultAuthor != "Sam Lee" || !cfg.Export.TitlePage || cfg.General.RevisionColor != "blue" {
		t.Fatalf("partial file lost defaults: %#v", cfg)
	}
}
