/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log configures the process-wide slog logger. Console output is a
// compact one-line format tagged with the component and operation; JSON output
// and the optional rotating log file keep every attribute. Records logged with
// a context carry the script path and export job id attached to it.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	lj "gopkg.in/natefinch/lumberjack.v2"

	"goscreenwriter/internal/version"
)

// Options controls logger initialization. FromEnv reads them from
// GSW_LOG_LEVEL, GSW_LOG_FORMAT, GSW_LOG_SOURCE and GSW_LOG_FILE.
type Options struct {
	Level     string // debug, info, warn or error
	Format    string // "console" or "json"
	AddSource bool
	// File enables an additional JSON log, rotated by lumberjack.
	File string
	// Output is the console destination, stderr when nil.
	Output io.Writer
}

var current atomic.Pointer[slog.Logger]

// L returns the application logger, initializing it from the environment on
// first use.
func L() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return current.Load()
}

// Init replaces the application logger and slog.Default.
func Init(opts Options) {
	level := parseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level, AddSource: opts.AddSource})
	} else {
		console = newConsoleHandler(out, level, opts.AddSource)
	}
	handlers := []slog.Handler{console}
	if path := strings.TrimSpace(opts.File); path != "" {
		w := &lj.Logger{Filename: path, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, AddSource: opts.AddSource}))
	}

	logger := slog.New(&contextHandler{next: fanout(handlers...)}).With(
		slog.String("app", "goscreenwriter"),
		slog.String("ver", version.String()),
	)
	current.Store(logger)
	slog.SetDefault(logger)
}

// FromEnv builds Options from GSW_LOG_* variables. Unset values keep the
// defaults: info level, console format, no source, no file.
func FromEnv() Options {
	source, _ := strconv.ParseBool(getenv("GSW_LOG_SOURCE", "false"))
	return Options{
		Level:     getenv("GSW_LOG_LEVEL", "info"),
		Format:    getenv("GSW_LOG_FORMAT", "console"),
		AddSource: source,
		File:      os.Getenv("GSW_LOG_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger tagged with the subsystem name (export,
// storage, server, watch, cli...).
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation narrows l to one operation of its component.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type ctxKey int

const (
	scriptKey ctxKey = iota
	jobKey
)

// ContextWithScript attaches the script file path to ctx. Records logged with
// that context carry a "script" attribute.
func ContextWithScript(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, scriptKey, path)
}

// ContextWithJob attaches an export job id to ctx ("job" attribute).
func ContextWithJob(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, jobKey, id)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
