/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package watch re-exports a script file whenever it changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"goscreenwriter/internal/export"
	applog "goscreenwriter/internal/log"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Options configures Watch. Runner is required. OnResult, when set, receives
// the result of every export job, superseded ones included.
type Options struct {
	Runner   *export.Runner
	Params   export.Params
	Debounce time.Duration
	// Initial exports once before waiting for the first change.
	Initial  bool
	OnResult func(export.Result)
}

// Watch observes the directory of path (editors often save by rename) and
// submits the file's text to the runner after each debounced change. It
// returns when ctx is cancelled; in-flight jobs finish before it returns.
func Watch(ctx context.Context, path string, opts Options) error {
	if opts.Runner == nil {
		return errors.New("watch: runner is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	ctx = applog.ContextWithScript(ctx, abs)
	l := applog.WithComponent("watch")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	l.InfoContext(ctx, "watcher: started")
	defer opts.Runner.Wait()

	submit := func() {
		data, err := os.ReadFile(abs)
		if err != nil {
			l.WarnContext(ctx, "watcher: read failed", slog.Any("err", err))
			return
		}
		job := opts.Runner.Submit(ctx, string(data), opts.Params)
		jctx := applog.ContextWithJob(ctx, job.ID)
		l.DebugContext(jctx, "watcher: export submitted")
		go func() {
			res := <-job.Done
			if res.Err != nil && !errors.Is(res.Err, export.ErrSuperseded) && !errors.Is(res.Err, context.Canceled) {
				l.ErrorContext(jctx, "watcher: export failed", slog.Any("err", res.Err))
			}
			if opts.OnResult != nil {
				opts.OnResult(res)
			}
		}()
	}
	if opts.Initial {
		submit()
	}

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(opts.Debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			l.InfoContext(ctx, "watcher: stopped")
			return nil

		case <-fire:
			submit()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.ErrorContext(ctx, "watcher: error", slog.Any("err", werr))
		}
	}
}
