/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	applog "goscreenwriter/internal/log"
)

// Job is one submitted export. Done receives exactly one Result.
type Job struct {
	ID   string
	Done <-chan Result
}

// Result is the outcome of a Job. Err is ErrSuperseded when a newer job
// replaced this one before it finished.
type Result struct {
	JobID     string
	Snapshot  Snapshot
	Artifacts []Artifact
	Err       error
}

// Runner runs exports in the background. A new submission supersedes the one
// in flight: the older job is cancelled and reports ErrSuperseded, never a
// partial or merged result.
type Runner struct {
	opts    BatchOptions
	log     *slog.Logger
	mu      sync.Mutex
	writeMu sync.Mutex
	cur     string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner returns a runner rendering with opts (formats, cache, output dir).
func NewRunner(opts BatchOptions) *Runner {
	return &Runner{opts: opts, log: applog.WithComponent("export")}
}

// Submit snapshots text and starts rendering it.
func (r *Runner) Submit(ctx context.Context, text string, p Params) Job {
	snap := TakeSnapshot(text)
	id := uuid.NewString()
	jctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.cur, r.cancel = id, cancel
	r.mu.Unlock()

	done := make(chan Result, 1)
	l := applog.WithOperation(r.log, "submit").With(slog.String("job", id), slog.String("digest", snap.Digest[:12]))
	l.Debug("export queued")
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		arts, err := Batch(jctx, snap, r.opts, p)
		if err == nil && r.opts.OutDir != "" {
			err = r.write(id, arts)
		}
		if errors.Is(err, ErrSuperseded) || !r.isCurrent(id) {
			l.Debug("export superseded")
			done <- Result{JobID: id, Snapshot: snap, Err: ErrSuperseded}
			return
		}
		if err != nil {
			l.Error("export failed", slog.Any("err", err))
		} else {
			l.Info("export finished", slog.Int("artifacts", len(arts)))
		}
		done <- Result{JobID: id, Snapshot: snap, Artifacts: arts, Err: err}
	}()
	return Job{ID: id, Done: done}
}

// Current returns the id of the newest job.
func (r *Runner) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur
}

// Wait blocks until every submitted job has delivered its result.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) isCurrent(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur == id
}

// write stores artifacts unless a newer job exists. Writes are serialized so
// the newest job's files are the last ones on disk.
func (r *Runner) write(id string, arts []Artifact) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if !r.isCurrent(id) {
		return ErrSuperseded
	}
	_, err := WriteArtifacts(r.opts.OutDir, arts)
	return err
}
