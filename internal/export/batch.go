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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	applog "goscreenwriter/internal/log"
)

// PresetName represents a named export preset.
type PresetName string

const (
	// PresetDraft writes only the plain interchange file.
	PresetDraft PresetName = "draft"
	// PresetInterchange writes the files other screenwriting tools import.
	PresetInterchange PresetName = "interchange"
	// PresetSubmission writes a PDF with title page.
	PresetSubmission PresetName = "submission"
	// PresetAll writes every format.
	PresetAll PresetName = "all"
)

// ArtifactCache stores rendered artifacts by key. Any Get error is a miss.
type ArtifactCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// BatchOptions controls batch export of one snapshot to several formats.
//
// Formats overrides the preset's defaults. TitlePage, when set, overrides the
// preset's title page choice for PDF. OutDir is only used by BatchExport and
// Runner; Batch itself never touches the disk.
type BatchOptions struct {
	Preset    PresetName
	Formats   []Format
	TitlePage *bool
	OutDir    string
	Cache     ArtifactCache
}

func (o BatchOptions) formats() []Format {
	if len(o.Formats) > 0 {
		return o.Formats
	}
	return presetDefaultFormats(o.Preset)
}

// Batch renders snap in every requested format concurrently. Artifacts are
// returned in the order of the formats.
func Batch(ctx context.Context, snap Snapshot, opt BatchOptions, p Params) ([]Artifact, error) {
	formats := opt.formats()
	p = p.withDefaults()
	p.TitlePage = p.TitlePage || presetTitlePage(opt.Preset)
	if opt.TitlePage != nil {
		p.TitlePage = *opt.TitlePage
	}
	l := applog.WithOperation(applog.WithComponent("export"), "batch")

	arts := make([]Artifact, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		i, f := i, f
		g.Go(func() error {
			key := snap.CacheKey(f, p)
			if opt.Cache != nil {
				if data, err := opt.Cache.Get(gctx, key); err == nil {
					arts[i] = Artifact{Format: f, Filename: Filename(p.Title, f), MIMEType: f.MIMEType(), Data: data}
					l.Debug("cache hit", slog.String("format", string(f)))
					return nil
				}
			}
			a, err := Render(gctx, snap, f, p)
			if err != nil {
				return err
			}
			if opt.Cache != nil {
				if err := opt.Cache.Put(gctx, key, a.Data); err != nil {
					l.Warn("cache put failed", slog.String("format", string(f)), slog.Any("err", err))
				}
			}
			arts[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return arts, nil
}

// BatchExport snapshots text, renders it and writes the files into opt.OutDir
// (created if needed). It returns the written paths.
func BatchExport(ctx context.Context, text string, opt BatchOptions, p Params) ([]string, error) {
	arts, err := Batch(ctx, TakeSnapshot(text), opt, p)
	if err != nil {
		return nil, err
	}
	return WriteArtifacts(opt.OutDir, arts)
}

// WriteArtifacts writes each artifact to dir under its Filename. Files are
// written to a temp file first and renamed into place.
func WriteArtifacts(dir string, arts []Artifact) ([]string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	paths := make([]string, 0, len(arts))
	for _, a := range arts {
		path := filepath.Join(dir, a.Filename)
		if err := writeFileAtomic(path, a.Data); err != nil {
			return paths, fmt.Errorf("write %s: %w", a.Filename, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFileAtomic(path string, data []byte) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func presetDefaultFormats(p PresetName) []Format {
	switch p {
	case PresetDraft:
		return []Format{FormatFountain}
	case PresetInterchange:
		return []Format{FormatFountain, FormatFDX}
	case PresetSubmission:
		return []Format{FormatPDF}
	default:
		return Formats()
	}
}

func presetTitlePage(p PresetName) bool {
	return p == PresetSubmission
}
