/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"

	"goscreenwriter/internal/config"
	"goscreenwriter/internal/crash"
	"goscreenwriter/internal/export"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/report"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/server"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/textlayout"
	"goscreenwriter/internal/watch"
)

type appEnv struct {
	stdout io.Writer
	stdin  io.Reader
	crash  *crash.Target
	script atomic.Pointer[string]
}

// track makes text the script autosaved on a crash. The first call wires
// the crash target; later calls only swap the text.
func (e *appEnv) track(path, text string) {
	if e.crash == nil {
		return
	}
	first := e.script.Swap(&text) == nil
	if !first {
		return
	}
	if path != "" && path != "-" {
		e.crash.ScriptPath = path
	}
	e.crash.Text = func() string { return *e.script.Load() }
}

// setup loads the configuration and re-initializes logging from it.
func (e *appEnv) setup(cmd *cli.Command) (config.AppConfig, error) {
	var (
		cfg config.AppConfig
		err error
	)
	if p := cmd.String("config"); p != "" {
		cfg, err = config.LoadFile(p)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	return cfg, nil
}

// readScript returns the script text of path ("-" or empty for stdin).
// Final Draft files are imported and our own Fountain exports are unwrapped.
func (e *appEnv) readScript(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(e.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".fdx") {
		fdx, err := export.ImportFDX(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("import %s: %w", path, err)
		}
		e.track(path, fdx.Text())
		return fdx.Text(), nil
	}
	text := string(data)
	if body, ok := export.FountainBody(data); ok {
		if _, titled := export.FountainHeader(data)["Title"]; titled {
			text = body
		}
	}
	e.track(path, text)
	return text, nil
}

func (e *appEnv) parse(cmd *cli.Command) (*script.Document, error) {
	text, err := e.readScript(cmd.Args().First())
	if err != nil {
		return nil, err
	}
	return script.Parse(text), nil
}

func (e *appEnv) printJSON(v any) error {
	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (e *appEnv) classify(_ context.Context, cmd *cli.Command) error {
	doc, err := e.parse(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return e.printJSON(doc.Elements)
	}
	for i, el := range doc.Elements {
		if _, err := fmt.Fprintf(e.stdout, "%4d  %-14s %s\n", i+1, el.Kind, el.Text); err != nil {
			return err
		}
	}
	return nil
}

func (e *appEnv) stats(_ context.Context, cmd *cli.Command) error {
	text, err := e.readScript(cmd.Args().First())
	if err != nil {
		return err
	}
	st := script.ComputeStats(text)
	if cmd.Bool("json") {
		return e.printJSON(st)
	}
	_, err = fmt.Fprintf(e.stdout, "Words: %d\nPages: %d\nDialogue: %d%%\n", st.Words, st.Pages, st.DialoguePercent)
	return err
}

func (e *appEnv) scenes(_ context.Context, cmd *cli.Command) error {
	doc, err := e.parse(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return e.printJSON(doc.Scenes)
	}
	for _, sc := range doc.Scenes {
		if _, err := fmt.Fprintf(e.stdout, "%-5s line %-5d %s\n", sc.Number, sc.Line+1, sc.Heading); err != nil {
			return err
		}
	}
	return nil
}

func (e *appEnv) characters(_ context.Context, cmd *cli.Command) error {
	doc, err := e.parse(cmd)
	if err != nil {
		return err
	}
	stats := script.SeedCharacters(doc.Characters, cmd.StringSlice("known"))
	if cmd.Bool("json") {
		return e.printJSON(stats)
	}
	for _, c := range stats {
		first := "-"
		if c.FirstAppearanceLine >= 0 {
			first = fmt.Sprint(c.FirstAppearanceLine + 1)
		}
		if _, err := fmt.Fprintf(e.stdout, "%-24s blocks %-4d words %-6d first line %s\n", c.Name, c.DialogueBlockCount, c.WordCount, first); err != nil {
			return err
		}
	}
	return nil
}

func (e *appEnv) report(_ context.Context, cmd *cli.Command) error {
	cfg, err := e.setup(cmd)
	if err != nil {
		return err
	}
	text, err := e.readScript(cmd.Args().First())
	if err != nil {
		return err
	}
	snap := export.TakeSnapshot(text)
	rep := report.Build(snap.Document(), report.Options{
		Title:           firstNonEmpty(cmd.String("title"), cfg.General.DefaultTitle),
		Author:          firstNonEmpty(cmd.String("author"), cfg.General.DefaultAuthor),
		Digest:          snap.Digest,
		GeneratedAt:     time.Now(),
		KnownCharacters: cmd.StringSlice("known"),
	})
	data, err := report.Marshal(rep)
	if err != nil {
		return err
	}
	if out := cmd.String("output"); out != "" {
		return os.WriteFile(out, data, 0o644)
	}
	_, err = e.stdout.Write(data)
	return err
}

func (e *appEnv) importFDX(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("import-fdx requires <file.fdx>")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	fdx, err := export.ImportFDX(f)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	text := fdx.Text()
	if cmd.Bool("scene-numbers") {
		text = fdx.TextWithSceneNumbers()
	}
	if out := cmd.String("output"); out != "" {
		return os.WriteFile(out, []byte(text), 0o644)
	}
	_, err = io.WriteString(e.stdout, text)
	return err
}

// exportSetup resolves params and batch options from flags over config.
func exportSetup(cmd *cli.Command, cfg config.AppConfig) (export.Params, export.BatchOptions, error) {
	p := export.Params{
		Title:     firstNonEmpty(cmd.String("title"), cfg.General.DefaultTitle),
		Author:    firstNonEmpty(cmd.String("author"), cfg.General.DefaultAuthor),
		DraftDate: time.Now(),
		TitlePage: cfg.Export.TitlePage,
	}
	fonts, err := loadFonts(cfg)
	if err != nil {
		return p, export.BatchOptions{}, err
	}
	p.Fonts = fonts

	opt := export.BatchOptions{
		Preset: export.PresetName(cmd.String("preset")),
		OutDir: firstNonEmpty(cmd.String("out"), cfg.Export.OutDir),
	}
	names := cmd.StringSlice("format")
	if len(names) == 0 && opt.Preset == "" {
		names = cfg.Export.Formats
	}
	for _, n := range names {
		f, err := export.ParseFormat(n)
		if err != nil {
			return p, opt, err
		}
		opt.Formats = append(opt.Formats, f)
	}
	if cmd.IsSet("title-page") {
		tp := cmd.Bool("title-page")
		opt.TitlePage = &tp
	}
	return p, opt, nil
}

func loadFonts(cfg config.AppConfig) (*textlayout.FontLibrary, error) {
	if cfg.Export.FontFile == "" {
		return nil, nil
	}
	lib := textlayout.NewFontLibrary()
	if err := lib.LoadTTF(export.FontFamily, false, cfg.Export.FontFile); err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}
	if cfg.Export.BoldFontFile != "" {
		if err := lib.LoadTTF(export.FontFamily, true, cfg.Export.BoldFontFile); err != nil {
			return nil, fmt.Errorf("load bold font: %w", err)
		}
	}
	return lib, nil
}

// openCache opens the export cache. Failures only disable caching.
func openCache(cfg config.AppConfig) *storage.Cache {
	dir := cfg.Export.CacheDir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil
		}
		dir = filepath.Join(base, "goscreenwriter")
	}
	c, err := storage.OpenCache(dir)
	if err != nil {
		applog.WithComponent("cli").Warn("export cache unavailable", slog.Any("err", err))
		return nil
	}
	return c
}

func recordExports(ctx context.Context, c *storage.Cache, digest string, arts []export.Artifact) {
	if c == nil {
		return
	}
	for _, a := range arts {
		if _, err := c.RecordExport(ctx, storage.ExportRecord{
			Digest:   digest,
			Format:   string(a.Format),
			Filename: a.Filename,
			Size:     int64(len(a.Data)),
		}); err != nil {
			applog.WithComponent("cli").Warn("record export failed", slog.Any("err", err))
		}
	}
}

func (e *appEnv) export(ctx context.Context, cmd *cli.Command) error {
	cfg, err := e.setup(cmd)
	if err != nil {
		return err
	}
	path := cmd.Args().First()
	text, err := e.readScript(path)
	if err != nil {
		return err
	}
	p, opt, err := exportSetup(cmd, cfg)
	if err != nil {
		return err
	}
	var cache *storage.Cache
	if !cmd.Bool("no-cache") {
		if cache = openCache(cfg); cache != nil {
			defer func() { _ = cache.Close() }()
			opt.Cache = cache
		}
	}
	if path != "" && path != "-" {
		ctx = applog.ContextWithScript(ctx, path)
	}
	snap := export.TakeSnapshot(text)
	arts, err := export.Batch(ctx, snap, opt, p)
	if err != nil {
		return err
	}
	paths, err := export.WriteArtifacts(opt.OutDir, arts)
	if err != nil {
		return err
	}
	recordExports(ctx, cache, snap.Digest, arts)
	for _, pth := range paths {
		if _, err := fmt.Fprintln(e.stdout, pth); err != nil {
			return err
		}
	}
	return nil
}

func (e *appEnv) watch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := e.setup(cmd)
	if err != nil {
		return err
	}
	path := cmd.Args().First()
	if path == "" || path == "-" {
		return errors.New("watch requires <script>")
	}
	p, opt, err := exportSetup(cmd, cfg)
	if err != nil {
		return err
	}
	var cache *storage.Cache
	if !cmd.Bool("no-cache") {
		if cache = openCache(cfg); cache != nil {
			defer func() { _ = cache.Close() }()
			opt.Cache = cache
		}
	}
	if data, err := os.ReadFile(path); err == nil {
		e.track(path, string(data))
	}
	runner := export.NewRunner(opt)
	return watch.Watch(ctx, path, watch.Options{
		Runner:  runner,
		Params:  p,
		Initial: true,
		OnResult: func(res export.Result) {
			if res.Err != nil {
				return
			}
			e.track(path, res.Snapshot.Text)
			recordExports(ctx, cache, res.Snapshot.Digest, res.Artifacts)
			_, _ = fmt.Fprintf(e.stdout, "%s exported %d file(s) to %s\n", time.Now().Format(time.TimeOnly), len(res.Artifacts), opt.OutDir)
		},
	})
}

func (e *appEnv) serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := e.setup(cmd)
	if err != nil {
		return err
	}
	fonts, err := loadFonts(cfg)
	if err != nil {
		return err
	}
	opts := server.Options{
		Defaults: export.Params{Title: cfg.General.DefaultTitle, Author: cfg.General.DefaultAuthor, TitlePage: cfg.Export.TitlePage},
		Fonts:    fonts,
	}
	if cache := openCache(cfg); cache != nil {
		defer func() { _ = cache.Close() }()
		opts.Cache = cache
	}
	return server.New(opts).Run(ctx, firstNonEmpty(cmd.String("addr"), cfg.Server.Addr))
}

func (e *appEnv) withCache(cmd *cli.Command, fn func(*storage.Cache) error) error {
	cfg, err := e.setup(cmd)
	if err != nil {
		return err
	}
	cache := openCache(cfg)
	if cache == nil {
		return errors.New("export cache unavailable")
	}
	defer func() { _ = cache.Close() }()
	return fn(cache)
}

func (e *appEnv) history(ctx context.Context, cmd *cli.Command) error {
	return e.withCache(cmd, func(c *storage.Cache) error {
		recs, err := c.RecentExports(ctx, int(cmd.Int("limit")))
		if err != nil {
			return err
		}
		for _, r := range recs {
			if _, err := fmt.Fprintf(e.stdout, "%s  %-8s %-32s %8d  %s\n", r.TS.Local().Format(time.DateTime), r.Format, r.Filename, r.Size, shortDigest(r.Digest)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *appEnv) cacheStats(ctx context.Context, cmd *cli.Command) error {
	return e.withCache(cmd, func(c *storage.Cache) error {
		n, size, err := c.Stats(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(e.stdout, "Path: %s\nEntries: %d\nSize: %d bytes\n", c.Path(), n, size)
		return err
	})
}

func (e *appEnv) cachePrune(ctx context.Context, cmd *cli.Command) error {
	return e.withCache(cmd, func(c *storage.Cache) error {
		n, err := c.Prune(ctx, int(cmd.Int("max-entries")), cmd.Duration("max-age"))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(e.stdout, "Removed %d entries\n", n)
		return err
	})
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
