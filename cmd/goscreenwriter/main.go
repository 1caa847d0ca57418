/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"goscreenwriter/internal/crash"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/version"
)

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	target := &crash.Target{}
	defer crash.Recover(target)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stdin, target).Run(ctx, os.Args); err != nil {
		applog.WithComponent("cli").Error("command failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// newApp builds the command tree. stdout and stdin are injected for tests.
// Scripts read by commands are registered on target so a crash autosaves
// them; target may be nil.
func newApp(stdout io.Writer, stdin io.Reader, target *crash.Target) *cli.Command {
	env := &appEnv{stdout: stdout, stdin: stdin, crash: target}
	return &cli.Command{
		Name:    "goscreenwriter",
		Usage:   "Classify, analyse and export screenplays",
		Version: version.String(),
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: per-user config.yaml)",
				Sources: cli.EnvVars("GSW_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "classify",
				Usage:     "Print the element kind of every line",
				ArgsUsage: "<script|->",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Emit JSON"}},
				Action:    env.classify,
			},
			{
				Name:      "stats",
				Usage:     "Print word count, page estimate and dialogue share",
				ArgsUsage: "<script|->",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Emit JSON"}},
				Action:    env.stats,
			},
			{
				Name:      "scenes",
				Usage:     "List scenes",
				ArgsUsage: "<script|->",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Emit JSON"}},
				Action:    env.scenes,
			},
			{
				Name:      "characters",
				Usage:     "List characters with dialogue block and word counts",
				ArgsUsage: "<script|->",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Emit JSON"},
					&cli.StringSliceFlag{Name: "known", Usage: "Externally known character name (repeatable)"},
				},
				Action: env.characters,
			},
			{
				Name:      "report",
				Usage:     "Write the JSON outline report",
				ArgsUsage: "<script|->",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Script title"},
					&cli.StringFlag{Name: "author", Usage: "Author"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file (default: stdout)"},
					&cli.StringSliceFlag{Name: "known", Usage: "Externally known character name (repeatable)"},
				},
				Action: env.report,
			},
			{
				Name:      "export",
				Usage:     "Export to Fountain, FDX and/or PDF",
				ArgsUsage: "<script|->",
				Flags:     exportFlags(),
				Action:    env.export,
			},
			{
				Name:      "import-fdx",
				Usage:     "Convert a Final Draft file to plain text",
				ArgsUsage: "<file.fdx>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file (default: stdout)"},
					&cli.BoolFlag{Name: "scene-numbers", Usage: "Prefix headings with their FDX scene numbers"},
				},
				Action: env.importFDX,
			},
			{
				Name:      "watch",
				Usage:     "Re-export whenever the script changes",
				ArgsUsage: "<script>",
				Flags:     exportFlags(),
				Action:    env.watch,
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "addr", Usage: "Listen address (default from config)"}},
				Action: env.serve,
			},
			{
				Name:   "history",
				Usage:  "Show recent exports",
				Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Value: 20, Usage: "Number of entries"}},
				Action: env.history,
			},
			{
				Name:  "cache",
				Usage: "Inspect or prune the export cache",
				Commands: []*cli.Command{
					{Name: "stats", Usage: "Show cache size", Action: env.cacheStats},
					{
						Name:  "prune",
						Usage: "Drop old cache entries",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "max-entries", Value: 500, Usage: "Entries to keep (0 = unlimited)"},
							&cli.DurationFlag{Name: "max-age", Value: 0, Usage: "Drop entries not used for this long (0 = never)"},
						},
						Action: env.cachePrune,
					},
				},
			},
			{
				Name:  "version",
				Usage: "Show version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintf(env.stdout, "goscreenwriter %s\n", version.String())
					return err
				},
			},
		},
	}
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "format", Aliases: []string{"f"}, Usage: "fountain, fdx or pdf (repeatable; default from preset or config)"},
		&cli.StringFlag{Name: "preset", Usage: "draft, interchange, submission or all"},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output directory (default from config)"},
		&cli.StringFlag{Name: "title", Usage: "Script title"},
		&cli.StringFlag{Name: "author", Usage: "Author"},
		&cli.BoolFlag{Name: "title-page", Usage: "Add a PDF title page"},
		&cli.BoolFlag{Name: "no-cache", Usage: "Do not use the export cache"},
	}
}
