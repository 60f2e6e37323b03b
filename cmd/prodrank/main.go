// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/prodrank/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "prodrank",
		Usage: "Hybrid product search ranking with learned weights",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML config file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides db_path)",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Disable embeddings and rank on text and business signals only",
			},
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "Keep all state in memory for this run",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "rank",
				Usage:     "Rank the catalog for a query and print each score breakdown",
				ArgsUsage: "QUERY",
				Action:    rankCommand,
				Flags: []cli.Flag{
					catalogFlag(),
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Show at most N results (0 shows all)",
					},
				},
			},
			{
				Name:   "train",
				Usage:  "Fit the weights to the stored training examples",
				Action: trainCommand,
				Flags: []cli.Flag{
					catalogFlag(),
					&cli.Float64Flag{
						Name:  "learning-rate",
						Usage: "Gradient descent step size (defaults to training.learning_rate)",
					},
					&cli.IntFlag{
						Name:  "epochs",
						Usage: "Passes over the examples (defaults to training.epochs)",
					},
				},
			},
			{
				Name:  "weights",
				Usage: "Inspect or change the model weights",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the current weights",
						Action: weightsShowCommand,
					},
					{
						Name:   "set",
						Usage:  "Replace individual weights; unset flags keep their current value",
						Action: weightsSetCommand,
						Flags: []cli.Flag{
							&cli.Float64Flag{Name: "exact-match", Usage: "Exact match weight"},
							&cli.Float64Flag{Name: "bm25", Usage: "BM25 weight"},
							&cli.Float64Flag{Name: "semantic", Usage: "Semantic similarity weight"},
							&cli.Float64Flag{Name: "popularity", Usage: "Popularity weight"},
							&cli.Float64Flag{Name: "recency", Usage: "Business rule weight"},
						},
					},
					{
						Name:   "reset",
						Usage:  "Restore the default weights",
						Action: weightsResetCommand,
					},
				},
			},
			{
				Name:  "examples",
				Usage: "Manage labelled training examples",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List stored examples with their index",
						Action: examplesListCommand,
					},
					{
						Name:   "add",
						Usage:  "Label a product as relevant or not for a query",
						Action: examplesAddCommand,
						Flags: []cli.Flag{
							catalogFlag(),
							&cli.StringFlag{
								Name:     "query",
								Aliases:  []string{"q"},
								Usage:    "Search query",
								Required: true,
							},
							&cli.Int64Flag{
								Name:     "product",
								Aliases:  []string{"p"},
								Usage:    "Product ID",
								Required: true,
							},
							&cli.BoolFlag{
								Name:  "relevant",
								Usage: "Mark the product as relevant",
							},
							&cli.IntFlag{
								Name:  "click-position",
								Usage: "Zero-based result position the product was clicked at",
								Value: -1,
							},
						},
					},
					{
						Name:      "remove",
						Usage:     "Remove the example at INDEX",
						ArgsUsage: "INDEX",
						Action:    examplesRemoveCommand,
					},
					{
						Name:   "export",
						Usage:  "Write examples as a JSON array",
						Action: examplesExportCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "output",
								Aliases: []string{"o"},
								Usage:   "Output file (defaults to stdout)",
							},
						},
					},
					{
						Name:      "import",
						Usage:     "Replace all examples with the JSON array in FILE",
						ArgsUsage: "FILE",
						Action:    examplesImportCommand,
					},
				},
			},
			{
				Name:   "warm",
				Usage:  "Embed every catalog product ahead of ranking",
				Action: warmCommand,
				Flags:  []cli.Flag{catalogFlag()},
			},
		},
	}
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "catalog",
		Usage: "Path to a JSON product catalog (defaults to the built-in sample)",
	}
}

// setupLogger configures the global slog logger from --log-level, falling
// back to log_level in the config file when the flag is not given.
func setupLogger(c *cli.Context) error {
	levelStr := c.String("log-level")
	if !c.IsSet("log-level") && c.String("config") != "" {
		if cfg, err := config.Load(c.String("config")); err == nil {
			levelStr = cfg.LogLevel
		}
	}
	levelStr = strings.ToLower(levelStr)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
