package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/prodrank"
	"github.com/poiesic/prodrank/ai"
	"github.com/poiesic/prodrank/catalog"
	"github.com/poiesic/prodrank/config"
	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/scoring"
	"github.com/urfave/cli/v2"
)

// loadConfig reads --config and applies the command line overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}
	if c.Bool("offline") {
		cfg.Embedding.Backend = ai.BackendDisabled
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func openEngine(c *cli.Context) (*prodrank.Engine, config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, cfg, err
	}

	opts := []prodrank.EngineOption{
		prodrank.WithAIConfig(cfg.AIConfig()),
		prodrank.WithPoolSize(cfg.Ranking.PoolSize),
		prodrank.WithBM25Params(scoring.BM25Params{K1: cfg.Ranking.K1, B: cfg.Ranking.B}),
		prodrank.WithCacheSize(cfg.Cache.MaxEntries),
		prodrank.WithPersistentEmbeddings(cfg.Cache.Persist),
		prodrank.WithTrainingProgress(c.App.ErrWriter),
		prodrank.WithLogger(slog.Default()),
	}
	if cfg.Cache.Unbounded {
		opts = append(opts, prodrank.WithUnboundedCache())
	}
	if c.Bool("in-memory") {
		opts = append(opts, prodrank.WithInMemory())
	}

	slog.Debug("opening engine", "db", cfg.DBPath, "backend", cfg.Embedding.Backend, "inMemory", c.Bool("in-memory"))
	engine, err := prodrank.NewEngine(cfg.DBPath, opts...)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, cfg, nil
}

func rankCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("a query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	products, err := catalog.Load(c.String("catalog"))
	if err != nil {
		return err
	}

	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ranked, err := engine.Score(c.Context, query, products)
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}
	if limit := c.Int("limit"); limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%-3s %-5s %-34s %9s %8s %8s %9s %8s %8s\n",
		"#", "ID", "NAME", "FINAL", "EXACT", "BM25", "SEMANTIC", "POP", "RULES")
	for i, rp := range ranked {
		s := rp.Score
		fmt.Fprintf(w, "%-3d %-5d %-34s %9.3f %8.3f %8.3f %9.3f %8.3f %8.3f\n",
			i+1, rp.Product.ID, truncate(rp.Product.Name, 34),
			s.Final, s.ExactMatch, s.BM25, s.Semantic, s.Popularity, s.BusinessRules)
	}
	return nil
}

func trainCommand(c *cli.Context) error {
	products, err := catalog.Load(c.String("catalog"))
	if err != nil {
		return err
	}

	engine, cfg, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	learningRate := cfg.Training.LearningRate
	if c.IsSet("learning-rate") {
		learningRate = c.Float64("learning-rate")
	}
	epochs := cfg.Training.Epochs
	if c.IsSet("epochs") {
		epochs = c.Int("epochs")
	}

	slog.Info("training", "examples", engine.Dataset().Len(), "products", len(products),
		"learningRate", learningRate, "epochs", epochs)
	report, err := engine.TrainDataset(c.Context, products, learningRate, epochs)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Trained on %d examples (%d skipped) for %d epochs in %s\n",
		report.ExamplesUsed, report.SkippedUnknown, report.Epochs, report.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Loss: %.6f -> %.6f\n", report.InitialLoss, report.FinalLoss)
	printWeights(w, report.Weights)
	if report.PersistFailed {
		fmt.Fprintln(c.App.ErrWriter, "warning: weights are in effect for this run but could not be saved")
	}
	return nil
}

func weightsShowCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	printWeights(c.App.Writer, engine.Weights())
	return nil
}

func weightsSetCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	w := engine.Weights()
	for name, field := range map[string]*float64{
		"exact-match": &w.ExactMatchWeight,
		"bm25":        &w.BM25Weight,
		"semantic":    &w.SemanticWeight,
		"popularity":  &w.PopularityWeight,
		"recency":     &w.RecencyWeight,
	} {
		if c.IsSet(name) {
			*field = c.Float64(name)
		}
	}

	applied, err := engine.SetWeights(c.Context, w)
	if err != nil {
		return err
	}
	printWeights(c.App.Writer, applied)
	return nil
}

func weightsResetCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.ResetWeights(c.Context); err != nil {
		return err
	}
	printWeights(c.App.Writer, engine.Weights())
	return nil
}

func examplesListCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	w := c.App.Writer
	examples := engine.Dataset().Examples()
	if len(examples) == 0 {
		fmt.Fprintln(w, "No training examples")
		return nil
	}
	for i, ex := range examples {
		fmt.Fprintf(w, "%d\t%q\tproduct=%d\trelevant=%t", i, ex.Query, ex.ProductID, ex.IsRelevant)
		if ex.ClickPosition != nil {
			fmt.Fprintf(w, "\tclick=%d", *ex.ClickPosition)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func examplesAddCommand(c *cli.Context) error {
	products, err := catalog.Load(c.String("catalog"))
	if err != nil {
		return err
	}

	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ex := core.TrainingExample{
		Query:      c.String("query"),
		ProductID:  c.Int64("product"),
		IsRelevant: c.Bool("relevant"),
	}
	if pos := c.Int("click-position"); pos >= 0 {
		ex.ClickPosition = &pos
	}

	if err := engine.Dataset().Add(c.Context, ex, products); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Added example %d\n", engine.Dataset().Len()-1)
	return nil
}

func examplesRemoveCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one example index is required")
	}
	idx, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", c.Args().First(), err)
	}

	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Dataset().Remove(c.Context, idx); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Removed example %d\n", idx)
	return nil
}

func examplesExportCommand(c *cli.Context) error {
	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	data, err := engine.Dataset().Export()
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if output := c.String("output"); output != "" {
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		slog.Info("exported training examples", "count", engine.Dataset().Len(), "path", output)
		return nil
	}
	_, err = c.App.Writer.Write(data)
	return err
}

func examplesImportCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("exactly one input file is required")
	}
	path := c.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	n, err := engine.Dataset().Import(c.Context, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Imported %d examples\n", n)
	return nil
}

func warmCommand(c *cli.Context) error {
	products, err := catalog.Load(c.String("catalog"))
	if err != nil {
		return err
	}

	engine, _, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	n, err := engine.WarmCache(c.Context, products)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Cached %d new embeddings for %d products\n", n, len(products))
	return nil
}

func printWeights(w io.Writer, weights core.ModelWeights) {
	fmt.Fprintf(w, "exact-match  %.4f\n", weights.ExactMatchWeight)
	fmt.Fprintf(w, "bm25         %.4f\n", weights.BM25Weight)
	fmt.Fprintf(w, "semantic     %.4f\n", weights.SemanticWeight)
	fmt.Fprintf(w, "popularity   %.4f\n", weights.PopularityWeight)
	fmt.Fprintf(w, "recency      %.4f\n", weights.RecencyWeight)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
