package training

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/metrics"
	"github.com/poiesic/prodrank/scoring"
)

// WeightStore is the weight holder the trainer reads from and saves to.
// weights.Store implements it.
type WeightStore interface {
	Current() core.ModelWeights
	Save(ctx context.Context, w core.ModelWeights) error
}

// Report summarizes a training run.
type Report struct {
	Weights        core.ModelWeights
	Initial        core.ModelWeights
	Epochs         int
	ExamplesUsed   int
	SkippedUnknown int
	InitialLoss    float64
	FinalLoss      float64
	Elapsed        time.Duration
	PersistFailed  bool
}

// Trainer fits model weights to training examples.
type Trainer struct {
	extractor *scoring.Extractor
	store     WeightStore
	progress  io.Writer
	logger    *slog.Logger
}

// Option configures a Trainer.
type Option func(*Trainer) error

// WithProgress writes per-epoch progress to w.
// Default is no progress output.
func WithProgress(w io.Writer) Option {
	return func(t *Trainer) error {
		t.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trainer) error {
		if logger == nil {
			logger = slog.Default()
		}
		t.logger = logger
		return nil
	}
}

// NewTrainer creates a trainer that starts every run from store's current
// weights and saves the result back to it.
func NewTrainer(extractor *scoring.Extractor, store WeightStore, opts ...Option) (*Trainer, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if store == nil {
		return nil, ErrWeightStoreRequired
	}

	t := &Trainer{
		extractor: extractor,
		store:     store,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	t.logger = t.logger.With("component", "trainer")
	return t, nil
}

// Train runs TrainWithReport and returns only the trained weights.
func (t *Trainer) Train(ctx context.Context, examples []core.TrainingExample, products []core.Product, learningRate float64, epochs int) (core.ModelWeights, error) {
	report, err := t.TrainWithReport(ctx, examples, products, learningRate, epochs)
	if err != nil {
		return core.ModelWeights{}, err
	}
	return report.Weights, nil
}

// TrainWithReport fits the weights to examples over epochs passes.
//
// Examples whose ProductID is not among products are skipped. The result is
// saved once at the end; a failed save is logged and flagged in the report
// but does not fail the run. On error nothing is saved.
func (t *Trainer) TrainWithReport(ctx context.Context, examples []core.TrainingExample, products []core.Product, learningRate float64, epochs int) (*Report, error) {
	report, err := t.train(ctx, examples, products, learningRate, epochs)
	if err != nil {
		metrics.TrainingRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.TrainingRunsTotal.WithLabelValues("success").Inc()
	return report, nil
}

func (t *Trainer) train(ctx context.Context, examples []core.TrainingExample, products []core.Product, learningRate float64, epochs int) (*Report, error) {
	if len(examples) == 0 || len(products) == 0 {
		return nil, ErrNoTrainingData
	}
	if math.IsNaN(learningRate) || learningRate <= 0 || learningRate > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLearningRate, learningRate)
	}
	if epochs < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidEpochs, epochs)
	}

	start := time.Now()
	byID := make(map[int64]*core.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	pairs := make([]scoring.Pair, 0, len(examples))
	targets := make([]float64, 0, len(examples))
	skipped := 0
	for i := range examples {
		p, ok := byID[examples[i].ProductID]
		if !ok {
			skipped++
			continue
		}
		pairs = append(pairs, scoring.Pair{Query: examples[i].Query, Product: *p})
		targets = append(targets, examples[i].Target())
	}
	if skipped > 0 {
		metrics.TrainingSkippedExamplesTotal.Add(float64(skipped))
		t.logger.Debug("skipping examples with unknown products", "skipped", skipped)
	}

	features, err := t.extractor.ExtractPairs(ctx, pairs, scoring.AverageDocLength(products))
	if err != nil {
		return nil, err
	}

	initial := t.store.Current()
	w := initial
	report := &Report{
		Initial:        initial,
		Epochs:         epochs,
		ExamplesUsed:   len(pairs),
		SkippedUnknown: skipped,
		InitialLoss:    MeanLoss(initial, features, targets),
	}

	var tracker *ProgressTracker
	if t.progress != nil {
		tracker = NewProgressTracker(t.progress, epochs)
		tracker.Start()
	}

	for epoch := 1; epoch <= epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range features {
			w = Step(w, features[i], targets[i], learningRate)
		}
		if !finite(w) {
			return nil, fmt.Errorf("%w: epoch %d with learning rate %v", ErrDiverged, epoch, learningRate)
		}

		loss := MeanLoss(w, features, targets)
		t.logger.Debug("epoch complete", "epoch", epoch, "loss", loss)
		if tracker != nil {
			tracker.Update(epoch, loss)
		}
	}
	if tracker != nil {
		tracker.Finish()
	}

	report.Weights = w
	report.FinalLoss = MeanLoss(w, features, targets)
	report.Elapsed = time.Since(start)
	metrics.TrainingLoss.Set(report.FinalLoss)

	if err := t.store.Save(ctx, w); err != nil {
		report.PersistFailed = true
		t.logger.Warn("trained weights not persisted", "err", err)
	}

	t.logger.Info("training complete",
		"epochs", epochs,
		"examples", report.ExamplesUsed,
		"skipped", skipped,
		"initialLoss", report.InitialLoss,
		"finalLoss", report.FinalLoss,
		"elapsed", report.Elapsed,
	)
	return report, nil
}
