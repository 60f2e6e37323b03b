package training

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/prodrank/core"
	"github.com/poiesic/prodrank/metrics"
	"github.com/poiesic/prodrank/storage"
)

// Dataset is the in-memory training example collection, mirrored to an
// ExampleRepository after every change. A nil repository keeps it in memory.
type Dataset struct {
	repo          storage.ExampleRepository
	retryAttempts int
	retryDelay    time.Duration
	logger        *slog.Logger

	mu       sync.RWMutex
	examples []core.TrainingExample
}

// DatasetOption configures a Dataset.
type DatasetOption func(*Dataset) error

// WithDatasetRetry sets the retry policy for persistence writes.
func WithDatasetRetry(attempts int, delay time.Duration) DatasetOption {
	return func(d *Dataset) error {
		if attempts < 1 {
			return fmt.Errorf("%w: got %d", storage.ErrInvalidMaxAttempts, attempts)
		}
		d.retryAttempts = attempts
		d.retryDelay = delay
		return nil
	}
}

// WithDatasetLogger sets a custom logger.
// Default is slog.Default().
func WithDatasetLogger(logger *slog.Logger) DatasetOption {
	return func(d *Dataset) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// NewDataset creates an empty dataset. Call Load to read persisted examples.
func NewDataset(repo storage.ExampleRepository, opts ...DatasetOption) (*Dataset, error) {
	d := &Dataset{
		repo:          repo,
		retryAttempts: storage.DefaultRetryAttempts,
		retryDelay:    storage.DefaultRetryDelay,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.logger = d.logger.With("component", "training-dataset")
	return d, nil
}

// Load replaces the in-memory set with the persisted examples. Read
// failures and corrupt records leave an empty set. Returns the number of
// examples loaded.
func (d *Dataset) Load(ctx context.Context) int {
	var loaded []core.TrainingExample
	if d.repo != nil {
		examples, err := d.repo.LoadExamples(ctx)
		if err != nil {
			metrics.PersistenceFailuresTotal.WithLabelValues("examples", "load").Inc()
			d.logger.Warn("could not load training examples, starting empty", "err", err)
		} else {
			loaded = examples
		}
	}

	d.mu.Lock()
	d.examples = loaded
	d.mu.Unlock()
	return len(loaded)
}

// Examples returns a copy of the examples in insertion order.
func (d *Dataset) Examples() []core.TrainingExample {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return cloneExamples(d.examples)
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.examples)
}

// Add validates ex and appends it. When products is non-nil, ex.ProductID
// must name one of them or core.ErrUnknownProduct is returned.
func (d *Dataset) Add(ctx context.Context, ex core.TrainingExample, products []core.Product) error {
	if err := core.ValidateTrainingExample(&ex); err != nil {
		return err
	}
	if products != nil && !slices.ContainsFunc(products, func(p core.Product) bool { return p.ID == ex.ProductID }) {
		return fmt.Errorf("%w: %d", core.ErrUnknownProduct, ex.ProductID)
	}

	d.mu.Lock()
	d.examples = append(d.examples, cloneExample(ex))
	snapshot := cloneExamples(d.examples)
	d.mu.Unlock()

	return d.persist(ctx, snapshot)
}

// Remove deletes the example at idx.
func (d *Dataset) Remove(ctx context.Context, idx int) error {
	d.mu.Lock()
	if idx < 0 || idx >= len(d.examples) {
		n := len(d.examples)
		d.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, idx, n)
	}
	d.examples = slices.Delete(d.examples, idx, idx+1)
	snapshot := cloneExamples(d.examples)
	d.mu.Unlock()

	return d.persist(ctx, snapshot)
}

// Replace swaps in a whole new collection after validating every example.
// On a validation error the dataset is unchanged.
func (d *Dataset) Replace(ctx context.Context, examples []core.TrainingExample) error {
	for i := range examples {
		if err := core.ValidateTrainingExample(&examples[i]); err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
	}

	d.mu.Lock()
	d.examples = cloneExamples(examples)
	snapshot := cloneExamples(d.examples)
	d.mu.Unlock()

	return d.persist(ctx, snapshot)
}

// Export serializes the current examples as a JSON array.
func (d *Dataset) Export() ([]byte, error) {
	return ExportExamples(d.Examples())
}

// Import parses data and replaces the collection with it. Malformed input
// returns core.ErrInvalidTrainingData and leaves the dataset unchanged.
func (d *Dataset) Import(ctx context.Context, data []byte) (int, error) {
	examples, err := ImportExamples(data)
	if err != nil {
		return 0, err
	}
	if err := d.Replace(ctx, examples); err != nil {
		return 0, err
	}
	return len(examples), nil
}

func (d *Dataset) persist(ctx context.Context, snapshot []core.TrainingExample) error {
	if d.repo == nil {
		return nil
	}
	err := storage.RetryWithBackoff(ctx, func() error {
		return d.repo.SaveExamples(ctx, snapshot)
	}, d.retryAttempts, d.retryDelay)
	if err != nil {
		metrics.PersistenceFailuresTotal.WithLabelValues("examples", "save").Inc()
		d.logger.Warn("could not persist training examples", "count", len(snapshot), "err", err)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}

// ExportExamples serializes examples as an indented JSON array. A nil slice
// exports as [].
func ExportExamples(examples []core.TrainingExample) ([]byte, error) {
	if examples == nil {
		examples = []core.TrainingExample{}
	}
	return json.MarshalIndent(examples, "", "  ")
}

// exampleRecord mirrors core.TrainingExample with pointers so missing
// required fields can be told apart from zero values.
type exampleRecord struct {
	Query         *string `json:"query"`
	ProductID     *int64  `json:"productId"`
	IsRelevant    *bool   `json:"isRelevant"`
	ClickPosition *int    `json:"clickPosition,omitempty"`
}

// ImportExamples parses a JSON array of examples. Every element must carry
// query, productId and isRelevant, and pass core.ValidateTrainingExample.
// Any other input is rejected with core.ErrInvalidTrainingData.
func ImportExamples(data []byte) ([]core.TrainingExample, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var records []exampleRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidTrainingData, err)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", core.ErrInvalidTrainingData)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after array", core.ErrInvalidTrainingData)
	}

	examples := make([]core.TrainingExample, len(records))
	for i, r := range records {
		if r.Query == nil || r.ProductID == nil || r.IsRelevant == nil {
			return nil, fmt.Errorf("%w: example %d is missing a required field", core.ErrInvalidTrainingData, i)
		}
		examples[i] = core.TrainingExample{
			Query:         *r.Query,
			ProductID:     *r.ProductID,
			IsRelevant:    *r.IsRelevant,
			ClickPosition: r.ClickPosition,
		}
		if err := core.ValidateTrainingExample(&examples[i]); err != nil {
			return nil, fmt.Errorf("%w: example %d: %w", core.ErrInvalidTrainingData, i, err)
		}
	}
	return examples, nil
}

func cloneExample(ex core.TrainingExample) core.TrainingExample {
	if ex.ClickPosition != nil {
		pos := *ex.ClickPosition
		ex.ClickPosition = &pos
	}
	return ex
}

func cloneExamples(examples []core.TrainingExample) []core.TrainingExample {
	if examples == nil {
		return nil
	}
	out := make([]core.TrainingExample, len(examples))
	for i := range examples {
		out[i] = cloneExample(examples[i])
	}
	return out
}
