// Package config loads prodrank settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/poiesic/prodrank/ai"
)

// APIKeyEnv overrides embedding.api_key when set.
const APIKeyEnv = "PRODRANK_EMBEDDING_API_KEY"

// ErrInvalidConfig indicates a setting is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds every prodrank setting.
type Config struct {
	DBPath    string          `toml:"db_path"`
	LogLevel  string          `toml:"log_level"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Cache     CacheConfig     `toml:"cache"`
	Ranking   RankingConfig   `toml:"ranking"`
	Training  TrainingConfig  `toml:"training"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Backend    string        `toml:"backend"`
	Host       string        `toml:"host"`
	Model      string        `toml:"model"`
	APIKey     string        `toml:"api_key"`
	Dimensions int           `toml:"dimensions"`
	Timeout    time.Duration `toml:"timeout"`
}

// CacheConfig sizes the embedding cache.
type CacheConfig struct {
	MaxEntries int64 `toml:"max_entries"`
	Unbounded  bool  `toml:"unbounded"`
	Persist    bool  `toml:"persist"`
}

// RankingConfig tunes BM25 and the embedding fan-out.
type RankingConfig struct {
	K1       float64 `toml:"k1"`
	B        float64 `toml:"b"`
	PoolSize int     `toml:"pool_size"`
}

// TrainingConfig holds the default training hyperparameters.
type TrainingConfig struct {
	LearningRate float64 `toml:"learning_rate"`
	Epochs       int     `toml:"epochs"`
}

// Default returns the built-in settings.
func Default() Config {
	aiCfg := ai.DefaultConfig()
	return Config{
		DBPath:   "prodrank-data",
		LogLevel: "info",
		Embedding: EmbeddingConfig{
			Backend: aiCfg.Backend,
			Host:    aiCfg.EmbeddingHost,
			Model:   aiCfg.EmbeddingModel,
			Timeout: aiCfg.Timeout,
		},
		Cache: CacheConfig{
			MaxEntries: 10000,
			Persist:    true,
		},
		Ranking: RankingConfig{
			K1:       1.5,
			B:        0.75,
			PoolSize: 16,
		},
		Training: TrainingConfig{
			LearningRate: 0.01,
			Epochs:       50,
		},
	}
}

// Load decodes the TOML file at path over Default. An empty path or a
// missing file yields the defaults. The API key environment variable is
// applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("config: load %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if v := os.Getenv(APIKeyEnv); v != "" {
		cfg.Embedding.APIKey = v
	}
	return cfg, nil
}

// Parse decodes TOML text over Default. Environment overrides are not applied.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: embedding: %w", ErrInvalidConfig, err)
	}
	if !c.Cache.Unbounded && c.Cache.MaxEntries < 1 {
		return fmt.Errorf("%w: cache.max_entries must be at least 1", ErrInvalidConfig)
	}
	if c.Ranking.K1 < 0 || math.IsNaN(c.Ranking.K1) || math.IsInf(c.Ranking.K1, 0) {
		return fmt.Errorf("%w: ranking.k1 must be a non-negative number", ErrInvalidConfig)
	}
	if c.Ranking.B < 0 || c.Ranking.B > 1 || math.IsNaN(c.Ranking.B) {
		return fmt.Errorf("%w: ranking.b must be in [0, 1]", ErrInvalidConfig)
	}
	if c.Ranking.PoolSize < 1 {
		return fmt.Errorf("%w: ranking.pool_size must be at least 1", ErrInvalidConfig)
	}
	if c.Training.LearningRate <= 0 || c.Training.LearningRate > 1 || math.IsNaN(c.Training.LearningRate) {
		return fmt.Errorf("%w: training.learning_rate must be in (0, 1]", ErrInvalidConfig)
	}
	if c.Training.Epochs < 1 {
		return fmt.Errorf("%w: training.epochs must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// AIConfig converts the embedding section into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithBackend(c.Embedding.Backend),
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
		ai.WithDimensions(c.Embedding.Dimensions),
		ai.WithTimeout(c.Embedding.Timeout),
	)
}
