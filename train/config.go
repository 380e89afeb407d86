package train

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"os"
)

// Config holds training hyperparameters.
type Config struct {
	Dims           int     `json:"dims"`            // embedding dimensionality (power of two)
	Window         int     `json:"window"`          // context half-window
	Negatives      int     `json:"negatives"`       // negative samples per position
	Alpha          float32 `json:"alpha"`           // learning rate
	Sample         float64 `json:"sample"`          // subsampling threshold
	BatchSentences int     `json:"batch_sentences"` // rows per token batch
	MaxPositions   int     `json:"max_positions"`   // position slots per sentence
	MinCount       int     `json:"min_count"`       // vocabulary frequency cutoff
	Seed           uint64  `json:"seed"`            // master seed for all randomness
	ProgressEvery  int64   `json:"progress_every"`  // words between progress reports
}

func DefaultConfig() Config {
	return Config{
		Dims:           128,
		Window:         5,
		Negatives:      5,
		Alpha:          0.01,
		Sample:         1e-8,
		BatchSentences: 10,
		MaxPositions:   64,
		MinCount:       5,
		Seed:           1,
		ProgressEvery:  10000,
	}
}

// LoadConfig reads a JSON config file layered over the defaults, so a
// file only needs the fields it changes.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Dims < 2 || bits.OnesCount(uint(c.Dims)) != 1 || c.Dims > 1024 {
		return fmt.Errorf("config: dims must be a power of two in [2,1024], got %d", c.Dims)
	}
	if c.Window < 1 {
		return fmt.Errorf("config: window must be >= 1, got %d", c.Window)
	}
	if c.Negatives < 0 {
		return fmt.Errorf("config: negatives must be >= 0, got %d", c.Negatives)
	}
	if c.Alpha <= 0 {
		return fmt.Errorf("config: alpha must be positive, got %g", c.Alpha)
	}
	if c.Sample < 0 {
		return fmt.Errorf("config: sample must be >= 0, got %g", c.Sample)
	}
	if c.BatchSentences < 1 {
		return fmt.Errorf("config: batch_sentences must be >= 1, got %d", c.BatchSentences)
	}
	if c.MaxPositions < 2 {
		return fmt.Errorf("config: max_positions must be >= 2, got %d", c.MaxPositions)
	}
	if c.MinCount < 1 {
		return fmt.Errorf("config: min_count must be >= 1, got %d", c.MinCount)
	}
	return nil
}
