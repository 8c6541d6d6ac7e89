package darkroom

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds renderer configuration. The zero value is not usable;
// start from DefaultConfig or load one with LoadConfig.
//
// Example YAML:
//
//	backend: software
//	tile_size: 512
//	cache_budget_mb: 512
//	workers: 0            # 0 = GOMAXPROCS
//	fast_preview_edge: 1280
type Config struct {
	// Backend selects the execution backend by name ("software", "wgpu").
	// Empty selects the best available backend.
	Backend string `yaml:"backend"`

	// TileSize is the core tile edge length in pixels.
	TileSize int `yaml:"tile_size"`

	// CacheBudgetMB is the result cache memory budget in mebibytes.
	CacheBudgetMB int `yaml:"cache_budget_mb"`

	// Workers is the number of tile workers. 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`

	// FastPreviewEdge is the long-edge size of the low-resolution fast-path
	// proxy render. 0 disables the fast path.
	FastPreviewEdge int `yaml:"fast_preview_edge"`

	// HistoryCoalesceMS is the coalescing window for rapid edits to the
	// same parameter, in milliseconds.
	HistoryCoalesceMS int `yaml:"history_coalesce_ms"`
}

// DefaultConfig returns the default renderer configuration.
func DefaultConfig() Config {
	return Config{
		Backend:           "",
		TileSize:          512,
		CacheBudgetMB:     512,
		Workers:           0,
		FastPreviewEdge:   1280,
		HistoryCoalesceMS: 400,
	}
}

// LoadConfig reads a YAML configuration file, filling unset fields from
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	if c.TileSize < 64 || c.TileSize > 8192 {
		return fmt.Errorf("config: tile_size %d out of range [64, 8192]", c.TileSize)
	}
	if c.CacheBudgetMB < 0 {
		return fmt.Errorf("config: cache_budget_mb %d must be >= 0", c.CacheBudgetMB)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers %d must be >= 0", c.Workers)
	}
	if c.FastPreviewEdge < 0 {
		return fmt.Errorf("config: fast_preview_edge %d must be >= 0", c.FastPreviewEdge)
	}
	if c.HistoryCoalesceMS < 0 {
		return fmt.Errorf("config: history_coalesce_ms %d must be >= 0", c.HistoryCoalesceMS)
	}
	return nil
}
