package model

import "time"

// Config holds the ambient runtime configuration. Clustering and
// similarity constants are deliberately absent: they are fixed in code so
// that identical inputs always reduce identically.
type Config struct {
	Registry  RegistryConfig  `yaml:"registry" json:"registry"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	Batch     BatchConfig     `yaml:"batch" json:"batch"`
	Log       LogConfig       `yaml:"log" json:"log"`
	Output    OutputConfig    `yaml:"output" json:"output"`
}

// RegistryConfig selects and locates the semantic constant store.
type RegistryConfig struct {
	Backend string `yaml:"backend" json:"backend"` // file or sqlite
	Path    string `yaml:"path" json:"path"`
}

// CacheConfig controls the layered reduction-result cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// EmbeddingConfig configures the optional embedding similarity signal.
// An empty provider disables it; reduction then uses token overlap only.
type EmbeddingConfig struct {
	Provider          string  `yaml:"provider" json:"provider"`
	Model             string  `yaml:"model" json:"model"`
	APIKey            string  `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	BaseURL           string  `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// BatchConfig controls concurrent batch reduction.
type BatchConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text or json
}

// OutputConfig controls human-facing rendering defaults.
type OutputConfig struct {
	Verbose          bool `yaml:"verbose" json:"verbose"`
	IncludeCollapsed bool `yaml:"include_collapsed" json:"include_collapsed"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			Backend: "file",
			Path:    "", // resolved to ~/.sensefold/registry.json by the CLI
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // resolved to ~/.sensefold/cache by the CLI
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Embedding: EmbeddingConfig{
			Provider:          "",
			Model:             "text-embedding-3-small",
			RequestsPerSecond: 2,
			Burst:             4,
			TimeoutSeconds:    30,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Verbose:          false,
			IncludeCollapsed: false,
		},
	}
}
