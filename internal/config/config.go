package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the gamedex configuration.
type Config struct {
	Catalog    CatalogConfig    `yaml:"catalog"`
	Registry   RegistryConfig   `yaml:"registry"`
	Index      IndexConfig      `yaml:"index"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Search     SearchConfig     `yaml:"search"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Retry      RetryConfig      `yaml:"retry"`
	Ops        OpsConfig        `yaml:"ops"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// CatalogConfig holds the SQLite catalog store settings.
type CatalogConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RegistryConfig holds the Redis index registry settings.
type RegistryConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	RetiredTTLHours  int      `yaml:"retired_ttl_hours"`
}

// IndexConfig holds IVF and artifact settings.
type IndexConfig struct {
	ArtifactDir       string `yaml:"artifact_dir"`
	Clusters          int    `yaml:"clusters"`
	NProbe            int    `yaml:"nprobe"`
	TrainIterations   int    `yaml:"train_iterations"`
	Seed              uint64 `yaml:"seed"`
	ReloadIntervalSec int    `yaml:"reload_interval_sec"` // 0 disables the watcher
}

// VocabularyConfig selects the vocabulary set. An empty file means the built-in set.
// A non-empty name must match the loaded set's name.
type VocabularyConfig struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// VectorizerConfig holds the tunable block weights.
type VectorizerConfig struct {
	QualityWeight         float32 `yaml:"quality_weight"`
	PrimaryCategoryWeight float32 `yaml:"primary_category_weight"`
}

// SearchConfig holds title search defaults.
type SearchConfig struct {
	MaxPerTokenDistance int `yaml:"max_per_token_distance"`
	Limit               int `yaml:"limit"`
}

// RecommendConfig holds recommendation settings.
type RecommendConfig struct {
	NeighborsPerSeed   int      `yaml:"neighbors_per_seed"`
	MinReviewRating    *float64 `yaml:"min_review_rating"` // nil means 7; 0 is a valid threshold
	MinQuality         *float64 `yaml:"min_quality"`       // nil means 70; 0 is a valid threshold
	SimilarPerSeed     int      `yaml:"similar_per_seed"`  // negative disables the title lookup
	SimilarMaxDistance int      `yaml:"similar_max_distance"`
	MaxConcurrency     int      `yaml:"max_concurrency"`
	ExcludeSeen        bool     `yaml:"exclude_seen"`
}

// RetryConfig bounds retries against the catalog store.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	DelayMs     int `yaml:"delay_ms"`
}

// Delay returns the fixed backoff.
func (r RetryConfig) Delay() time.Duration {
	return time.Duration(r.DelayMs) * time.Millisecond
}

// OpsConfig holds the health and metrics listener settings.
type OpsConfig struct {
	Port        int `yaml:"port"`
	ShutdownSec int `yaml:"shutdown_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Catalog.DSN == "" {
		c.Catalog.DSN = "file:gamedex.db?_busy_timeout=5000&_journal_mode=WAL"
	}
	if c.Catalog.MaxOpenConns <= 0 {
		c.Catalog.MaxOpenConns = 4
	}
	if c.Registry.ReadinessTimeout <= 0 {
		c.Registry.ReadinessTimeout = 10
	}
	if c.Registry.KeyPrefix == "" {
		c.Registry.KeyPrefix = "gamedex:"
	}
	if c.Registry.RetiredTTLHours <= 0 {
		c.Registry.RetiredTTLHours = 24
	}
	if c.Index.ArtifactDir == "" {
		c.Index.ArtifactDir = "data/index"
	}
	if c.Index.Clusters <= 0 {
		c.Index.Clusters = 256
	}
	if c.Index.NProbe <= 0 {
		c.Index.NProbe = 8
	}
	if c.Index.TrainIterations <= 0 {
		c.Index.TrainIterations = 20
	}
	if c.Index.Seed == 0 {
		c.Index.Seed = 1
	}
	if c.Index.ReloadIntervalSec < 0 {
		c.Index.ReloadIntervalSec = 0
	}
	if c.Vectorizer.QualityWeight <= 0 {
		c.Vectorizer.QualityWeight = 0.008
	}
	if c.Vectorizer.PrimaryCategoryWeight <= 0 {
		c.Vectorizer.PrimaryCategoryWeight = 0.1
	}
	if c.Search.MaxPerTokenDistance <= 0 {
		c.Search.MaxPerTokenDistance = 40
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 10
	}
	if c.Recommend.NeighborsPerSeed <= 0 {
		c.Recommend.NeighborsPerSeed = 10
	}
	if c.Recommend.MinReviewRating == nil {
		c.Recommend.MinReviewRating = ptr(7.0)
	}
	if c.Recommend.MinQuality == nil {
		c.Recommend.MinQuality = ptr(70.0)
	}
	if c.Recommend.SimilarPerSeed == 0 {
		c.Recommend.SimilarPerSeed = 5
	}
	if c.Recommend.SimilarMaxDistance <= 0 {
		c.Recommend.SimilarMaxDistance = c.Search.MaxPerTokenDistance
	}
	if c.Recommend.MaxConcurrency <= 0 {
		c.Recommend.MaxConcurrency = 8
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.DelayMs <= 0 {
		c.Retry.DelayMs = 200
	}
	if c.Ops.Port == 0 {
		c.Ops.Port = 9090
	}
	if c.Ops.ShutdownSec <= 0 {
		c.Ops.ShutdownSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Ops.Port <= 0 || c.Ops.Port > 65535 {
		return fmt.Errorf("ops.port must be between 1 and 65535, got %d", c.Ops.Port)
	}
	if len(c.Registry.Addrs) == 0 {
		return fmt.Errorf("registry.addrs is required")
	}
	if c.Index.NProbe > c.Index.Clusters {
		return fmt.Errorf("index.nprobe (%d) must not exceed index.clusters (%d)", c.Index.NProbe, c.Index.Clusters)
	}
	if r := c.Recommend.MinReviewRating; r != nil && (*r < 0 || *r > 10) {
		return fmt.Errorf("recommend.min_review_rating must be within 0..10, got %g", *r)
	}
	if q := c.Recommend.MinQuality; q != nil && (*q < 0 || *q > 100) {
		return fmt.Errorf("recommend.min_quality must be within 0..100, got %g", *q)
	}
	if strings.ContainsRune(c.Vocabulary.Name, '@') {
		return fmt.Errorf("vocabulary.name must not contain '@', got %q", c.Vocabulary.Name)
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
