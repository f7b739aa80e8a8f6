package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func validConfig() Config {
	cfg := Config{
		Registry: RegistryConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Ops.Port = 70000 },
			want:   "ops.port must be between 1 and 65535, got 70000",
		},
		{
			name:   "missing registry addrs",
			mutate: func(c *Config) { c.Registry.Addrs = nil },
			want:   "registry.addrs is required",
		},
		{
			name:   "nprobe above clusters",
			mutate: func(c *Config) { c.Index.Clusters = 4; c.Index.NProbe = 8 },
			want:   "index.nprobe (8) must not exceed index.clusters (4)",
		},
		{
			name:   "review rating above scale",
			mutate: func(c *Config) { c.Recommend.MinReviewRating = ptr(11.0) },
			want:   "recommend.min_review_rating must be within 0..10, got 11",
		},
		{
			name:   "quality above scale",
			mutate: func(c *Config) { c.Recommend.MinQuality = ptr(101.0) },
			want:   "recommend.min_quality must be within 0..100, got 101",
		},
		{
			name:   "negative quality",
			mutate: func(c *Config) { c.Recommend.MinQuality = ptr(-1.0) },
			want:   "recommend.min_quality must be within 0..100, got -1",
		},
		{
			name:   "vocabulary name with separator",
			mutate: func(c *Config) { c.Vocabulary.Name = "v1@abc" },
			want:   `vocabulary.name must not contain '@', got "v1@abc"`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tc.want {
				t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), tc.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Catalog.MaxOpenConns != 4 {
		t.Errorf("expected MaxOpenConns=4, got %d", cfg.Catalog.MaxOpenConns)
	}
	if cfg.Registry.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Registry.ReadinessTimeout)
	}
	if cfg.Registry.KeyPrefix != "gamedex:" {
		t.Errorf("expected KeyPrefix='gamedex:', got %q", cfg.Registry.KeyPrefix)
	}
	if cfg.Index.Clusters != 256 || cfg.Index.NProbe != 8 || cfg.Index.TrainIterations != 20 {
		t.Errorf("unexpected index defaults: %+v", cfg.Index)
	}
	if cfg.Vectorizer.QualityWeight != 0.008 || cfg.Vectorizer.PrimaryCategoryWeight != 0.1 {
		t.Errorf("unexpected vectorizer defaults: %+v", cfg.Vectorizer)
	}
	if cfg.Search.MaxPerTokenDistance != 40 || cfg.Search.Limit != 10 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	r := cfg.Recommend
	if r.NeighborsPerSeed != 10 || *r.MinReviewRating != 7 || *r.MinQuality != 70 ||
		r.SimilarPerSeed != 5 || r.SimilarMaxDistance != 40 || r.MaxConcurrency != 8 || r.ExcludeSeen {
		t.Errorf("unexpected recommend defaults: %+v", r)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.Delay() != 200*time.Millisecond {
		t.Errorf("unexpected retry defaults: %+v", cfg.Retry)
	}
	if cfg.Ops.Port != 9090 || cfg.Ops.ShutdownSec != 10 {
		t.Errorf("unexpected ops defaults: %+v", cfg.Ops)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Registry:  RegistryConfig{ReadinessTimeout: 15, KeyPrefix: "custom:"},
		Index:     IndexConfig{Clusters: 16, NProbe: 2},
		Search:    SearchConfig{MaxPerTokenDistance: 12},
		Recommend: RecommendConfig{SimilarPerSeed: -1, MinQuality: ptr(80.0)},
	}
	cfg.ApplyDefaults()

	if cfg.Registry.ReadinessTimeout != 15 || cfg.Registry.KeyPrefix != "custom:" {
		t.Errorf("registry overridden: %+v", cfg.Registry)
	}
	if cfg.Index.Clusters != 16 || cfg.Index.NProbe != 2 {
		t.Errorf("index overridden: %+v", cfg.Index)
	}
	if cfg.Recommend.SimilarPerSeed != -1 {
		t.Errorf("expected SimilarPerSeed=-1, got %d", cfg.Recommend.SimilarPerSeed)
	}
	if cfg.Recommend.SimilarMaxDistance != 12 {
		t.Errorf("expected SimilarMaxDistance to follow search, got %d", cfg.Recommend.SimilarMaxDistance)
	}
	if *cfg.Recommend.MinQuality != 80 {
		t.Errorf("expected MinQuality=80, got %g", *cfg.Recommend.MinQuality)
	}
}

func TestApplyDefaults_ZeroThresholdsKept(t *testing.T) {
	cfg := Config{Registry: RegistryConfig{Addrs: []string{"localhost:6379"}}}
	if err := yaml.Unmarshal([]byte("min_review_rating: 0\nmin_quality: 0\n"), &cfg.Recommend); err != nil {
		t.Fatal(err)
	}
	cfg.ApplyDefaults()

	if *cfg.Recommend.MinReviewRating != 0 || *cfg.Recommend.MinQuality != 0 {
		t.Errorf("zero thresholds replaced: rating %g, quality %g",
			*cfg.Recommend.MinReviewRating, *cfg.Recommend.MinQuality)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero thresholds rejected: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GAMEDEX_TEST_ADDR", "redis:6380")

	got := string(expandEnvVars([]byte("a: ${GAMEDEX_TEST_ADDR}\nb: ${GAMEDEX_TEST_UNSET:-fallback}\nc: ${GAMEDEX_TEST_UNSET}")))
	want := "a: redis:6380\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad_Local(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.test:6379")

	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Registry.Addrs) != 1 || cfg.Registry.Addrs[0] != "redis.test:6379" {
		t.Errorf("addrs = %v", cfg.Registry.Addrs)
	}
	if cfg.Index.Clusters != 64 || cfg.Index.ReloadIntervalSec != 30 {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected error for missing config")
	}
}
