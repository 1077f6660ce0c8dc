package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"resume_filter/internal/analyzer"
	"resume_filter/internal/classify"
	"resume_filter/internal/model"
)

type Config struct {
	Model             string  `yaml:"model"`
	MaxLength         int     `yaml:"max_length"`
	Threshold         float64 `yaml:"threshold"`
	Device            string  `yaml:"device"`
	Workers           int     `yaml:"workers"`
	SentenceTimeoutMs int     `yaml:"sentence_timeout_ms"`

	Backend     BackendConfig `yaml:"backend"`
	Cache       CacheConfig   `yaml:"cache"`
	DBPath      string        `yaml:"db_path"`
	Workspace   string        `yaml:"workspace"`
	MetricsAddr string        `yaml:"metrics_addr"`
	LogLevel    string        `yaml:"log_level"`
}

type BackendConfig struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Size       int    `yaml:"size"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	RedisAddr  string `yaml:"redis_addr"`
	Bloom      bool   `yaml:"bloom"`
}

func Default() Config {
	return Config{
		Model:     "kogpt2",
		MaxLength: analyzer.DefaultMaxLength,
		Threshold: classify.DefaultThreshold,
		Device:    "auto",
		Workers:   1,
		Backend: BackendConfig{
			URL:       "http://127.0.0.1:8765",
			TimeoutMs: 60000,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Size:       10000,
			TTLSeconds: 86400,
			Bloom:      true,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. An empty path yields the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PPLX_* environment variables.
func (c *Config) ApplyEnv() {
	c.Model = getenv("PPLX_MODEL", c.Model)
	c.MaxLength = getenvInt("PPLX_MAX_LENGTH", c.MaxLength)
	c.Threshold = getenvFloat("PPLX_THRESHOLD", c.Threshold)
	c.Device = getenv("PPLX_DEVICE", c.Device)
	c.Workers = getenvInt("PPLX_WORKERS", c.Workers)
	c.SentenceTimeoutMs = getenvInt("PPLX_SENTENCE_TIMEOUT_MS", c.SentenceTimeoutMs)
	c.Backend.URL = getenv("PPLX_BACKEND_URL", c.Backend.URL)
	c.Backend.TimeoutMs = getenvInt("PPLX_BACKEND_TIMEOUT_MS", c.Backend.TimeoutMs)
	c.Cache.Enabled = getenvBool("PPLX_CACHE", c.Cache.Enabled)
	c.Cache.RedisAddr = getenv("PPLX_REDIS_ADDR", c.Cache.RedisAddr)
	c.DBPath = getenv("PPLX_DB_PATH", c.DBPath)
	c.Workspace = getenv("PPLX_WORKSPACE", c.Workspace)
	c.MetricsAddr = getenv("PPLX_METRICS_ADDR", c.MetricsAddr)
	c.LogLevel = getenv("PPLX_LOG_LEVEL", c.LogLevel)
}

func (c Config) Validate() error {
	var errs []error
	if !model.IsSupported(c.Model) {
		errs = append(errs, fmt.Errorf("model %q is not supported (want one of %s)", c.Model, strings.Join(model.Supported(), ", ")))
	}
	if c.MaxLength <= 0 {
		errs = append(errs, fmt.Errorf("max_length must be positive, got %d", c.MaxLength))
	}
	if !(c.Threshold > 0) || math.IsInf(c.Threshold, 0) {
		errs = append(errs, fmt.Errorf("threshold must be positive, got %g", c.Threshold))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.SentenceTimeoutMs < 0 {
		errs = append(errs, errors.New("sentence_timeout_ms must not be negative"))
	}
	switch strings.ToLower(c.Device) {
	case "", "auto", "cpu", "cuda":
	default:
		errs = append(errs, fmt.Errorf("device must be auto, cpu or cuda, got %q", c.Device))
	}
	return errors.Join(errs...)
}

func (c Config) Analyzer() analyzer.Config {
	return analyzer.Config{
		ModelName: c.Model,
		MaxLength: c.MaxLength,
		Threshold: c.Threshold,
		Workers:   c.Workers,
	}
}

func (c Config) SentenceTimeout() time.Duration {
	return time.Duration(c.SentenceTimeoutMs) * time.Millisecond
}

func (c Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutMs) * time.Millisecond
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func getenv(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func getenvFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getenvBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	return raw == "1" || raw == "true" || raw == "yes" || raw == "on"
}
