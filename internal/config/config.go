// Package config loads the espalier CLI configuration from YAML or JSON files
// and applies "key=value" overrides on top of it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "espalier.yaml"

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Report store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the CLI configuration.
type Config struct {
	LogLevel    string        `mapstructure:"log_level"`
	Model       string        `mapstructure:"model"`
	Workers     int           `mapstructure:"workers"`
	StepTimeout time.Duration `mapstructure:"step_timeout"`
	Format      string        `mapstructure:"format"`
	CasesFile   string        `mapstructure:"cases_file"`
	Store       string        `mapstructure:"store"`
	Redis       RedisConfig   `mapstructure:"redis"`
	HTTP        HTTPConfig    `mapstructure:"http"`
	Metrics     MetricsConfig `mapstructure:"metrics"`

	// Redact lists regular expressions masked in stored reports.
	Redact []string `mapstructure:"redact"`
}

// RedisConfig configures the Redis report store.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// HTTPConfig configures the HTTP adapter.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel: "info",
		Model:    "login",
		Workers:  1,
		Format:   FormatText,
		Store:    StoreMemory,
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "espalier:",
			TTL:    24 * time.Hour,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Load reads a configuration file (YAML or JSON) over the defaults.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Apply sets dotted keys from "key=value" pairs, e.g. "redis.addr=cache:6379".
func (c *Config) Apply(overrides ...string) error {
	raw := make(map[string]any)
	for _, kv := range overrides {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid override %q: expected key=value", kv)
		}

		node := raw
		parts := strings.Split(key, ".")
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = value
	}
	return decode(raw, c)
}

// Validate checks the configuration for values the CLI cannot act on.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	switch c.Format {
	case FormatText, FormatMarkdown, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}
	switch c.Store {
	case StoreMemory, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	for _, p := range c.Redact {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("invalid redact pattern %q: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func decode(raw map[string]any, out *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}
