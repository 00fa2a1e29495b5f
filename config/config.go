// Package config loads pdfmerge settings from YAML, a .env file and PDFMERGE_*
// environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wudi/pdfmerge/normalize"
)

// Config is the root configuration.
type Config struct {
	Scratch   ScratchConfig   `yaml:"scratch"`
	Converter ConverterConfig `yaml:"converter"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Output    OutputConfig    `yaml:"output"`
}

// ScratchConfig controls where staged and converted files live.
type ScratchConfig struct {
	Dir string `yaml:"dir"`
}

// ConverterConfig selects the version downgrade tool.
type ConverterConfig struct {
	Kind        string `yaml:"kind"` // ghostscript, rewrite or none
	Ghostscript string `yaml:"ghostscript"`
	Level       string `yaml:"level"`
}

// StorageConfig selects where saved output goes.
type StorageConfig struct {
	Driver string      `yaml:"driver"` // local or redis
	Root   string      `yaml:"root"`
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// OutputConfig holds output naming.
type OutputConfig struct {
	FileName string `yaml:"file_name"`
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PDFMERGE_"

// Load reads the YAML file at path (optional), loads .env from the working
// directory when present, applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig converts with Ghostscript and saves to the working directory.
func DefaultConfig() *Config {
	return &Config{
		Scratch: ScratchConfig{
			Dir: filepath.Join(os.TempDir(), "pdfmerge"),
		},
		Converter: ConverterConfig{
			Kind:        "ghostscript",
			Ghostscript: normalize.DefaultGhostscript,
			Level:       normalize.Threshold.String(),
		},
		Storage: StorageConfig{
			Driver: "local",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "pdfmerge:",
				TTL:    24 * time.Hour,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			FileName: "merged.pdf",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Converter.Kind {
	case "ghostscript", "rewrite", "none":
	default:
		return fmt.Errorf("invalid converter kind: %s", c.Converter.Kind)
	}
	if c.Converter.Kind == "ghostscript" && c.Converter.Ghostscript == "" {
		return fmt.Errorf("ghostscript binary is required")
	}

	switch c.Storage.Driver {
	case "local":
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("redis address is required")
		}
		if c.Storage.Redis.TTL < 0 {
			return fmt.Errorf("redis ttl must not be negative")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s", c.Storage.Driver)
	}

	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	if c.Scratch.Dir == "" {
		return fmt.Errorf("scratch dir is required")
	}
	if c.Output.FileName == "" {
		return fmt.Errorf("output file name is required")
	}
	return nil
}

// NewConverter builds the configured converter; "none" yields nil, which turns
// conversion off.
func (c *Config) NewConverter() normalize.Converter {
	switch c.Converter.Kind {
	case "ghostscript":
		return normalize.Ghostscript{Binary: c.Converter.Ghostscript, Level: c.Converter.Level}
	case "rewrite":
		return normalize.Rewrite{}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	str("SCRATCH_DIR", &cfg.Scratch.Dir)
	str("CONVERTER", &cfg.Converter.Kind)
	str("GHOSTSCRIPT", &cfg.Converter.Ghostscript)
	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("STORAGE_ROOT", &cfg.Storage.Root)
	str("REDIS_PASSWORD", &cfg.Storage.Redis.Password)
	str("REDIS_PREFIX", &cfg.Storage.Redis.Prefix)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("FILE_NAME", &cfg.Output.FileName)

	if v := os.Getenv(EnvPrefix + "REDIS_URL"); v != "" {
		cfg.Storage.Driver = "redis"
		cfg.Storage.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}
	if v := os.Getenv(EnvPrefix + "REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sREDIS_DB: %w", EnvPrefix, err)
		}
		cfg.Storage.Redis.DB = db
	}
	if v := os.Getenv(EnvPrefix + "REDIS_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %sREDIS_TTL: %w", EnvPrefix, err)
		}
		cfg.Storage.Redis.TTL = ttl
	}
	return nil
}
