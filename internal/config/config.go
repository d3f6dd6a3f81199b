package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates a configuration value is out of range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds the application configuration
type Config struct {
	// TemplateDir points at a template project on disk. Empty means the
	// template embedded in the binary.
	TemplateDir   string   `yaml:"template_dir"`
	OutputDir     string   `yaml:"output_dir"`
	DataDir       string   `yaml:"data_dir"`
	ListenAddr    string   `yaml:"listen_addr"`
	AllowedOrigin string   `yaml:"allowed_origin"`
	Workers       int      `yaml:"workers"`
	Exclude       []string `yaml:"exclude"`
	LogLevel      string   `yaml:"log_level"`
	MaxBodyBytes  int64    `yaml:"max_body_bytes"`

	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
}

// WhatsAppConfig controls the optional "app ready" notifier
type WhatsAppConfig struct {
	Enabled bool   `yaml:"enabled"`
	DataDir string `yaml:"data_dir"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		OutputDir:     "generated_apps",
		DataDir:       "data",
		ListenAddr:    ":4000",
		AllowedOrigin: "http://localhost:3000",
		Workers:       4,
		Exclude:       []string{"widget_test.dart"},
		LogLevel:      "info",
		MaxBodyBytes:  10 << 20,
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (skipped when path is empty or the file does not exist), then
// environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("APPGEN_CONFIG")
	}
	if path != "" {
		if err := loadYAMLFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.TemplateDir = getEnv("APPGEN_TEMPLATE_DIR", cfg.TemplateDir)
	cfg.OutputDir = getEnv("APPGEN_OUTPUT_DIR", cfg.OutputDir)
	cfg.DataDir = getEnv("APPGEN_DATA_DIR", cfg.DataDir)
	cfg.ListenAddr = getEnv("APPGEN_LISTEN_ADDR", cfg.ListenAddr)
	cfg.AllowedOrigin = getEnv("APPGEN_ALLOWED_ORIGIN", cfg.AllowedOrigin)
	cfg.LogLevel = getEnv("APPGEN_LOG_LEVEL", cfg.LogLevel)
	cfg.WhatsApp.DataDir = getEnv("WHATSAPP_DATA_DIR", cfg.WhatsApp.DataDir)
	if v := os.Getenv("APPGEN_EXCLUDE"); v != "" {
		cfg.Exclude = strings.Split(v, ",")
	}

	var err error
	if cfg.Workers, err = getEnvInt("APPGEN_WORKERS", cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.MaxBodyBytes, err = getEnvInt64("APPGEN_MAX_BODY_BYTES", cfg.MaxBodyBytes); err != nil {
		return nil, err
	}
	if cfg.WhatsApp.Enabled, err = getEnvBool("WHATSAPP_ENABLED", cfg.WhatsApp.Enabled); err != nil {
		return nil, err
	}

	if cfg.WhatsApp.DataDir == "" {
		cfg.WhatsApp.DataDir = cfg.DataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.OutputDir == "":
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	case c.MaxBodyBytes < 1:
		return fmt.Errorf("%w: max_body_bytes must be positive, got %d", ErrInvalidConfig, c.MaxBodyBytes)
	}
	return nil
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, value)
	}
	return n, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, value)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, key, value)
	}
	return b, nil
}
