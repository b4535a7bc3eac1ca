package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mvandijk/laneplan/internal/packing"
	"github.com/mvandijk/laneplan/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultColumnWidth    = 1200
	defaultMinItemLength  = 800
	defaultMaxItemLength  = 13060
	defaultMaxItems       = 24
	defaultSolveTimeout   = 5 * time.Second
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	ColumnWidth          int
	MinItemLength        int
	MaxItemLength        int
	MaxItems             int
	SolveTimeout         time.Duration
	InitialVariants      []packing.Variant
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string            `yaml:"port"`
	ColumnWidth          int               `yaml:"column_width"`
	MinItemLength        int               `yaml:"min_item_length"`
	MaxItemLength        int               `yaml:"max_item_length"`
	MaxItems             int               `yaml:"max_items"`
	SolveTimeout         string            `yaml:"solve_timeout"`
	Carriers             []packing.Variant `yaml:"carriers"`
	ShutdownGracePeriod  string            `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string            `yaml:"read_header_timeout"`
	WriteTimeout         string            `yaml:"write_timeout"`
	IdleTimeout          string            `yaml:"idle_timeout"`
	EnableRequestLogging bool              `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit     `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	ColumnWidth    *int
	MaxItems       *int
	SolveTimeout   *time.Duration
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	// Apply environment variables (override YAML)
	applyEnvConfig(&cfg)

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ColumnWidth:          defaultColumnWidth,
		MinItemLength:        defaultMinItemLength,
		MaxItemLength:        defaultMaxItemLength,
		MaxItems:             defaultMaxItems,
		SolveTimeout:         defaultSolveTimeout,
		InitialVariants:      storage.DefaultVariants(),
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.ColumnWidth > 0 {
		cfg.ColumnWidth = yamlCfg.ColumnWidth
	}

	if yamlCfg.MinItemLength > 0 {
		cfg.MinItemLength = yamlCfg.MinItemLength
	}

	if yamlCfg.MaxItemLength > 0 {
		cfg.MaxItemLength = yamlCfg.MaxItemLength
	}

	if yamlCfg.MaxItems > 0 {
		cfg.MaxItems = yamlCfg.MaxItems
	}

	if yamlCfg.SolveTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.SolveTimeout); err == nil {
			cfg.SolveTimeout = d
		}
	}

	if len(yamlCfg.Carriers) > 0 {
		cfg.InitialVariants = packing.CloneVariants(yamlCfg.Carriers)
	}

	if yamlCfg.ShutdownGracePeriod != "" {
		if d, err := time.ParseDuration(yamlCfg.ShutdownGracePeriod); err == nil {
			cfg.ShutdownGracePeriod = d
		}
	}

	if yamlCfg.ReadHeaderTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.ReadHeaderTimeout); err == nil {
			cfg.ReadHeaderTimeout = d
		}
	}

	if yamlCfg.WriteTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.WriteTimeout); err == nil {
			cfg.WriteTimeout = d
		}
	}

	if yamlCfg.IdleTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.IdleTimeout); err == nil {
			cfg.IdleTimeout = d
		}
	}

	cfg.EnableRequestLogging = yamlCfg.EnableRequestLogging

	if yamlCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = yamlCfg.RateLimit.Burst
	}
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if width := strings.TrimSpace(os.Getenv("COLUMN_WIDTH")); width != "" {
		if value, err := strconv.Atoi(width); err == nil && value > 0 {
			cfg.ColumnWidth = value
		}
	}

	if maxItems := strings.TrimSpace(os.Getenv("MAX_ITEMS")); maxItems != "" {
		if value, err := strconv.Atoi(maxItems); err == nil && value > 0 {
			cfg.MaxItems = value
		}
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.ColumnWidth != nil && *overrides.ColumnWidth > 0 {
		cfg.ColumnWidth = *overrides.ColumnWidth
	}

	if overrides.MaxItems != nil && *overrides.MaxItems > 0 {
		cfg.MaxItems = *overrides.MaxItems
	}

	if overrides.SolveTimeout != nil && *overrides.SolveTimeout > 0 {
		cfg.SolveTimeout = *overrides.SolveTimeout
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.ColumnWidth <= 0 {
		return fmt.Errorf("column width must be positive")
	}
	if cfg.MinItemLength <= 0 {
		return fmt.Errorf("minimum item length must be positive")
	}
	if cfg.MaxItemLength < cfg.MinItemLength {
		return fmt.Errorf("maximum item length must not be below the minimum")
	}
	if cfg.MaxItems <= 0 {
		return fmt.Errorf("maximum item count must be positive")
	}
	if cfg.SolveTimeout <= 0 {
		return fmt.Errorf("solve timeout must be positive")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if len(cfg.InitialVariants) == 0 {
		return fmt.Errorf("carrier variants cannot be empty")
	}
	for _, variant := range cfg.InitialVariants {
		if err := variant.Model.Validate(); err != nil {
			return err
		}
	}
	return nil
}
