package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8090"
	defaultManagementURL  = "http://localhost:8080/management"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultRetryAttempts  = 3
	defaultLogLevel       = "info"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string        `yaml:"port"`
	ManagementURL        string        `yaml:"management_url"`
	BeansPath            string        `yaml:"beans_path"`
	EnvPath              string        `yaml:"env_path"`
	ManagementToken      string        `yaml:"-"`
	RequestTimeout       time.Duration `yaml:"request_timeout"`
	RetryAttempts        int           `yaml:"-"`
	RetryDelay           time.Duration `yaml:"-"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimitRPS         float64       `yaml:"-"`
	RateLimitBurst       int           `yaml:"-"`
	LogLevel             string        `yaml:"log_level"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	ManagementURL        string        `yaml:"management_url"`
	BeansPath            string        `yaml:"beans_path"`
	EnvPath              string        `yaml:"env_path"`
	ManagementToken      string        `yaml:"management_token"`
	RequestTimeout       string        `yaml:"request_timeout"`
	Retry                yamlRetry     `yaml:"retry"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	LogLevel             string        `yaml:"log_level"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlRetry struct {
	Attempts *int   `yaml:"attempts"`
	Delay    string `yaml:"delay"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile      string
	Port            *string
	ManagementURL   *string
	ManagementToken *string
	RequestTimeout  *time.Duration
	RetryAttempts   *int
	RateLimitRPS    *float64
	RateLimitBurst  *int
	LogLevel        *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Environment first so the YAML file can override it
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ManagementURL:        defaultManagementURL,
		BeansPath:            "configprops",
		EnvPath:              "env",
		RequestTimeout:       10 * time.Second,
		RetryAttempts:        defaultRetryAttempts,
		RetryDelay:           200 * time.Millisecond,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         30 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
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
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	setString(&cfg.Port, yamlCfg.Port)
	setString(&cfg.ManagementURL, yamlCfg.ManagementURL)
	setString(&cfg.BeansPath, yamlCfg.BeansPath)
	setString(&cfg.EnvPath, yamlCfg.EnvPath)
	setString(&cfg.ManagementToken, yamlCfg.ManagementToken)
	setString(&cfg.LogLevel, yamlCfg.LogLevel)

	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"request_timeout", yamlCfg.RequestTimeout, &cfg.RequestTimeout},
		{"retry.delay", yamlCfg.Retry.Delay, &cfg.RetryDelay},
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.field = value
	}

	if yamlCfg.Retry.Attempts != nil {
		cfg.RetryAttempts = *yamlCfg.Retry.Attempts
	}
	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	setString(&cfg.Port, strings.TrimSpace(os.Getenv("PORT")))
	setString(&cfg.ManagementURL, strings.TrimSpace(os.Getenv("MANAGEMENT_URL")))
	setString(&cfg.ManagementToken, strings.TrimSpace(os.Getenv("MANAGEMENT_TOKEN")))
	setString(&cfg.LogLevel, strings.TrimSpace(os.Getenv("LOG_LEVEL")))

	if timeout := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT")); timeout != "" {
		value, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = value
	}

	if attempts := strings.TrimSpace(os.Getenv("RETRY_ATTEMPTS")); attempts != "" {
		value, err := strconv.Atoi(attempts)
		if err != nil {
			return fmt.Errorf("RETRY_ATTEMPTS: %w", err)
		}
		cfg.RetryAttempts = value
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
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil {
		setString(&cfg.Port, *overrides.Port)
	}
	if overrides.ManagementURL != nil {
		setString(&cfg.ManagementURL, *overrides.ManagementURL)
	}
	if overrides.ManagementToken != nil {
		setString(&cfg.ManagementToken, *overrides.ManagementToken)
	}
	if overrides.LogLevel != nil {
		setString(&cfg.LogLevel, *overrides.LogLevel)
	}
	if overrides.RequestTimeout != nil && *overrides.RequestTimeout > 0 {
		cfg.RequestTimeout = *overrides.RequestTimeout
	}
	if overrides.RetryAttempts != nil && *overrides.RetryAttempts > 0 {
		cfg.RetryAttempts = *overrides.RetryAttempts
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
	parsed, err := url.Parse(cfg.ManagementURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("management url must be an absolute http(s) url, got %q", cfg.ManagementURL)
	}
	if cfg.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be >= 1")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	return nil
}

func setString(field *string, value string) {
	if value != "" {
		*field = value
	}
}
