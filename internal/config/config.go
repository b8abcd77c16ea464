// Package config loads runtime configuration from a YAML file, .env
// files and environment variables, highest precedence last.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	// Storage configuration
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// GitHub configuration
	GitHub GitHubConfig `yaml:"github" mapstructure:"github"`

	// Webhook server configuration
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Render pipeline configuration
	Render RenderConfig `yaml:"render" mapstructure:"render"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Logging configuration
	Log LogConfig `yaml:"log" mapstructure:"log"`
}

type StorageConfig struct {
	Type        string `yaml:"type" mapstructure:"type"` // "postgres", "sqlite"
	PostgresDSN string `yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
	LocalPath   string `yaml:"local_path" mapstructure:"local_path"`
}

type GitHubConfig struct {
	Token         string `yaml:"token" mapstructure:"token"`
	WebhookSecret string `yaml:"webhook_secret" mapstructure:"webhook_secret"`
	RateLimit     int    `yaml:"rate_limit" mapstructure:"rate_limit"` // Requests per second
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	Path string `yaml:"path" mapstructure:"path"` // Webhook endpoint path
}

type RenderConfig struct {
	PolicyPath string `yaml:"policy_path" mapstructure:"policy_path"` // Path of the policy file in the target repo
	ReadmePath string `yaml:"readme_path" mapstructure:"readme_path"`
	AssetDir   string `yaml:"asset_dir" mapstructure:"asset_dir"` // Directory in the target repo for generated SVGs
	Branch     string `yaml:"branch" mapstructure:"branch"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "text", "json"
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Storage: StorageConfig{
			Type:      "sqlite",
			LocalPath: filepath.Join(homeDir, ".impactboard", "local.db"),
		},
		GitHub: GitHubConfig{
			RateLimit: 10,
		},
		Server: ServerConfig{
			Addr: ":8080",
			Path: "/webhook",
		},
		Render: RenderConfig{
			PolicyPath: ".impactboard.yml",
			ReadmePath: "README.md",
			AssetDir:   ".impactboard/assets",
			Branch:     "main",
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults
	cfg := Default()
	v.SetDefault("storage", cfg.Storage)
	v.SetDefault("github", cfg.GitHub)
	v.SetDefault("server", cfg.Server)
	v.SetDefault("render", cfg.Render)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("log", cfg.Log)

	// Load from environment variables
	v.SetEnvPrefix("IMPACTBOARD")
	v.AutomaticEnv()

	// Try to find config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".impactboard")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".impactboard"))
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	// Unmarshal into struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence
func loadEnvFiles() {
	envFiles := []string{
		".env.local", // Local overrides (highest precedence)
		".env",       // Main environment file
	}

	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	// Also try loading from home directory
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".impactboard", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if secret := os.Getenv("GITHUB_WEBHOOK_SECRET"); secret != "" {
		cfg.GitHub.WebhookSecret = secret
	}
	if rateLimit := os.Getenv("GITHUB_RATE_LIMIT"); rateLimit != "" {
		if rate, err := strconv.Atoi(rateLimit); err == nil {
			cfg.GitHub.RateLimit = rate
		}
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Storage.Type = "postgres"
		cfg.Storage.PostgresDSN = dsn
	}
	if addr := os.Getenv("IMPACTBOARD_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
}

// Validate checks that the configuration is internally consistent
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.LocalPath == "" {
			return fmt.Errorf("storage.local_path required for sqlite storage")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	if c.GitHub.RateLimit <= 0 {
		return fmt.Errorf("github.rate_limit must be positive")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	return nil
}
