package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the config file nor the environment provides a value.
const (
	DefaultSessionTokenExpiry = 7 * 24 * time.Hour
	DefaultResetTokenExpiry   = 10 * time.Minute
	DefaultPageSize           = 10
	DefaultPort               = 8080
)

// Config holds every option the process recognizes. It is loaded once in main
// and passed explicitly into each component constructor.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	DatabaseDSN string `yaml:"database-dsn"`

	LogLevel string `yaml:"log-level"`
	LogFile  string `yaml:"log-file"`

	SessionTokenSecret string        `yaml:"session-token-secret"`
	SessionTokenExpiry time.Duration `yaml:"session-token-expiry"`
	ResetTokenSecret   string        `yaml:"reset-token-secret"`
	ResetTokenExpiry   time.Duration `yaml:"reset-token-expiry"`

	DefaultPageSize int `yaml:"default-page-size"`

	AvatarDir     string `yaml:"avatar-dir"`
	AvatarBaseURL string `yaml:"avatar-base-url"`
}

// Load reads the optional YAML file at path, applies environment overrides and
// fills defaults. A missing file is not an error; the environment alone can
// configure the process. A .env file in the working directory is honored first.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if errUnmarshal := yaml.Unmarshal(raw, &cfg); errUnmarshal != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if cfg.SessionTokenSecret == "" {
		return Config{}, fmt.Errorf("config: session token secret is required")
	}
	if cfg.ResetTokenSecret == "" {
		return Config{}, fmt.Errorf("config: reset token secret is required")
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables. Environment wins.
func applyEnv(cfg *Config) {
	setString(&cfg.Host, "HOST")
	setInt(&cfg.Port, "PORT")
	setString(&cfg.DatabaseDSN, "DATABASE_DSN")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFile, "LOG_FILE")
	setString(&cfg.SessionTokenSecret, "SESSION_TOKEN_SECRET")
	setDuration(&cfg.SessionTokenExpiry, "SESSION_TOKEN_EXPIRY")
	setString(&cfg.ResetTokenSecret, "RESET_TOKEN_SECRET")
	setDuration(&cfg.ResetTokenExpiry, "RESET_TOKEN_EXPIRY")
	setInt(&cfg.DefaultPageSize, "DEFAULT_PAGE_SIZE")
	setString(&cfg.AvatarDir, "AVATAR_DIR")
	setString(&cfg.AvatarBaseURL, "AVATAR_BASE_URL")
}

func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = "backoffice.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SessionTokenExpiry <= 0 {
		cfg.SessionTokenExpiry = DefaultSessionTokenExpiry
	}
	if cfg.ResetTokenExpiry <= 0 {
		cfg.ResetTokenExpiry = DefaultResetTokenExpiry
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultPageSize
	}
	if cfg.AvatarDir == "" {
		cfg.AvatarDir = "uploads"
	}
	if cfg.AvatarBaseURL == "" {
		cfg.AvatarBaseURL = "/uploads"
	}
}

func setString(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			*dst = parsed
		}
	}
}
