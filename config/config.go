// Package config provides configuration management for the journal service.
//
// Configuration is loaded from multiple sources with proper precedence
// (later sources override earlier ones):
//  1. Default values
//  2. Configuration files (./config.yaml, ./configs/config.yaml,
//     ~/.journal/config.yaml, /etc/journal/config.yaml)
//  3. .env files
//  4. Environment variables with the JOURNAL_ prefix
//
// The database URL environment variable toggles local vs remote storage:
//
//	JOURNAL_DATABASE_URL=http://localhost:5984      # local
//	JOURNAL_DATABASE_URL=https://couch.example.com  # remote
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix for all settings.
const EnvPrefix = "JOURNAL"

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the server bind address (default: 0.0.0.0)
	Host string `mapstructure:"host"`

	// Port is the server listen port (default: 8000)
	Port int `mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading requests
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration for writing responses
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// ShutdownTimeout is the maximum duration for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Debug enables debug logging and the echo debug mode
	Debug bool `mapstructure:"debug"`

	// RateLimit is the maximum requests per second (0 = no limit)
	RateLimit float64 `mapstructure:"rate_limit"`

	// AllowedOrigins are the CORS allowed origins
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig contains document-store connection settings.
type DatabaseConfig struct {
	// URL is the CouchDB server URL (e.g., http://localhost:5984)
	URL string `mapstructure:"url"`

	// Database is the database name to use
	Database string `mapstructure:"database"`

	// Username for database authentication
	Username string `mapstructure:"username"`

	// Password for database authentication
	Password string `mapstructure:"password"`

	// CreateIfMissing automatically creates the database if absent
	CreateIfMissing bool `mapstructure:"create_if_missing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Format is the log format (json, text)
	Format string `mapstructure:"format"`
}

// SecurityConfig contains authentication settings.
type SecurityConfig struct {
	// JWTSecret is the secret key for signing session tokens
	JWTSecret string `mapstructure:"jwt_secret"`

	// JWTExpiration is the session token expiration duration
	JWTExpiration time.Duration `mapstructure:"jwt_expiration"`
}

// JournalConfig contains the journal masthead metadata served by GET /title.
type JournalConfig struct {
	Title     string `mapstructure:"title"`
	Editor    string `mapstructure:"editor"`
	Date      string `mapstructure:"date"`
	Publisher string `mapstructure:"publisher"`
}

// Config is the root configuration for the journal service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Security SecurityConfig `mapstructure:"security"`
	Journal  JournalConfig  `mapstructure:"journal"`
}

// Loader provides configuration loading functionality.
type Loader struct {
	v      *viper.Viper
	prefix string
}

// NewLoader creates a configuration loader with the given environment prefix.
func NewLoader(envPrefix string) *Loader {
	return &Loader{
		v:      viper.New(),
		prefix: envPrefix,
	}
}

// SetConfigDefaults sets the standard journal service defaults.
func (l *Loader) SetConfigDefaults() {
	l.v.SetDefault("server.host", "0.0.0.0")
	l.v.SetDefault("server.port", 8000)
	l.v.SetDefault("server.read_timeout", "30s")
	l.v.SetDefault("server.write_timeout", "30s")
	l.v.SetDefault("server.shutdown_timeout", "10s")
	l.v.SetDefault("server.debug", false)
	l.v.SetDefault("server.rate_limit", 0)
	l.v.SetDefault("server.allowed_origins", []string{"*"})

	l.v.SetDefault("database.url", "http://localhost:5984")
	l.v.SetDefault("database.database", "journal")
	l.v.SetDefault("database.username", "")
	l.v.SetDefault("database.password", "")
	l.v.SetDefault("database.create_if_missing", true)

	l.v.SetDefault("logging.level", "info")
	l.v.SetDefault("logging.format", "text")

	l.v.SetDefault("security.jwt_secret", "")
	l.v.SetDefault("security.jwt_expiration", "24h")

	l.v.SetDefault("journal.title", "Jobless Computer Science Student Analysis (JCSS)")
	l.v.SetDefault("journal.editor", "editor@jcss.example.edu")
	l.v.SetDefault("journal.date", "2024-09-24")
	l.v.SetDefault("journal.publisher", "MisteryForceFromEast")
}

// Load reads configuration from file, .env, and environment variables.
// If cfgFile is empty, searches for config.yaml in standard locations.
func (l *Loader) Load(cfgFile string, target interface{}) error {
	if cfgFile != "" {
		l.v.SetConfigFile(cfgFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("./configs")
		l.v.AddConfigPath("$HOME/.journal")
		l.v.AddConfigPath("/etc/journal")
	}

	if err := l.v.ReadInConfig(); err != nil {
		if cfgFile != "" && !isFileNotFoundError(err) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		if cfgFile == "" {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	// Merge .env file if present
	l.v.SetConfigFile(".env")
	l.v.SetConfigType("env")
	_ = l.v.MergeInConfig()

	if l.prefix != "" {
		l.v.SetEnvPrefix(l.prefix)
	}
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if err := l.v.Unmarshal(target); err != nil {
		return fmt.Errorf("unable to decode config: %w", err)
	}

	return nil
}

// LoadConfig loads the journal configuration with standard defaults.
func LoadConfig(cfgFile string) (*Config, error) {
	loader := NewLoader(EnvPrefix)
	loader.SetConfigDefaults()

	cfg := &Config{}
	if err := loader.Load(cfgFile, cfg); err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ValidateConfig validates the loaded configuration.
func ValidateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	return nil
}

// BuildURL constructs the full database URL with authentication.
func (c *DatabaseConfig) BuildURL() string {
	if c.Username != "" && c.Password != "" {
		return strings.Replace(c.URL, "://", "://"+c.Username+":"+c.Password+"@", 1)
	}
	return c.URL
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return false
}
