// Package config loads the validation core's configuration surface from a
// YAML file and environment variables via viper, the way the rest of the
// ambient stack is wired.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/irrdcore/rpslvalidate/internal/rpsl"
)

// Config is the full configuration surface: database connectivity, the
// authentication rules AuthValidator consumes, logging, and caching.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig holds the Postgres connection parameters for pgxpool.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int32         `mapstructure:"max_connections"`
	MinConnections  int32         `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// DSN renders the pgx connection string for this configuration.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s connect_timeout=%d",
		d.Host, d.Port, d.Database, d.Username, d.Password, d.SSLMode, int(d.ConnectTimeout.Seconds()),
	)
}

// AuthConfig is the configuration surface AuthValidator consumes
// the override secret's hash, whether route creation
// authenticates a covering parent, and the per-set-class auth mode.
type AuthConfig struct {
	// OverridePasswordHash is an MD5-crypt hash string, or empty to
	// disable override entirely.
	OverridePasswordHash             string            `mapstructure:"override_password"`
	AuthenticateParentsRouteCreation bool              `mapstructure:"authenticate_parents_route_creation"`
	SetAuthModes                     map[string]string `mapstructure:"set_auth_modes"`
}

// ResolveSetAuthModes parses the configured string modes into
// rpsl.SetAuthMode values keyed by object class. Entries whose mode string
// is not recognised are dropped without logging; class names are taken as
// given and not checked against the known set classes.
func (a AuthConfig) ResolveSetAuthModes() map[rpsl.ObjectClass]rpsl.SetAuthMode {
	out := make(map[rpsl.ObjectClass]rpsl.SetAuthMode, len(a.SetAuthModes))
	for class, mode := range a.SetAuthModes {
		parsed, ok := parseSetAuthMode(mode)
		if !ok {
			continue
		}
		out[rpsl.ObjectClass(class)] = parsed
	}
	return out
}

func parseSetAuthMode(s string) (rpsl.SetAuthMode, bool) {
	switch strings.ToUpper(s) {
	case "DISABLED":
		return rpsl.SetAuthDisabled, true
	case "OPPORTUNISTIC":
		return rpsl.SetAuthOpportunistic, true
	case "REQUIRED":
		return rpsl.SetAuthRequired, true
	default:
		return 0, false
	}
}

// CacheConfig holds the configured per-batch cache capacity. Validate
// requires it to be positive; the caches in internal/cache do not read it
// and use cache.DefaultCapacity.
type CacheConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// LogConfig mirrors pkg/logger.Config's shape for viper unmarshalling.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// Load reads configuration from configPath (if non-empty) and the
// environment, applying defaults for anything unset.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("RPSLVALIDATE")

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("config: read %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "irrd")
	v.SetDefault("database.username", "irrd")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.connect_timeout", "10s")

	v.SetDefault("auth.authenticate_parents_route_creation", true)

	v.SetDefault("cache.capacity", 4096)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", true)
}

// Validate checks invariants setDefaults and unmarshalling cannot enforce.
func (c *Config) Validate() error {
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache capacity must be positive")
	}
	return nil
}
