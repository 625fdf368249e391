// Package config provides configuration loading for the India Info API.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Regions  RegionsConfig  `mapstructure:"regions"`
}

// RegionsConfig holds region lookup configuration.
type RegionsConfig struct {
	// CMOverridesFile points at an alternative chief-minister override table.
	// Empty means the embedded table is used.
	CMOverridesFile string `mapstructure:"cm_overrides_file"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"` // dev, staging, prod
	StaticDir    string        `mapstructure:"static_dir"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	SessionSecret       string        `mapstructure:"session_secret"`
	SessionExpiry       time.Duration `mapstructure:"session_expiry"`
	BcryptCost          int           `mapstructure:"bcrypt_cost"`
	ResetTokenExpiry    time.Duration `mapstructure:"reset_token_expiry"`
	OAuthGoogleID       string        `mapstructure:"oauth_google_id"`
	OAuthGoogleSecret   string        `mapstructure:"oauth_google_secret"`
	OAuthFacebookID     string        `mapstructure:"oauth_facebook_id"`
	OAuthFacebookSecret string        `mapstructure:"oauth_facebook_secret"`
	OAuthCallbackURL    string        `mapstructure:"oauth_callback_url"`
}

// SMTPConfig holds the email transport configuration for password reset mail.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Load reads configuration from files and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/indiainfo")

	// Enable environment variable override
	v.SetEnvPrefix("INDIAINFO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Explicitly bind secret-bearing environment variables (nested struct issue with viper)
	v.BindEnv("auth.session_secret", "INDIAINFO_AUTH_SESSION_SECRET")
	v.BindEnv("auth.oauth_google_id", "INDIAINFO_AUTH_OAUTH_GOOGLE_ID")
	v.BindEnv("auth.oauth_google_secret", "INDIAINFO_AUTH_OAUTH_GOOGLE_SECRET")
	v.BindEnv("auth.oauth_facebook_id", "INDIAINFO_AUTH_OAUTH_FACEBOOK_ID")
	v.BindEnv("auth.oauth_facebook_secret", "INDIAINFO_AUTH_OAUTH_FACEBOOK_SECRET")
	v.BindEnv("auth.oauth_callback_url", "INDIAINFO_AUTH_OAUTH_CALLBACK_URL")
	v.BindEnv("smtp.username", "INDIAINFO_SMTP_USERNAME")
	v.BindEnv("smtp.password", "INDIAINFO_SMTP_PASSWORD")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all settings.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.static_dir", "static")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "indiainfo")
	v.SetDefault("database.password", "indiainfo")
	v.SetDefault("database.database", "india_info")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Auth defaults
	v.SetDefault("auth.session_secret", "secret_key")
	v.SetDefault("auth.session_expiry", "168h") // 7 days
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.reset_token_expiry", "1h")
	v.SetDefault("auth.oauth_callback_url", "http://localhost:3000")

	// SMTP defaults
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.from", "")

	// Regions defaults
	v.SetDefault("regions.cm_overrides_file", "")
}
