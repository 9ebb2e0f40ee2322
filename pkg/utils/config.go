package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Driver      string
	DSN         string
	AutoMigrate bool
}

type StorageConfig struct {
	Driver      string
	Endpoint    string
	AccessKey   string
	SecretKey   string
	UseSSL      bool
	Region      string
	Bucket      string
	PublicURL   string
	MaxUploadMB int64
}

type AuthConfig struct {
	JWTSecret     string
	JWTIssuer     string
	JWTDuration   time.Duration
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

type ReportConfig struct {
	BaseURL     string
	HashRouting bool
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type Config struct {
	Server          ServerConfig
	Database        DatabaseConfig
	Storage         StorageConfig
	Auth            AuthConfig
	Report          ReportConfig
	SlugMaxAttempts int
	RateLimit       RateLimitConfig
	Log             LogConfig
}

// DefaultJWTSecret is only fit for local development.
const DefaultJWTSecret = "dev-secret-change-me"

func defaultDSN() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".leadaudit", "data.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", defaultDSN())
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.driver", "minio")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "minioadmin")
	v.SetDefault("storage.secret_key", "minioadmin")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.bucket", "screens")
	v.SetDefault("storage.public_url", "")
	v.SetDefault("storage.max_upload_mb", 10)

	v.SetDefault("auth.jwt_secret", DefaultJWTSecret)
	v.SetDefault("auth.jwt_issuer", "leadaudit")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.admin_email", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.admin_name", "Admin")

	v.SetDefault("report.base_url", "https://success.yak.media")
	v.SetDefault("report.hash_routing", false)

	v.SetDefault("slug.max_attempts", 1000)

	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads config.yaml from configPath (optional) and applies
// LEADAUDIT_* environment overrides, e.g. LEADAUDIT_DATABASE_DSN.
func LoadConfig(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.SetEnvPrefix("LEADAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:        v.GetString("server.addr"),
			CORSOrigins: v.GetStringSlice("server.cors_origins"),
		},
		Database: DatabaseConfig{
			Driver:      v.GetString("database.driver"),
			DSN:         v.GetString("database.dsn"),
			AutoMigrate: v.GetBool("database.auto_migrate"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("storage.driver")),
			Endpoint:    v.GetString("storage.endpoint"),
			AccessKey:   v.GetString("storage.access_key"),
			SecretKey:   v.GetString("storage.secret_key"),
			UseSSL:      v.GetBool("storage.use_ssl"),
			Region:      v.GetString("storage.region"),
			Bucket:      v.GetString("storage.bucket"),
			PublicURL:   v.GetString("storage.public_url"),
			MaxUploadMB: v.GetInt64("storage.max_upload_mb"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("auth.jwt_secret"),
			JWTIssuer:     v.GetString("auth.jwt_issuer"),
			JWTDuration:   v.GetDuration("auth.token_ttl"),
			AdminEmail:    v.GetString("auth.admin_email"),
			AdminPassword: v.GetString("auth.admin_password"),
			AdminName:     v.GetString("auth.admin_name"),
		},
		Report: ReportConfig{
			BaseURL:     strings.TrimRight(v.GetString("report.base_url"), "/"),
			HashRouting: v.GetBool("report.hash_routing"),
		},
		SlugMaxAttempts: v.GetInt("slug.max_attempts"),
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("rate_limit.requests"),
			Window:   v.GetDuration("rate_limit.window"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if cfg.Auth.JWTDuration <= 0 {
		cfg.Auth.JWTDuration = 24 * time.Hour
	}
	if cfg.SlugMaxAttempts <= 0 {
		cfg.SlugMaxAttempts = 1000
	}
	if cfg.Storage.MaxUploadMB <= 0 {
		cfg.Storage.MaxUploadMB = 10
	}
	return cfg, nil
}

// InsecureJWTSecret reports whether tokens are signed with the built-in
// development secret.
func (c Config) InsecureJWTSecret() bool {
	return c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DefaultJWTSecret
}
