// Package config loads server configuration from defaults, an optional YAML
// file and environment variables (highest precedence).
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all server configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Auth
	JWTSecret       string
	SecretGenerated bool
	TokenTTL        time.Duration
	AuthProvider    string // "static" or "bcrypt"
	CookieSecure    bool
	LoginRateLimit  int // login attempts per minute per client, 0 disables

	// Data
	SeedFile string

	// WEBAPP_DIR overrides the embedded web app for live-reload during development
	WebappDir string
}

// Auth provider names.
const (
	ProviderStatic = "static"
	ProviderBcrypt = "bcrypt"
)

// Load reads configuration. file may be empty, in which case fileindex.yaml
// is looked up in the working directory and /etc/fileindex.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("auth_provider", ProviderStatic)
	v.SetDefault("cookie_secure", false)
	v.SetDefault("login_rate_limit", 10)
	v.SetDefault("seed_file", "")
	v.SetDefault("webapp_dir", "")

	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("fileindex")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/fileindex")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		ListenAddr:     v.GetString("listen_addr"),
		MetricsAddr:    v.GetString("metrics_addr"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
		JWTSecret:      v.GetString("jwt_secret"),
		TokenTTL:       v.GetDuration("token_ttl"),
		AuthProvider:   v.GetString("auth_provider"),
		CookieSecure:   v.GetBool("cookie_secure"),
		LoginRateLimit: v.GetInt("login_rate_limit"),
		SeedFile:       v.GetString("seed_file"),
		WebappDir:      v.GetString("webapp_dir"),
	}

	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", v.GetString("token_ttl"))
	}
	switch cfg.AuthProvider {
	case ProviderStatic, ProviderBcrypt:
	default:
		return nil, fmt.Errorf("AUTH_PROVIDER must be %q or %q, got %q", ProviderStatic, ProviderBcrypt, cfg.AuthProvider)
	}

	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = secret
		cfg.SecretGenerated = true
	}

	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
