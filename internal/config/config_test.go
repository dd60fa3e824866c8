package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %s, want 24h", cfg.TokenTTL)
	}
	if cfg.AuthProvider != ProviderStatic {
		t.Errorf("AuthProvider = %q", cfg.AuthProvider)
	}
	if cfg.JWTSecret == "" || !cfg.SecretGenerated {
		t.Error("expected generated secret")
	}
	if cfg.LoginRateLimit != 10 {
		t.Errorf("LoginRateLimit = %d, want 10", cfg.LoginRateLimit)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("AUTH_PROVIDER", "bcrypt")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("LOGIN_RATE_LIMIT", "0")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.LoginRateLimit != 0 {
		t.Errorf("LoginRateLimit = %d, want 0", cfg.LoginRateLimit)
	}
	if cfg.JWTSecret != "s3cret" || cfg.SecretGenerated {
		t.Errorf("JWTSecret = %q generated=%v", cfg.JWTSecret, cfg.SecretGenerated)
	}
	if cfg.TokenTTL != 90*time.Minute {
		t.Errorf("TokenTTL = %s", cfg.TokenTTL)
	}
	if cfg.AuthProvider != ProviderBcrypt {
		t.Errorf("AuthProvider = %q", cfg.AuthProvider)
	}
	if !cfg.CookieSecure {
		t.Error("expected CookieSecure")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	data := "listen_addr: \":7070\"\nlog_format: console\nseed_file: /tmp/seed.yaml\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":7070" || cfg.LogFormat != "console" || cfg.SeedFile != "/tmp/seed.yaml" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	chdirTemp(t)

	t.Setenv("AUTH_PROVIDER", "ldap")
	if _, err := Load(""); err == nil {
		t.Error("expected error for unknown provider")
	}

	t.Setenv("AUTH_PROVIDER", "static")
	t.Setenv("TOKEN_TTL", "0s")
	if _, err := Load(""); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit file")
	}
}
