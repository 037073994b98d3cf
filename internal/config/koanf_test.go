// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Store.Driver != "badger" {
		t.Errorf("Store.Driver = %q, want badger", cfg.Store.Driver)
	}
	if cfg.Recommend.CacheTTL != 24*time.Hour {
		t.Errorf("Recommend.CacheTTL = %v, want 24h", cfg.Recommend.CacheTTL)
	}
	if cfg.Recommend.APIKey != "" {
		t.Error("Recommend.APIKey should be empty by default")
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("Security.CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HTTP_PORT", "server.port"},
		{"STORE_DRIVER", "store.driver"},
		{"MONGO_URI", "store.mongo_uri"},
		{"RECOMMEND_CACHE_TTL", "recommend.cache_ttl"},
		{"OPENAI_API_KEY", "recommend.api_key"},
		{"ORS_API_KEY", "routing.api_key"},
		{"ONESIGNAL_APP_ID", "notify.app_id"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"LOG_LEVEL", "logging.level"},
		{"BACKUP_RETAIN", "backup.retain"},
		{"JWT_SECRET", "security.jwt_secret"},
		{"AUTH_MODE", "security.auth_mode"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadWithKoanfEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv(DotEnvPathEnvVar, "")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("BADGER_IN_MEMORY", "true")
	t.Setenv("RECOMMEND_CACHE_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.Store.InMemory {
		t.Error("Store.InMemory should be true")
	}
	if cfg.Recommend.CacheTTL != 2*time.Hour {
		t.Errorf("Recommend.CacheTTL = %v, want 2h", cfg.Recommend.CacheTTL)
	}
	want := []string{"https://a.example", "https://b.example"}
	if strings.Join(cfg.Security.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("Security.CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
}

func TestLoadWithKoanfFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv(DotEnvPathEnvVar, "")

	yamlBody := "store:\n  driver: mongo\n  mongo_database: descuentos_test\nrouting:\n  profile: foot-walking\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ORS_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("ORS_API_KEY") })

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Store.Driver != "mongo" {
		t.Errorf("Store.Driver = %q, want mongo", cfg.Store.Driver)
	}
	if cfg.Store.MongoDatabase != "descuentos_test" {
		t.Errorf("Store.MongoDatabase = %q, want descuentos_test", cfg.Store.MongoDatabase)
	}
	if cfg.Routing.Profile != "foot-walking" {
		t.Errorf("Routing.Profile = %q, want foot-walking", cfg.Routing.Profile)
	}
	if cfg.Routing.APIKey != "from-dotenv" {
		t.Errorf("Routing.APIKey = %q, want from-dotenv", cfg.Routing.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, "STORE_DRIVER"},
		{"badger without path", func(c *Config) { c.Store.Path = "" }, "BADGER_PATH"},
		{"badger in memory without path", func(c *Config) { c.Store.Path = ""; c.Store.InMemory = true }, ""},
		{"mongo without uri", func(c *Config) { c.Store.Driver = "mongo"; c.Store.MongoURI = "" }, "MONGO_URI"},
		{"zero cache ttl", func(c *Config) { c.Recommend.CacheTTL = 0 }, "RECOMMEND_CACHE_TTL"},
		{"bad routing url", func(c *Config) { c.Routing.URL = "ftp://x" }, "ORS_API_URL"},
		{"rate limit zero", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
		{"rate limit disabled", func(c *Config) { c.Security.RateLimitReqs = 0; c.Security.RateLimitDisabled = true }, ""},
		{"unknown auth mode", func(c *Config) { c.Security.AuthMode = "basic" }, "AUTH_MODE"},
		{"auth disabled", func(c *Config) { c.Security.AuthMode = "none" }, ""},
		{"short jwt secret", func(c *Config) { c.Security.JWTSecret = "short" }, "JWT_SECRET"},
		{"jwt secret", func(c *Config) { c.Security.JWTSecret = strings.Repeat("k", 32) }, ""},
		{"empty admin role", func(c *Config) { c.Security.AdminRole = "" }, "ADMIN_ROLE"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"backup retain zero", func(c *Config) { c.Backup.Retain = 0 }, "BACKUP_RETAIN"},
		{"backup interval too short", func(c *Config) { c.Backup.Enabled = true; c.Backup.Interval = time.Second }, "BACKUP_INTERVAL"},
		{"short interval while disabled", func(c *Config) { c.Backup.Interval = time.Second }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8080", got)
	}
}
