// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/centraldescuentos/config.yaml",
}

const (
	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "CONFIG_PATH"

	// DotEnvPathEnvVar overrides the .env file location.
	DotEnvPathEnvVar = "DOTENV_PATH"
)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Store: StoreConfig{
			Driver:        "badger",
			Path:          "/data/descuentos",
			GCInterval:    10 * time.Minute,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "centraldescuentos",
			MongoTimeout:  10 * time.Second,
		},
		Recommend: RecommendConfig{
			CacheTTL:       24 * time.Hour,
			APIURL:         "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4o-mini",
			Timeout:        30 * time.Second,
			MaxCandidates:  50,
			MaxResults:     10,
			CallsPerMinute: 60,
		},
		Routing: RoutingConfig{
			URL:     "https://api.openrouteservice.org/v2/directions",
			Profile: "driving-car",
			Timeout: 15 * time.Second,
		},
		Notify: NotifyConfig{
			URL:     "https://onesignal.com/api/v1/notifications",
			Timeout: 15 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			AuthMode:        "jwt",
			AdminRole:       "admin",
		},
		Backup: BackupConfig{
			Dir:      "/data/backups",
			Interval: 24 * time.Hour,
			Retain:   7,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf builds the configuration from defaults, the optional YAML
// file and the environment, then validates it. A .env file, when present,
// is merged into the process environment first without overriding
// variables that are already set.
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths may arrive from the environment as comma-separated strings.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"store_driver":       "store.driver",
	"badger_path":        "store.path",
	"badger_in_memory":   "store.in_memory",
	"badger_gc_interval": "store.gc_interval",
	"mongo_uri":          "store.mongo_uri",
	"mongo_database":     "store.mongo_database",
	"mongo_timeout":      "store.mongo_timeout",

	"recommend_cache_ttl":      "recommend.cache_ttl",
	"recommend_max_candidates": "recommend.max_candidates",
	"recommend_max_results":    "recommend.max_results",
	"ai_api_url":               "recommend.api_url",
	"ai_api_key":               "recommend.api_key",
	"openai_api_key":           "recommend.api_key",
	"ai_model":                 "recommend.model",
	"ai_timeout":               "recommend.timeout",
	"ai_calls_per_minute":      "recommend.calls_per_minute",

	"ors_api_url": "routing.url",
	"ors_api_key": "routing.api_key",
	"ors_profile": "routing.profile",
	"ors_timeout": "routing.timeout",

	"onesignal_api_url":      "notify.url",
	"onesignal_app_id":       "notify.app_id",
	"onesignal_rest_api_key": "notify.api_key",
	"notify_timeout":         "notify.timeout",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"jwt_issuer":          "security.jwt_issuer",
	"admin_role":          "security.admin_role",

	"backup_enabled":  "backup.enabled",
	"backup_dir":      "backup.dir",
	"backup_interval": "backup.interval",
	"backup_retain":   "backup.retain",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Returning "" tells koanf to skip the variable.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
