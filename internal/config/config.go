// Central de Descuentos - Discount Aggregation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/centraldescuentos

// Package config loads service configuration with koanf.
//
// Sources are layered, later ones winning: built-in defaults, an optional
// YAML file (CONFIG_PATH or config.yaml in the working directory), then
// environment variables. Environment names are mapped explicitly in
// envTransformFunc; unmapped variables are ignored.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Recommend RecommendConfig `koanf:"recommend"`
	Routing   RoutingConfig   `koanf:"routing"`
	Notify    NotifyConfig    `koanf:"notify"`
	Security  SecurityConfig  `koanf:"security"`
	Backup    BackupConfig    `koanf:"backup"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// StoreConfig selects and configures the document store driver.
type StoreConfig struct {
	// Driver is "badger" (embedded) or "mongo".
	Driver string `koanf:"driver"`

	// Path is the Badger data directory.
	Path string `koanf:"path"`

	// InMemory runs Badger without touching disk.
	InMemory bool `koanf:"in_memory"`

	// GCInterval is how often the Badger value log is garbage collected.
	GCInterval time.Duration `koanf:"gc_interval"`

	MongoURI      string        `koanf:"mongo_uri"`
	MongoDatabase string        `koanf:"mongo_database"`
	MongoTimeout  time.Duration `koanf:"mongo_timeout"`
}

// RecommendConfig configures AI recommendations and their cache.
type RecommendConfig struct {
	CacheTTL      time.Duration `koanf:"cache_ttl"`
	APIURL        string        `koanf:"api_url"`
	APIKey        string        `koanf:"api_key"`
	Model         string        `koanf:"model"`
	Timeout       time.Duration `koanf:"timeout"`
	MaxCandidates int           `koanf:"max_candidates"`
	MaxResults    int           `koanf:"max_results"`

	// CallsPerMinute throttles outgoing AI calls. Zero means unlimited.
	CallsPerMinute int `koanf:"calls_per_minute"`
}

// RoutingConfig configures the directions proxy.
type RoutingConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Profile string        `koanf:"profile"`
	Timeout time.Duration `koanf:"timeout"`
}

// NotifyConfig configures push notification delivery.
type NotifyConfig struct {
	URL     string        `koanf:"url"`
	AppID   string        `koanf:"app_id"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// AuthMode is "jwt" (admin routes need a bearer token) or "none".
	AuthMode string `koanf:"auth_mode"`

	// JWTSecret is the HMAC key shared with the identity provider. Without
	// it admin routes are refused in jwt mode.
	JWTSecret string `koanf:"jwt_secret"`

	// JWTIssuer, when set, must match the token's iss claim.
	JWTIssuer string `koanf:"jwt_issuer"`

	// AdminRole is the role claim required on admin routes.
	AdminRole string `koanf:"admin_role"`
}

// BackupConfig configures catalogue snapshots.
type BackupConfig struct {
	// Enabled turns on scheduled snapshots. Manual snapshots through the
	// admin API work regardless.
	Enabled  bool          `koanf:"enabled"`
	Dir      string        `koanf:"dir"`
	Interval time.Duration `koanf:"interval"`

	// Retain is the number of snapshots kept; older ones are removed.
	Retain int `koanf:"retain"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
