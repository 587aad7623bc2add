package config

import (
	"os"
	"time"
)

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port      int    `yaml:"port" validate:"gt=0"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// GeoConfig contains the display normalization parameters.
type GeoConfig struct {
	OriginX float64 `yaml:"origin_x"`
	OriginY float64 `yaml:"origin_y"`
	Span    float64 `yaml:"span" validate:"gte=0"`
}

// PostgresConfig contains the relational backend settings.
type PostgresConfig struct {
	DSNEnv string `yaml:"dsn_env"`
}

// InfluxConfig contains the time-series backend settings.
type InfluxConfig struct {
	URL      string `yaml:"url" validate:"omitempty,url"`
	Org      string `yaml:"org"`
	Bucket   string `yaml:"bucket"`
	TokenEnv string `yaml:"token_env"`
}

// StorageConfig selects and configures the sample store.
type StorageConfig struct {
	Backend  string         `yaml:"backend" validate:"oneof=memory postgres influx"`
	Postgres PostgresConfig `yaml:"postgres"`
	Influx   InfluxConfig   `yaml:"influx"`
}

// FeedConfig configures one upstream collector.
type FeedConfig struct {
	Enabled         bool   `yaml:"enabled"`
	URL             string `yaml:"url" validate:"omitempty,url"`
	APIKeyEnv       string `yaml:"api_key_env"`
	IntervalSeconds int    `yaml:"interval_seconds" validate:"gte=0"`
	TimeoutSeconds  int    `yaml:"timeout_seconds" validate:"gte=0"`
	Source          string `yaml:"source"`
}

// CollectConfig groups the configured collectors.
type CollectConfig struct {
	Trains FeedConfig `yaml:"trains"`
	Buses  FeedConfig `yaml:"buses"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Server        ServerConfig  `yaml:"server" validate:"required"`
	Timezone      string        `yaml:"timezone"`
	BucketSeconds int           `yaml:"bucket_seconds" validate:"gte=0"`
	Geo           GeoConfig     `yaml:"geo"`
	Storage       StorageConfig `yaml:"storage"`
	Collect       CollectConfig `yaml:"collect"`
}

// Granularity returns the shared time bucket size.
func (c AppConfig) Granularity() time.Duration {
	return time.Duration(c.BucketSeconds) * time.Second
}

// Location resolves the configured default timezone.
func (c AppConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// APIKey resolves the serving-layer API key from the environment. Empty
// means authentication is disabled.
func (c AppConfig) APIKey() string {
	if c.Server.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Server.APIKeyEnv)
}

// Interval returns the feed's poll cadence.
func (f FeedConfig) Interval() time.Duration {
	return time.Duration(f.IntervalSeconds) * time.Second
}

// Timeout returns the feed's per-request timeout.
func (f FeedConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// APIKey resolves the feed's upstream API key from the environment.
func (f FeedConfig) APIKey() string {
	if f.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(f.APIKeyEnv)
}
