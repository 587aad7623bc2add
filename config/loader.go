package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// NSVirtualTrainURL is the default upstream feed for live train positions.
const NSVirtualTrainURL = "https://gateway.apiportal.ns.nl/virtual-train-api/api/vehicle"

// Load reads, validates and defaults the application configuration. When
// path is empty the loader searches the working directory for config.yml.
// A .env file, if present, is loaded first so env-indirected secrets work
// in local runs.
func Load(path string) (AppConfig, error) {
	_ = godotenv.Load()

	paths := []string{path}
	if path == "" {
		paths = []string{"config.yml", "config.yaml"}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("validate config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return AppConfig{}, fmt.Errorf("validate config: timezone %q: %w", cfg.Timezone, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Europe/Amsterdam"
	}
	if cfg.BucketSeconds == 0 {
		cfg.BucketSeconds = 10
	}
	if cfg.Geo.Span == 0 {
		cfg.Geo = GeoConfig{OriginX: 155_000, OriginY: 463_000, Span: 325_000}
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Storage.Postgres.DSNEnv == "" {
		cfg.Storage.Postgres.DSNEnv = "PG_DSN"
	}
	if cfg.Storage.Influx.TokenEnv == "" {
		cfg.Storage.Influx.TokenEnv = "INFLUXDB_TOKEN"
	}

	trains := &cfg.Collect.Trains
	if trains.URL == "" {
		trains.URL = NSVirtualTrainURL
	}
	if trains.APIKeyEnv == "" {
		trains.APIKeyEnv = "NS_API_KEY"
	}
	if trains.IntervalSeconds == 0 {
		trains.IntervalSeconds = 10
	}
	if trains.TimeoutSeconds == 0 {
		trains.TimeoutSeconds = 4
	}
	if trains.Source == "" {
		trains.Source = "NS"
	}

	buses := &cfg.Collect.Buses
	if buses.IntervalSeconds == 0 {
		buses.IntervalSeconds = 15
	}
	if buses.TimeoutSeconds == 0 {
		buses.TimeoutSeconds = 5
	}
	if buses.Source == "" {
		buses.Source = "NDOV"
	}
}
