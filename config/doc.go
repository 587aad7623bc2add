// Package config loads and validates the application configuration.
//
// Configuration comes from a YAML file (config.yml by default) validated
// with struct tags. Secrets are never stored in the file: the file names the
// environment variable that holds each secret (API keys, database
// credentials) and the loader resolves them at startup. A .env file is
// honored for local runs.
package config
