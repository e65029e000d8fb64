// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tickit Contributors

package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/tickit/tickit/internal/xdg"
)

// Flag names.
const (
	FlagConfig      = "config"
	FlagHTTPAddr    = "http-addr"
	FlagMetricsAddr = "metrics-addr"
	FlagDatabaseURL = "database-url"
	FlagTokenTTL    = "token-ttl"
	FlagLogFormat   = "log-format"
	FlagDebug       = "debug"
	FlagCORSOrigin  = "cors-origin"
	FlagAutoMigrate = "auto-migrate"
)

// flagKeys maps flags whose koanf key is not the dashed name with underscores.
var flagKeys = map[string]string{
	FlagCORSOrigin: "cors_origins",
	FlagConfig:     "",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagConfig, "", "path to YAML config file (default $XDG_CONFIG_HOME/tickit/config.yaml)")
	fs.String(FlagHTTPAddr, d.HTTPAddr, "API listen address")
	fs.String(FlagMetricsAddr, d.MetricsAddr, "metrics and health listen address (empty disables)")
	fs.String(FlagDatabaseURL, d.DatabaseURL, "PostgreSQL connection URL")
	fs.Duration(FlagTokenTTL, d.TokenTTL, "access token lifetime")
	fs.String(FlagLogFormat, d.LogFormat, "log format (json or text)")
	fs.Bool(FlagDebug, d.Debug, "enable debug logging")
	fs.StringSlice(FlagCORSOrigin, d.CORSOrigins, "allowed CORS origin, repeatable; glob patterns accepted")
	fs.Bool(FlagAutoMigrate, d.AutoMigrate, "apply pending database migrations at startup")
}

// Load builds the configuration. Later sources win: defaults, the YAML
// file, flags explicitly set on fs, then environment variables. fs may be nil.
func Load(fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	for key, val := range defaultValues() {
		if err := k.Set(key, val); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	path, required := configPath(fs)
	if path == "" {
		var exists bool
		var err error
		path, exists, err = xdg.DefaultConfigFile()
		if err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "default config file").Wrap(err)
		}
		if !exists {
			path = ""
		}
	}
	if path != "" {
		if err := loadFile(k, path, required); err != nil {
			return Config{}, err
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", nil, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, mapped := flagKeys[f.Name]
			if !mapped {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// configPath returns --config and whether it was given explicitly.
func configPath(fs *pflag.FlagSet) (string, bool) {
	if fs == nil {
		return "", false
	}
	f := fs.Lookup(FlagConfig)
	if f == nil || f.Value.String() == "" {
		return "", false
	}
	return f.Value.String(), true
}

func loadFile(k *koanf.Koanf, path string, required bool) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	if err := ValidateYAML(data); err != nil {
		return oops.Code("CONFIG_SCHEMA_INVALID").With("path", path).Wrap(err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

func defaultValues() map[string]any {
	d := Default()
	return map[string]any{
		"http_addr":    d.HTTPAddr,
		"metrics_addr": d.MetricsAddr,
		"database_url": d.DatabaseURL,
		"secret_key":   d.SecretKey,
		"token_ttl":    d.TokenTTL,
		"log_format":   d.LogFormat,
		"debug":        d.Debug,
		"cors_origins": d.CORSOrigins,
		"auto_migrate": d.AutoMigrate,
	}
}
