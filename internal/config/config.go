// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads shipcheck settings from file and environment and
// initializes the global logger.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/shipcheck/pkg/types"
)

// EnvPrefix prefixes environment overrides: SHIPCHECK_RULES_PATH sets
// rules.path.
const EnvPrefix = "SHIPCHECK"

// Load reads configuration. cfgFile, when set, is the only file read;
// otherwise shipcheck.yaml is looked up in the working directory and in
// ~/.config/shipcheck. A missing file is not an error.
func Load(cfgFile string) (*types.Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("shipcheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "shipcheck"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	} else {
		zap.L().Debug("config file loaded", zap.String("path", v.ConfigFileUsed()))
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rules.path", "data/rules.csv")
	v.SetDefault("rules.token_secret", "")
	v.SetDefault("patterns.db_path", "data/patterns.db")
	v.SetDefault("session.max_documents", 256)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 16)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("convert.backend", string(types.BackendPdftotext))
	v.SetDefault("convert.pdftotext_path", "pdftotext")
	v.SetDefault("convert.image", "minidocks/poppler:latest")
	v.SetDefault("convert.timeout", "60s")
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.user_agent", "shipcheck/0.1")
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.limit", 0)
	v.SetDefault("batch.rate_per_sec", 0)
	v.SetDefault("batch.report_format", string(types.ReportCSV))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate rejects settings no component can run with.
func Validate(cfg *types.Config) error {
	switch cfg.Conversion.Backend {
	case types.BackendPdftotext, types.BackendContainer:
	default:
		return eris.Errorf("config: convert.backend must be %q or %q, got %q",
			types.BackendPdftotext, types.BackendContainer, cfg.Conversion.Backend)
	}
	switch cfg.Batch.ReportFormat {
	case types.ReportCSV, types.ReportXLSX:
	default:
		return eris.Errorf("config: batch.report_format must be %q or %q, got %q",
			types.ReportCSV, types.ReportXLSX, cfg.Batch.ReportFormat)
	}
	if cfg.Server.MaxUploadMB <= 0 {
		return eris.Errorf("config: server.max_upload_mb must be positive, got %d", cfg.Server.MaxUploadMB)
	}
	if cfg.Batch.Concurrency <= 0 {
		return eris.Errorf("config: batch.concurrency must be positive, got %d", cfg.Batch.Concurrency)
	}
	return nil
}

// InitLogger replaces the global zap logger. Format "json" selects the
// production encoder; anything else logs for a console.
func InitLogger(cfg types.LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.DisableStacktrace = true
	}

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
