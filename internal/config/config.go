// Package config loads landlock configuration and sets up logging.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. LANDLOCK_LLM_PROVIDER
const EnvPrefix = "LANDLOCK"

// DefaultPath returns ~/.landlock/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "config: find home directory")
	}
	return filepath.Join(home, ".landlock", "config.yaml"), nil
}

// Load builds the configuration from defaults, the config file and LANDLOCK_* variables,
// highest priority last. An empty path reads ~/.landlock/config.yaml when it exists.
// It returns the file that was read, or "" when only defaults and env were used.
func Load(path string) (*model.Config, string, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// defaults are read as a base document so every key is known to env lookups
	defaults, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return nil, "", eris.Wrap(err, "config: marshal defaults")
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, "", eris.Wrap(err, "config: read defaults")
	}

	used := ""
	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, "", eris.Wrapf(err, "config: read %s", path)
		}
		used = path
	}

	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", eris.Wrap(err, "config: unmarshal")
	}
	applyProviderEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, used, nil
}

// applyProviderEnv falls back to the providers' conventional variables
func applyProviderEnv(cfg *model.Config) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
}

// Validate rejects settings no component can run with
func Validate(cfg *model.Config) error {
	switch cfg.Analysis.Mode {
	case model.ModeDeterministic, model.ModeLLM:
	default:
		return eris.Errorf("config: analysis.mode must be deterministic or llm, got %q", cfg.Analysis.Mode)
	}
	if cfg.Data.Dir == "" {
		return eris.New("config: data.dir is required")
	}
	if cfg.Concurrency.Workers < 1 {
		return eris.Errorf("config: concurrency.workers must be at least 1, got %d", cfg.Concurrency.Workers)
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return eris.Errorf("config: server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Scrape.MaxDepth < 0 {
		return eris.Errorf("config: scrape.max_depth must not be negative, got %d", cfg.Scrape.MaxDepth)
	}
	return nil
}

// WriteDefault writes the default configuration with a short header. It refuses to overwrite.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("config: %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return eris.Wrap(err, "config: create config directory")
	}

	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}

	var b bytes.Buffer
	b.WriteString("# Landlock configuration\n")
	b.WriteString("#\n")
	b.WriteString("# Priority, highest first: CLI flags, LANDLOCK_* environment variables,\n")
	b.WriteString("# this file, built-in defaults.\n")
	b.WriteString("# Keys map to variables with dots replaced by underscores, e.g. LANDLOCK_LLM_PROVIDER.\n\n")
	b.Write(data)
	b.WriteString("\n# Provider keys are read from OPENAI_API_KEY or ANTHROPIC_API_KEY when llm.api_key is empty.\n")
	b.WriteString("# OLLAMA_BASE_URL is used when llm.base_url is empty for the ollama provider.\n")

	if err := os.WriteFile(path, b.Bytes(), 0600); err != nil {
		return eris.Wrapf(err, "config: write %s", path)
	}
	return nil
}

// InitLogger replaces the global zap logger. Format "console" gives the
// development encoder; anything else is JSON.
func InitLogger(cfg model.LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)
	zapCfg.OutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
