// Package config loads flint settings from flint.yaml, a .env file and
// FLINT_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the complete flint configuration.
type Config struct {
	DB        string          `json:"db" mapstructure:"db"`
	Log       LogConfig       `json:"log" mapstructure:"log"`
	Server    ServerConfig    `json:"server" mapstructure:"server"`
	Grounding GroundingConfig `json:"grounding" mapstructure:"grounding"`
	Ingest    IngestConfig    `json:"ingest" mapstructure:"ingest"`
}

type LogConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

type ServerConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// GroundingConfig extends the built-in relevance keywords.
type GroundingConfig struct {
	ExtraKeywords []string `json:"extra_keywords" mapstructure:"extra_keywords"`
}

// IngestConfig holds the glob patterns used when ingesting a directory.
type IngestConfig struct {
	Includes []string `json:"includes" mapstructure:"includes"`
	Excludes []string `json:"excludes" mapstructure:"excludes"`
}

// Load reads the configuration. An empty path searches for flint.yaml in
// the working directory and $HOME/.flint; a missing file is not an error
// unless path names it explicitly.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FLINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("flint")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.flint")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DB = resolvePath(cfg.DB)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("db", filepath.Join(home, ".flint", "flint.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("grounding.extra_keywords", []string{})
	v.SetDefault("ingest.includes", []string{"**/*.txt", "**/*.md"})
	v.SetDefault("ingest.excludes", []string{"**/.*/**"})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DB == "" {
		return errors.New("db path cannot be empty")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.Server.Addr == "" {
		return errors.New("server address cannot be empty")
	}
	if len(c.Ingest.Includes) == 0 {
		return errors.New("ingest includes cannot be empty")
	}
	return nil
}

// resolvePath expands a leading ~ and cleans the path.
func resolvePath(p string) string {
	if p == "" {
		return p
	}
	if p[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return filepath.Clean(p)
}
