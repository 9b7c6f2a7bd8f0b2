package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix         = "PRESENCE"
	defaultConfigName = "config.yaml"
)

type setting struct {
	key   string
	value any
}

// settings lists every config key with its value from cfg, in file order.
// Durations are kept as strings so a written file reads "5s", not nanoseconds.
func settings(cfg Config) []setting {
	return []setting{
		{"addr", cfg.Addr},
		{"read_header_timeout", cfg.ReadHeaderTimeout.String()},
		{"shutdown_timeout", cfg.ShutdownTimeout.String()},
		{"log_level", cfg.LogLevel},
		{"database_path", cfg.DatabasePath},
		{"max_message_bytes", cfg.MaxMessageBytes},
		{"session_buffer", cfg.SessionBuffer},
		{"typing_idle", cfg.TypingIdle.String()},
		{"rate_limit_per_minute", cfg.RateLimitPerMinute},
	}
}

// Load resolves configuration and returns it with the file path used.
// Precedence: defaults < config file < PRESENCE_* env vars. An empty path
// means ./config.yaml; a missing file is created from the defaults.
func Load(logger *zerolog.Logger, path string) (Config, string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if path == "" {
		path = defaultConfigName
	}

	defaults := settings(Default())

	v := viper.New()
	v.SetConfigType("yaml")
	for _, s := range defaults {
		v.SetDefault(s.key, s.value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)

	err := v.ReadInConfig()
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		if err := writeDefaultConfig(path, defaults); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to write default config")
		} else {
			logger.Info().Str("path", path).Msg("created default config")
		}
	default:
		return Default(), path, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), path, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, path, nil
}

// writeDefaultConfig renders the settings as an ordered YAML mapping.
func writeDefaultConfig(path string, defaults []setting) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range defaults {
		var value yaml.Node
		if err := value.Encode(s.value); err != nil {
			return fmt.Errorf("encode %s: %w", s.key, err)
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: s.key}, &value)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
