package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr               string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath       string        `mapstructure:"database_path" yaml:"database_path"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	SessionBuffer      int           `mapstructure:"session_buffer" yaml:"session_buffer"`
	TypingIdle         time.Duration `mapstructure:"typing_idle" yaml:"typing_idle"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"` // 0 disables
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "presence.db",
		MaxMessageBytes:   64 << 10,
		SessionBuffer:     32,
		TypingIdle:        time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.SessionBuffer != 0 {
		c.SessionBuffer = other.SessionBuffer
	}
	if other.TypingIdle != 0 {
		c.TypingIdle = other.TypingIdle
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
}
