package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/frer-max/fassr/internal/realtime"
)

// Config holds the server settings.
type Config struct {
	HTTP   HTTPConfig   `mapstructure:"http"`
	Store  StoreConfig  `mapstructure:"store"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Stream StreamConfig `mapstructure:"stream"`
	Log    LogConfig    `mapstructure:"log"`
}

// HTTPConfig configures the listener. A non-empty Token is required as a
// bearer credential on every /api route.
type HTTPConfig struct {
	Addr  string `mapstructure:"addr"`
	Token string `mapstructure:"token"`
}

// StoreConfig selects the repository. An empty Path keeps records in memory.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig enables the cross-process signal relay when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// StreamConfig tunes the update stream.
type StreamConfig struct {
	Heartbeat time.Duration `mapstructure:"heartbeat"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads the optional config file at path and applies FASSR_*
// environment overrides, e.g. FASSR_HTTP_ADDR for http.addr.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.token", "")
	v.SetDefault("store.path", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", realtime.DefaultChannel)
	v.SetDefault("stream.heartbeat", realtime.DefaultHeartbeat)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("FASSR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable fallback.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.Stream.Heartbeat < 0 {
		return fmt.Errorf("stream.heartbeat must not be negative")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must not be negative")
	}
	return nil
}
