package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings.
type Config struct {
	APIURL           string
	Token            string
	CachePath        string
	LogPath          string
	LogLevel         string
	PageSize         int
	ReconnectSeconds int
	RefreshSeconds   int
}

const (
	defaultConfigPath       = "~/.config/fassr/config.toml"
	defaultAPIURL           = "http://127.0.0.1:8080"
	defaultCachePath        = "~/.local/share/fassr/cache.db"
	defaultLogPath          = "~/.local/share/fassr/fassr.log"
	defaultLogLevel         = "info"
	defaultPageSize         = 20
	defaultReconnectSeconds = 5
	defaultRefreshSeconds   = 30
)

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		APIURL:           defaultAPIURL,
		CachePath:        mustExpand(defaultCachePath),
		LogPath:          mustExpand(defaultLogPath),
		LogLevel:         defaultLogLevel,
		PageSize:         defaultPageSize,
		ReconnectSeconds: defaultReconnectSeconds,
		RefreshSeconds:   defaultRefreshSeconds,
	}
}

// Load locates and parses the client config, falling back to defaults when
// the file or any field is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL           string `toml:"api_url"`
		Token            string `toml:"token"`
		CachePath        string `toml:"cache_path"`
		LogPath          string `toml:"log_path"`
		LogLevel         string `toml:"log_level"`
		PageSize         int    `toml:"page_size"`
		ReconnectSeconds int    `toml:"reconnect_seconds"`
		RefreshSeconds   int    `toml:"refresh_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.Token = strings.TrimSpace(raw.Token)
	if v := strings.TrimSpace(raw.CachePath); v != "" {
		cfg.CachePath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogPath); v != "" {
		cfg.LogPath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}
	if raw.ReconnectSeconds > 0 {
		cfg.ReconnectSeconds = raw.ReconnectSeconds
	}
	if raw.RefreshSeconds > 0 {
		cfg.RefreshSeconds = raw.RefreshSeconds
	}
	return cfg, nil
}

// ReconnectDelay is the wait between update stream connection attempts.
func (c Config) ReconnectDelay() time.Duration {
	if c.ReconnectSeconds <= 0 {
		return defaultReconnectSeconds * time.Second
	}
	return time.Duration(c.ReconnectSeconds) * time.Second
}

// RefreshInterval is the background refresh cadence.
func (c Config) RefreshInterval() time.Duration {
	if c.RefreshSeconds <= 0 {
		return defaultRefreshSeconds * time.Second
	}
	return time.Duration(c.RefreshSeconds) * time.Second
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
