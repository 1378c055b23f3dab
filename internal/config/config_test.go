package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	wantCache, err := expandPath(defaultCachePath)
	if err != nil {
		t.Fatalf("expandPath(defaultCachePath) returned error: %v", err)
	}
	if cfg.CachePath != wantCache {
		t.Fatalf("CachePath = %q, want %q", cfg.CachePath, wantCache)
	}
	if !strings.HasPrefix(cfg.LogPath, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", cfg.LogPath, home)
	}
	if cfg.PageSize != 20 || cfg.ReconnectDelay() != 5*time.Second || cfg.RefreshInterval() != 30*time.Second {
		t.Fatalf("defaults = %#v", cfg)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
api_url = "  https://orders.example.com  "
token = " s3cret "
cache_path = "  ~/.fassr/cache.db  "
log_level = "DEBUG"
page_size = 50
reconnect_seconds = 2
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://orders.example.com" || cfg.Token != "s3cret" {
		t.Fatalf("APIURL/Token = %q/%q", cfg.APIURL, cfg.Token)
	}
	if cfg.CachePath != filepath.Join(home, ".fassr", "cache.db") {
		t.Fatalf("CachePath = %q, want it under HOME %q", cfg.CachePath, home)
	}
	if cfg.LogLevel != "debug" || cfg.PageSize != 50 || cfg.ReconnectDelay() != 2*time.Second {
		t.Fatalf("parsed = %#v", cfg)
	}
	if cfg.RefreshSeconds != defaultRefreshSeconds {
		t.Fatalf("RefreshSeconds = %d, want default", cfg.RefreshSeconds)
	}
}

func TestLoad_InvalidValuesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("page_size = -3\nrefresh_seconds = 0\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.PageSize != defaultPageSize || cfg.RefreshSeconds != defaultRefreshSeconds {
		t.Fatalf("cfg = %#v", cfg)
	}
}

func TestLoad_InvalidTOMLReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("api_url = [\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_OpenErrorIsReturned(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error when path is a directory")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/x/y")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Fatalf("expandPath = %q", got)
	}
	if _, err := expandPath("   "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
