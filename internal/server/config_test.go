package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/frer-max/fassr/internal/realtime"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.Store.Path != "" || cfg.Redis.Addr != "" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if cfg.Redis.Channel != realtime.DefaultChannel || cfg.Stream.Heartbeat != realtime.DefaultHeartbeat {
		t.Fatalf("realtime defaults = %#v %#v", cfg.Redis, cfg.Stream)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := `http:
  addr: ":9000"
  token: from-file
store:
  path: /var/lib/fassr/fassr.db
redis:
  addr: 127.0.0.1:6379
  db: 2
stream:
  heartbeat: 10s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FASSR_HTTP_TOKEN", "from-env")
	t.Setenv("FASSR_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":9000" || cfg.HTTP.Token != "from-env" {
		t.Fatalf("http = %#v", cfg.HTTP)
	}
	if cfg.Store.Path != "/var/lib/fassr/fassr.db" || cfg.Redis.Addr != "127.0.0.1:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("store/redis = %#v %#v", cfg.Store, cfg.Redis)
	}
	if cfg.Stream.Heartbeat != 10*time.Second || cfg.Log.Level != "debug" {
		t.Fatalf("stream/log = %#v %#v", cfg.Stream, cfg.Log)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	t.Setenv("FASSR_HTTP_ADDR", " ")
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected validation error for blank addr")
	}
}
