package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWritesJSONThatTailReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fassr.log")
	logger, err := New("info", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("orders refreshed", zap.Int("count", 3))
	logger.Warn("stream lost", zap.String("reason", "eof"))
	_ = logger.Sync()

	entries, err := Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %#v, want 2 (debug filtered)", entries)
	}
	if entries[0].Level != "info" || entries[0].Message != "orders refreshed" {
		t.Fatalf("first entry = %#v", entries[0])
	}
	if entries[0].Time.IsZero() {
		t.Fatalf("timestamp not parsed from %q", entries[0].Raw)
	}
	if !strings.Contains(entries[1].String(), "WARN stream lost reason=eof") {
		t.Fatalf("String() = %q", entries[1].String())
	}
}

func TestTailKeepsLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.log")
	var content strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&content, "Line %d\n", i)
	}
	if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		first    string
		count    int
	}{
		{"partial", 5, "Line 6", 5},
		{"exact", 10, "Line 1", 10},
		{"more than exists", 20, "Line 1", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Tail(path, tt.maxLines)
			if err != nil {
				t.Fatalf("Tail: %v", err)
			}
			if len(entries) != tt.count || entries[0].String() != tt.first {
				t.Fatalf("got %d entries starting %q", len(entries), entries[0].String())
			}
			if last := entries[len(entries)-1].Raw; last != "Line 10" {
				t.Fatalf("last = %q", last)
			}
		})
	}

	if entries, err := Tail(path, 0); err != nil || entries != nil {
		t.Fatalf("Tail(0) = %#v, %v", entries, err)
	}
	if entries, err := Tail(filepath.Join(t.TempDir(), "missing.log"), 5); err != nil || entries != nil {
		t.Fatalf("missing file = %#v, %v", entries, err)
	}
}
