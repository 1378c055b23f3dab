package ui

import (
	"testing"
	"time"

	"github.com/frer-max/fassr/internal/api"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"negative", -5 * time.Second, "now"},
		{"subsecond", 200 * time.Millisecond, "now"},
		{"seconds", 12 * time.Second, "12s"},
		{"minutes", 61 * time.Second, "1m"},
		{"hours", 2*time.Hour + 10*time.Minute, "2h"},
		{"days", 72 * time.Hour, "3d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := humanizeDuration(tc.in); got != tc.want {
				t.Fatalf("humanizeDuration(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncateAndPad(t *testing.T) {
	if got := truncate("  Margherita  ", 5); got != "Marg…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 0); got != "" {
		t.Fatalf("truncate zero = %q", got)
	}
	if got := pad("ab", 4); got != "ab  " {
		t.Fatalf("pad = %q", got)
	}
	if got := pad("شوربة", 3); got != "شو…" {
		t.Fatalf("pad counts runes, got %q", got)
	}
}

func TestFormatMoney(t *testing.T) {
	if got := formatMoney(api.Settings{}, 350); got != "350 DA" {
		t.Fatalf("default currency = %q", got)
	}
	if got := formatMoney(api.Settings{Currency: api.Ptr(" EUR ")}, 12.5); got != "12.50 EUR" {
		t.Fatalf("custom currency = %q", got)
	}
}

func TestFilters(t *testing.T) {
	if ParseFilter(" Ready ") != Filter(api.StatusReady) {
		t.Fatalf("ParseFilter should accept statuses")
	}
	if ParseFilter("archived") != FilterActive {
		t.Fatalf("unknown filter should fall back to active")
	}
	if FilterActive.next(-1) != FilterAll || FilterAll.next(1) != FilterActive {
		t.Fatalf("filter cycle does not wrap")
	}

	counts := countByFilter(sampleOrders())
	if counts[FilterActive] != 2 || counts[FilterAll] != 3 || counts[Filter(api.StatusDelivered)] != 1 {
		t.Fatalf("counts = %#v", counts)
	}
	if Filter(api.StatusPreparing).Label() != "Preparing" {
		t.Fatalf("label = %q", Filter(api.StatusPreparing).Label())
	}
}

func TestThemes(t *testing.T) {
	if NextTheme("Slate") != "Nightfox" || NextTheme("unknown") != "Nightfox" {
		t.Fatalf("NextTheme does not wrap")
	}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range api.Statuses {
			if th.StatusColors[string(status)] == "" {
				t.Fatalf("theme %s has no color for %s", name, status)
			}
		}
	}
	if GetTheme("missing").Name != "Nightfox" {
		t.Fatalf("unknown theme should fall back to Nightfox")
	}
}
