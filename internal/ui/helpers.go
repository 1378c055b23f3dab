package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/frer-max/fassr/internal/api"
)

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

func pad(value string, width int) string {
	value = truncate(value, width)
	if n := width - len([]rune(value)); n > 0 {
		return value + strings.Repeat(" ", n)
	}
	return value
}

func formatMoney(settings api.Settings, amount float64) string {
	currency := "DA"
	if settings.Currency != nil && strings.TrimSpace(*settings.Currency) != "" {
		currency = strings.TrimSpace(*settings.Currency)
	}
	if amount == float64(int64(amount)) {
		return fmt.Sprintf("%d %s", int64(amount), currency)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func itemCount(o api.Order) int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

func customerName(o api.Order) string {
	if name := strings.TrimSpace(o.Customer.Name); name != "" {
		return name
	}
	return "walk-in"
}
