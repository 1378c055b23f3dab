package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the detail pane is
	// stacked under the table instead of beside it.
	LayoutCompactWidth = 110

	// LayoutPhoneWidth is the minimum width to show the phone column.
	LayoutPhoneWidth = 90
)

// Timing constants.
const (
	// DefaultUIInterval is the clock tick for relative times and the
	// connection indicator.
	DefaultUIInterval = time.Second

	// FlashDuration is how long a status message stays in the footer.
	FlashDuration = 4 * time.Second

	// ActionTimeout bounds one write or fetch started from the keyboard.
	ActionTimeout = 15 * time.Second

	// LogTailLines is the number of log lines shown in the log view.
	LogTailLines = 400
)
