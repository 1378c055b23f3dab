// Package ui is the terminal order board built on Bubble Tea.
//
// The Model reads everything it shows from state.Store. It subscribes to
// order and settings changes and re-reads a snapshot on each signal, so
// optimistic writes, realtime refreshes and pages loaded by the pager all
// appear without the UI knowing where they came from.
//
// Writes go through the Mutations interface and run as tea.Cmds bounded by
// ActionTimeout. Their outcome is shown in the footer; a rolled back write
// needs no UI handling because the store already holds the restored record.
//
// # Views
//
//   - Board: filter tabs, order table and the detail pane of the selection
//   - Logs: the tail of the client log file
//   - Help: the key map as an overlay
//
// Theme and status filter are saved to the prefs file whenever they change.
package ui
