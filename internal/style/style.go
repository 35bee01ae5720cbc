// Package style holds the shared lipgloss styles for CLI output.
package style

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorInfo    = lipgloss.Color("39")  // blue
	colorSuccess = lipgloss.Color("76")  // green
	colorWarning = lipgloss.Color("214") // orange
	colorError   = lipgloss.Color("196") // red
	colorMuted   = lipgloss.Color("242") // gray
)

var (
	// Bold marks the headline of a message.
	Bold = lipgloss.NewStyle().Bold(true)

	// Dim renders secondary detail like hints and endpoints.
	Dim = lipgloss.NewStyle().Foreground(colorMuted)

	// Info highlights progress messages.
	Info = lipgloss.NewStyle().Foreground(colorInfo)

	// Success marks a completed operation.
	Success = lipgloss.NewStyle().Foreground(colorSuccess)

	// Warning marks degraded but non-fatal conditions.
	Warning = lipgloss.NewStyle().Foreground(colorWarning)

	// Error marks failures.
	Error = lipgloss.NewStyle().Foreground(colorError).Bold(true)
)
