// Package output provides styled terminal rendering helpers for readmegen.
package output

import "github.com/charmbracelet/lipgloss"

// Color constants for consistent styling across the CLI.
var (
	// ColorPrimary is used for headers and emphasis.
	ColorPrimary = lipgloss.Color("#64b5f6")

	// ColorSuccess is used for completed steps.
	ColorSuccess = lipgloss.Color("#66bb6a")

	// ColorError is used for failed steps.
	ColorError = lipgloss.Color("#ef5350")

	// ColorWarning is used for degraded results.
	ColorWarning = lipgloss.Color("#fff59d")

	// ColorMuted is used for secondary text and borders.
	ColorMuted = lipgloss.Color("#888888")
)

// Styles provides reusable lipgloss styles.
var (
	StyleHeader  lipgloss.Style
	StyleSuccess lipgloss.Style
	StyleError   lipgloss.Style
	StyleWarning lipgloss.Style
	StyleMuted   lipgloss.Style
	StyleBold    lipgloss.Style

	// StyleLabel is used for key/value labels.
	StyleLabel lipgloss.Style
)

const labelWidth = 18

func init() {
	SetNoColor(false)
}

// noColor tracks whether color output is disabled.
var noColor bool

// SetNoColor disables or enables color output globally by reassigning the
// package-level styles.
func SetNoColor(disabled bool) {
	noColor = disabled
	if disabled {
		plain := lipgloss.NewStyle()
		StyleHeader = plain
		StyleSuccess = plain
		StyleError = plain
		StyleWarning = plain
		StyleMuted = plain
		StyleBold = plain
		StyleLabel = plain.Width(labelWidth)
		return
	}

	StyleHeader = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleBold = lipgloss.NewStyle().Bold(true)
	StyleLabel = lipgloss.NewStyle().Foreground(ColorMuted).Width(labelWidth)
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}
