package output

import (
	"fmt"
	"strings"
)

// Section returns a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 60))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// KV returns one indented "label value" line.
func KV(label, value string) string {
	return "  " + StyleLabel.Render(label) + value
}

// Check renders a pass/fail marker followed by text.
func Check(ok bool, text string) string {
	if ok {
		return StyleSuccess.Render("✓") + " " + text
	}
	return StyleError.Render("✗") + " " + text
}

// Status renders a generation status: success in green, anything else as a
// failure in red.
func Status(status string) string {
	if status == "success" {
		return StyleSuccess.Render(status)
	}
	return StyleError.Render(status)
}

// Warn renders a degraded-result note.
func Warn(text string) string {
	return StyleWarning.Render("! " + text)
}
