package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisualLen(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"plain", "hello", 5},
		{"empty", "", 0},
		{"bold", "\x1b[1mhello\x1b[0m", 5},
		{"color", "\x1b[31mred\x1b[0m", 3},
		{"multiple sequences", "\x1b[1m\x1b[34mblue bold\x1b[0m", 9},
		{"multibyte", "✓ ok", 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, visualLen(tc.input))
		})
	}
}

func TestPad(t *testing.T) {
	assert.Equal(t, "hi        ", pad("hi", 10))
	assert.Equal(t, "hello", pad("hello", 5))
	assert.Equal(t, "toolong", pad("toolong", 3), "no truncation")
	assert.Equal(t, "\x1b[31mred\x1b[0m  ", pad("\x1b[31mred\x1b[0m", 5), "pads by visible width")
}

func TestTable_Render(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tbl := NewTable("Started", "Strategy")
	tbl.AddRow("2026-05-01 12:00", "local")
	tbl.AddRow("2026-05-02 09:30", "pr")

	out := tbl.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4, "header, rule, two rows")
	assert.Equal(t, "Started           Strategy", lines[0])
	assert.Contains(t, lines[1], "─")
	assert.Equal(t, "2026-05-02 09:30  pr      ", lines[3])
}

func TestTable_EmptyHeaders(t *testing.T) {
	assert.Empty(t, NewTable().Render())
}

func TestTable_Fprint(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tbl := NewTable("Col1")
	tbl.AddRow("Val1")

	var buf bytes.Buffer
	tbl.Fprint(&buf)
	assert.Equal(t, tbl.String(), buf.String())
}

func TestSetNoColor_Restores(t *testing.T) {
	SetNoColor(true)
	assert.True(t, IsNoColor())
	assert.NotContains(t, StyleHeader.Render("x"), "\x1b[")

	SetNoColor(false)
	assert.False(t, IsNoColor())
	assert.NotEqual(t, StyleHeader, StyleBold)
}

func TestRenderHelpers(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	assert.Equal(t, "✓ ready", Check(true, "ready"))
	assert.Equal(t, "✗ missing", Check(false, "missing"))
	assert.Equal(t, "success", Status("success"))
	assert.Equal(t, "  Files             12", KV("Files", "12"))
	assert.Contains(t, Section("Run"), "Run")
	assert.Equal(t, "! fallback", Warn("fallback"))
}
