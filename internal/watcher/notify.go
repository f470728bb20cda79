package watcher

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// Notify shows a desktop notification for alert using osascript on macOS or
// notify-send on Linux. When neither works the alert is written to fallback.
func Notify(ctx context.Context, alert Alert, fallback io.Writer) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title "readmegen" subtitle %q`, alert.Message, alert.Title)
		cmd = exec.CommandContext(ctx, "osascript", "-e", script)
	case "linux":
		if _, err := exec.LookPath("notify-send"); err == nil {
			cmd = exec.CommandContext(ctx, "notify-send", "readmegen: "+alert.Title, alert.Message)
		}
	}
	if cmd != nil && cmd.Run() == nil {
		return nil
	}
	return FormatAlert(fallback, alert)
}

// FormatAlert writes alert as a single terminal line.
func FormatAlert(w io.Writer, alert Alert) error {
	_, err := fmt.Fprintf(w, "[%s] %s %s: %s\n", alert.Time.Format("15:04:05"), alert.Level, alert.Title, alert.Message)
	return err
}
