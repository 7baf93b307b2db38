package output

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Addon statuses shown in listings and reports
const (
	StatusInstalled = "Installed"
	StatusTracked   = "Tracked"
	StatusUntracked = "Untracked"
	StatusMissing   = "Missing"
	StatusFailed    = "Failed"
	StatusPruned    = "Pruned"
)

var (
	// Status colors
	Installed = color.New(color.FgGreen)
	Tracked   = color.New(color.FgCyan)
	Untracked = color.New(color.FgMagenta)
	Missing   = color.New(color.FgYellow)
	Failed    = color.New(color.FgRed)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header = color.New(color.FgWhite, color.Bold)
	Addon  = color.New(color.FgBlue, color.Bold)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// StatusColor returns the color for an addon status
func StatusColor(status string) *color.Color {
	switch status {
	case StatusInstalled:
		return Installed
	case StatusTracked:
		return Tracked
	case StatusUntracked:
		return Untracked
	case StatusMissing:
		return Missing
	case StatusFailed, StatusPruned:
		return Failed
	default:
		return color.New(color.Reset)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Printf("✓ "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	Warning.Printf("⚠ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Printf("→ "+format+"\n", args...)
}

// Sprintf returns a colored string without printing
func Sprintf(c *color.Color, format string, args ...interface{}) string {
	return c.Sprintf(format, args...)
}

// FormatStatus formats a status string with its color
func FormatStatus(status string) string {
	return StatusColor(status).Sprintf("[%s]", status)
}

// FormatAddon formats an addon name with color
func FormatAddon(name string) string {
	return Addon.Sprint(name)
}

// Progress renders "[done/total] message", or just the message without a total
func Progress(done, total int, message string) string {
	if total <= 0 {
		return message
	}
	return fmt.Sprintf("%s %s", Dim.Sprintf("[%d/%d]", done, total), message)
}
