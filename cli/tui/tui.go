package tui

import (
	"fmt"
	"strings"
)

// tuiPrefixes are the view type families with an interactive rendering.
// Only the read-only inspect and stats commands support TUI mode.
var tuiPrefixes = []string{"inspect_", "stats_"}

// Run starts the appropriate TUI based on the view type.
// Returns an error if the view type doesn't support TUI.
func Run(viewType string, data any) error {
	switch {
	case strings.HasPrefix(viewType, "inspect_"):
		return RunInspectTUI(viewType, data)
	case strings.HasPrefix(viewType, "stats_"):
		return RunStatsTUI(viewType, data)
	default:
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
}

// IsTUISupported returns true if the view type supports TUI mode.
func IsTUISupported(viewType string) bool {
	for _, prefix := range tuiPrefixes {
		if strings.HasPrefix(viewType, prefix) {
			return true
		}
	}
	return false
}

// SupportedTUIViews returns the view types with a TUI rendering.
func SupportedTUIViews() []string {
	return []string{
		"inspect_transfer",
		"stats_transfers",
	}
}
