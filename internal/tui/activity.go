package tui

import (
	"strings"
)

// activityLines is how many log lines fit under the table by default.
const activityLines = 8

// renderActivity renders the most recent activity lines, oldest first.
// It returns "" when nothing happened yet.
func renderActivity(app *App) string {
	n := activityLines
	if app.height > 0 {
		// header + table header + rule + rows + title + footer
		free := app.height - len(app.rows) - 5
		if free < n {
			n = free
		}
	}
	lines := app.activity.Last(n)
	if len(lines) == 0 {
		return ""
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, StyleDim.Render("Activity"))
	for _, l := range lines {
		text := StyleDim.Render(l.At.Format("15:04:05")) + " " + StyleCyan.Render(l.Index) + " " + l.Text
		if l.Failed {
			text = StyleDim.Render(l.At.Format("15:04:05")) + " " + StyleCyan.Render(l.Index) + " " + StyleError.Render(l.Text)
		}
		out = append(out, text)
	}
	return strings.Join(out, "\n")
}
