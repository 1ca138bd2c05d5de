package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jtsunne/esreshard/internal/format"
)

// renderHeader renders the top header bar.
//
// Layout:
//
//	left:   cluster URL, with a DRY RUN marker when nothing will change
//	center: spinner with "N/M" progress, or the final verdict
//	right:  elapsed time
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	left := "esreshard " + app.baseURL
	if app.dryRun {
		left += "  " + StylePurple.Render("DRY RUN")
	}

	finished, failed := app.counts()
	total := len(app.rows)
	var center string
	switch {
	case !app.done:
		center = fmt.Sprintf("%s %d/%d", app.spinner.View(), finished, total)
	case failed > 0 || app.err != nil:
		center = StyleError.Render(fmt.Sprintf("● FAILED %d/%d", failed, total))
	default:
		center = StyleOK.Render(fmt.Sprintf("● DONE %d/%d", finished, total))
	}

	right := StyleDim.Render("Elapsed: " + format.FormatDuration(app.now().Sub(app.started)))

	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	innerWidth := width - 2
	spacing := innerWidth - lipgloss.Width(left) - lipgloss.Width(center) - lipgloss.Width(right)
	if spacing < 0 {
		spacing = 0
	}
	leftSpacing := spacing / 2
	rightSpacing := spacing - leftSpacing

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right

	return StyleHeader.Width(width).Render(row)
}
