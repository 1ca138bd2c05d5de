package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"

	"github.com/jtsunne/esreshard/internal/format"
	"github.com/jtsunne/esreshard/internal/reshard"
)

var indexColumns = []string{"Index", "Shards", "Primary", "Step", "State", "Replacement", "Result"}

const (
	colState  = 4
	colResult = 6
)

// renderIndexTable renders one row per index with its current step.
func renderIndexTable(app *App) string {
	title := StyleDim.Render("Indices")
	if len(app.rows) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, StyleDim.Render("  (no indices)"))
	}

	rows := app.rows
	t := ltable.New().
		Headers(indexColumns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return StyleTableHeader
			}
			if row < 0 || row >= len(rows) {
				return StyleTableRow
			}
			r := rows[row]
			switch col {
			case colState:
				return StateStyle(r.State)
			case colResult:
				if r.Err != nil {
					return StyleRed
				}
				return OutcomeStyle(r.Outcome)
			}
			if row%2 == 0 {
				return StyleTableRow
			}
			return StyleTableRowAlt
		}).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(false)

	if app.width > 0 {
		t = t.Width(app.width)
	}

	for _, r := range rows {
		t = t.Row(indexCells(app, r)...)
	}

	out := lipgloss.JoinVertical(lipgloss.Left, title, t.String())
	if app.showDetails {
		if d := renderErrorDetails(app); d != "" {
			out = lipgloss.JoinVertical(lipgloss.Left, out, d)
		}
	}
	return out
}

// indexCells formats a row for the index table.
func indexCells(app *App, r *indexRow) []string {
	shards, primary := "-", "-"
	if d := r.Decision; d != nil {
		shards = fmt.Sprint(d.Current)
		if d.Target != d.Current {
			shards = format.FormatShardChange(d.Current, d.Target)
		}
		primary = format.FormatBytes(d.PrimarySizeBytes)
	}

	step := "-"
	if r.Step != 0 {
		step = r.Step.String()
		if r.Running && !r.Finished {
			step = app.spinner.View() + " " + step
		}
	}

	replacement := r.Replacement
	if replacement == "" {
		replacement = "-"
	}

	result := ""
	switch {
	case r.Err != nil:
		result = "failed"
		if reshard.IsPartial(r.Err) {
			result = "partial"
		}
	case r.Finished:
		result = r.Outcome.String()
		if !r.Updated.IsZero() && !r.Started.IsZero() {
			result += " in " + format.FormatDuration(r.Updated.Sub(r.Started))
		}
	case r.Running:
		result = "running"
	default:
		result = "waiting"
	}

	return []string{r.Name, shards, primary, step, r.State.String(), replacement, result}
}

// renderErrorDetails lists the full error of each failed index.
func renderErrorDetails(app *App) string {
	var lines []string
	for _, r := range app.rows {
		if r.Err != nil {
			lines = append(lines, StyleError.Render(r.Name+": ")+r.Err.Error())
		}
	}
	return strings.Join(lines, "\n")
}
