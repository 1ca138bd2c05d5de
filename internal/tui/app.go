package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jtsunne/esreshard/internal/format"
	"github.com/jtsunne/esreshard/internal/model"
	"github.com/jtsunne/esreshard/internal/reshard"
)

// indexRow is the progress of one index.
type indexRow struct {
	Name        string
	Replacement string
	Step        reshard.Step
	State       reshard.State
	Running     bool
	Finished    bool
	Outcome     reshard.Outcome
	Decision    *model.Decision
	Err         error
	Started     time.Time
	Updated     time.Time
}

// App is the root Bubble Tea model for the reshard progress view.
type App struct {
	baseURL string
	dryRun  bool
	cancel  context.CancelFunc

	rows     []*indexRow
	byName   map[string]*indexRow
	activity *model.ActivityLog
	spinner  spinner.Model

	started time.Time
	now     func() time.Time
	done    bool
	err     error

	// Layout
	width, height int

	// UI state
	showHelp    bool
	showDetails bool
}

// NewApp creates an App tracking indices in the given order. cancel is
// called when the user quits before the workflows finish; it may be nil.
func NewApp(baseURL string, indices []string, dryRun bool, cancel context.CancelFunc) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StyleCyan

	app := &App{
		baseURL:  baseURL,
		dryRun:   dryRun,
		cancel:   cancel,
		byName:   make(map[string]*indexRow, len(indices)),
		activity: model.NewActivityLog(0),
		spinner:  s,
		now:      time.Now,
	}
	for _, name := range indices {
		if _, ok := app.byName[name]; ok {
			continue
		}
		r := &indexRow{Name: name}
		app.rows = append(app.rows, r)
		app.byName[name] = r
	}
	app.started = app.now()
	return app
}

// Init implements tea.Model. Starts the spinner.
func (app *App) Init() tea.Cmd {
	return app.spinner.Tick
}

// Update implements tea.Model. It is the single state-mutation entry point.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case spinner.TickMsg:
		if app.done {
			return app, nil
		}
		var cmd tea.Cmd
		app.spinner, cmd = app.spinner.Update(msg)
		return app, cmd

	case EventMsg:
		app.apply(msg.Event)

	case DoneMsg:
		app.done = true
		app.err = msg.Err
		return app, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			if !app.done && app.cancel != nil {
				app.cancel()
			}
			return app, tea.Quit
		case key.Matches(msg, keys.Help):
			app.showHelp = !app.showHelp
		case key.Matches(msg, keys.Details):
			app.showDetails = !app.showDetails
		}
	}

	return app, nil
}

// apply folds a workflow event into the row of its index and the activity log.
func (app *App) apply(e reshard.Event) {
	r, ok := app.byName[e.Index]
	if !ok {
		r = &indexRow{Name: e.Index}
		app.rows = append(app.rows, r)
		app.byName[e.Index] = r
	}
	if r.Started.IsZero() {
		r.Started = e.At
	}
	r.Updated = e.At
	r.State = e.State
	if e.Replacement != "" {
		r.Replacement = e.Replacement
	}
	if e.Decision != nil {
		d := *e.Decision
		r.Decision = &d
	}

	line := model.ActivityLine{At: e.At, Index: e.Index}
	switch e.Kind {
	case reshard.EventStepStarted:
		r.Running = true
		r.Step = e.Step
		return // too chatty for the log
	case reshard.EventStepCompleted:
		r.Step = e.Step
		if e.State.Terminal() {
			r.Running = false
		}
		line.Text = fmt.Sprintf("%s done → %s", e.Step, e.State)
		if e.Step == reshard.StepFetch && r.Decision != nil {
			line.Text += ", " + describeDecision(r.Decision)
		}
	case reshard.EventStepFailed:
		r.Step = e.Step
		line.Failed = true
		line.Text = fmt.Sprintf("%s failed: %v", e.Step, e.Err)
		if e.Step == reshard.StepCompact {
			line.Text = fmt.Sprintf("compaction failed (ignored): %v", e.Err)
		}
	case reshard.EventFinished:
		r.Running = false
		r.Finished = true
		r.Outcome = e.Outcome
		r.Err = e.Err
		if e.Err != nil {
			line.Failed = true
			line.Text = "aborted"
		} else {
			line.Text = e.Outcome.String()
		}
	}
	app.activity.Push(line)
}

func describeDecision(d *model.Decision) string {
	if !d.Changes() {
		return fmt.Sprintf("%d shards ok at %s", d.Current, format.FormatBytes(d.PrimarySizeBytes))
	}
	return fmt.Sprintf("%s %s at %s", d.Action, format.FormatShardChange(d.Current, d.Target), format.FormatBytes(d.PrimarySizeBytes))
}

// counts returns how many rows finished and how many failed.
func (app *App) counts() (finished, failed int) {
	for _, r := range app.rows {
		if r.Finished {
			finished++
			if r.Err != nil {
				failed++
			}
		}
	}
	return finished, failed
}

// View implements tea.Model. Renders the full TUI.
func (app *App) View() string {
	parts := []string{
		renderHeader(app),
		renderIndexTable(app),
	}
	if a := renderActivity(app); a != "" {
		parts = append(parts, a)
	}
	parts = append(parts, renderFooter(app))
	return strings.Join(parts, "\n")
}
