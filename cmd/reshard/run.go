package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"

	"github.com/jtsunne/esreshard/internal/client"
	"github.com/jtsunne/esreshard/internal/format"
	"github.com/jtsunne/esreshard/internal/reshard"
	"github.com/jtsunne/esreshard/internal/tui"
)

func orchestratorOptions(cfg *arguments, c client.ClusterClient) []reshard.Option {
	return []reshard.Option{
		reshard.WithDryRun(cfg.DryRun),
		reshard.WithLogger(log.WithField("cluster", c.BaseURL())),
	}
}

// runOnce optimizes every index once and prints a summary line per index.
func runOnce(ctx context.Context, cfg *arguments, c client.ClusterClient, out io.Writer) error {
	o, err := reshard.New(ctx, c, orchestratorOptions(cfg, c)...)
	if err != nil {
		return err
	}
	results, err := o.OptimizeAll(ctx, cfg.Indices, cfg.Concurrency)
	return report(out, uniqueNames(cfg.Indices), results, err)
}

// runWithProgress is runOnce behind the progress view. Quitting the view
// cancels the workflows still running.
func runWithProgress(ctx context.Context, cfg *arguments, c client.ClusterClient, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	names := uniqueNames(cfg.Indices)
	app := tui.NewApp(c.BaseURL(), names, cfg.DryRun, cancel)
	p := tea.NewProgram(app, tea.WithContext(ctx))

	opts := append(orchestratorOptions(cfg, c), reshard.WithObserver(tui.NewObserver(p)))
	o, err := reshard.New(ctx, c, opts...)
	if err != nil {
		return err
	}

	var (
		results []*reshard.Result
		runErr  error
		done    = make(chan struct{})
	)
	go func() {
		defer close(done)
		results, runErr = o.OptimizeAll(ctx, names, cfg.Concurrency)
		p.Send(tui.DoneMsg{Results: results, Err: runErr})
	}()

	_, uiErr := p.Run()
	cancel()
	<-done
	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		log.WithError(uiErr).Warn("progress view failed")
	}
	return report(out, names, results, runErr)
}

// runScheduled runs runOnce on the cron schedule until ctx is done. A run
// still in progress when the next one is due makes the next one skip.
func runScheduled(ctx context.Context, cfg *arguments, c client.ClusterClient, out io.Writer) error {
	var running sync.Mutex
	job := func() {
		if !running.TryLock() {
			log.WithField("schedule", cfg.Schedule).Warn("previous run still in progress, skipping")
			return
		}
		defer running.Unlock()
		if err := runOnce(ctx, cfg, c, out); err != nil {
			log.WithError(err).Error("scheduled run failed")
		}
	}

	sched := cron.New()
	if err := sched.AddFunc(cfg.Schedule, job); err != nil {
		return errors.Wrapf(err, "schedule %q", cfg.Schedule)
	}
	sched.Start()
	defer sched.Stop()

	log.WithField("schedule", cfg.Schedule).Info("waiting for scheduled runs")
	<-ctx.Done()
	running.Lock() // let a run in flight return
	running.Unlock()
	return nil
}

// report prints one line per index and returns an error when any failed.
func report(out io.Writer, names []string, results []*reshard.Result, runErr error) error {
	failed := 0
	for i, name := range names {
		var r *reshard.Result
		if i < len(results) {
			r = results[i]
		}
		if r == nil {
			failed++
		}
		fmt.Fprintln(out, summaryLine(name, r))
	}
	if runErr != nil {
		if failed == 0 {
			return runErr
		}
		return errors.Wrap(runErr, failure(failed, len(names)).Error())
	}
	return nil
}

// summaryLine describes the result of one index on a single line.
func summaryLine(name string, r *reshard.Result) string {
	if r == nil {
		return fmt.Sprintf("%s: failed", name)
	}
	d := r.Decision
	switch r.Outcome {
	case reshard.OutcomeUnchanged:
		return fmt.Sprintf("%s: unchanged, %d shards for %s primary",
			name, d.Current, format.FormatBytes(d.PrimarySizeBytes))
	case reshard.OutcomePlanned:
		return fmt.Sprintf("%s: would %s %s for %s primary into %s",
			name, d.Action, format.FormatShardChange(d.Current, d.Target),
			format.FormatBytes(d.PrimarySizeBytes), r.Plan.Replacement)
	}

	line := fmt.Sprintf("%s: resharded %s into %s in %s",
		name, format.FormatShardChange(d.Current, d.Target), r.Plan.Replacement,
		format.FormatDuration(r.Duration()))
	if rx := r.Reindex; rx != nil && rx.Took > 0 {
		rate := float64(rx.Created) / (float64(rx.Took) / 1000)
		line += fmt.Sprintf(", %s docs at %s", format.FormatNumber(rx.Created), format.FormatRate(rate))
	}
	if r.CompactErr != nil {
		line += ", compaction failed"
	}
	return line
}

func uniqueNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
