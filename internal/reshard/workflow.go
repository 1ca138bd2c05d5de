package reshard

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/jtsunne/esreshard/internal/client"
	"github.com/jtsunne/esreshard/internal/engine"
	"github.com/jtsunne/esreshard/internal/model"
)

// workflow is the state of one Optimize or Reshard call. It is owned by a
// single goroutine.
type workflow struct {
	o      *Orchestrator
	index  string
	state  State
	plan   *model.ReshardPlan
	result *Result

	sourceDeleted bool
}

func (o *Orchestrator) newWorkflow(index string) *workflow {
	return &workflow{
		o:      o,
		index:  index,
		state:  StateIdle,
		result: &Result{Index: index, Started: o.now()},
	}
}

func (w *workflow) emit(kind EventKind, step Step, err error) {
	e := Event{
		Kind:    kind,
		Index:   w.index,
		Step:    step,
		State:   w.state,
		Plan:    w.plan,
		Outcome: w.result.Outcome,
		Err:     err,
		At:      w.o.now(),
	}
	if w.plan != nil {
		e.Replacement = w.plan.Replacement
	}
	if w.result.Decision.Current > 0 {
		d := w.result.Decision
		e.Decision = &d
	}
	w.o.logs.Observe(e)
	w.o.observer.Observe(e)
}

func (w *workflow) started(step Step) {
	w.emit(EventStepStarted, step, nil)
}

func (w *workflow) completed(step Step) {
	w.state = step.Reaches()
	w.result.State = w.state
	w.emit(EventStepCompleted, step, nil)
}

// abort moves the workflow to StateAborted and returns err. Failures of
// mutating steps are wrapped in a PartialWorkflowError.
func (w *workflow) abort(step Step, err error) error {
	last := w.state
	if step.Mutates() {
		pe := &PartialWorkflowError{
			Index:         w.index,
			Step:          step,
			LastCompleted: last,
			SourceDeleted: w.sourceDeleted,
			Err:           err,
		}
		if w.plan != nil {
			pe.Source = w.plan.Source
			pe.Replacement = w.plan.Replacement
		}
		err = pe
	}
	w.state = StateAborted
	w.result.State = StateAborted
	w.emit(EventStepFailed, step, err)
	return err
}

// finish emits the final event and returns err unchanged.
func (w *workflow) finish(err error) error {
	w.result.Finished = w.o.now()
	w.emit(EventFinished, 0, err)
	return err
}

// fetch runs step 1. On success the state stays Idle until the caller has
// validated the result and calls completed(StepFetch).
func (w *workflow) fetch(ctx context.Context) (*engine.IndexState, error) {
	w.started(StepFetch)
	state, err := engine.FetchIndexState(ctx, w.o.client, w.index)
	if err != nil {
		return nil, w.abort(StepFetch, classifyReadError(w.index, "fetch "+w.index, "cannot read index state", err))
	}
	return state, nil
}

// classifyReadError maps a failed read to a TransientClientError only when a
// retry can cure it: network trouble, timeouts, 429 and 5xx, or a cancelled
// context. Rejections such as 401 or 403 and undecodable responses are
// PreconditionErrors.
func classifyReadError(index, op, reason string, err error) error {
	switch {
	case client.IsNotFound(err):
		return &PreconditionError{Index: index, Reason: "index not found", Err: err}
	case errors.Is(err, client.ErrAmbiguousIndex):
		return &PreconditionError{Index: index, Reason: "name resolves to more than one index", Err: err}
	case client.IsTransient(err), errors.Is(err, context.Canceled):
		return &TransientClientError{Op: op, Err: errors.WithStack(err)}
	}
	return &PreconditionError{Index: index, Reason: reason, Err: err}
}

// run executes steps 2 to 6 for a fetched index.
func (w *workflow) run(ctx context.Context, state *engine.IndexState, target int) (*Result, error) {
	if err := w.planStep(state, target); err != nil {
		return nil, w.finish(err)
	}
	if w.o.dryRun {
		w.result.Outcome = OutcomePlanned
		return w.result, w.finish(nil)
	}

	steps := []struct {
		step Step
		fn   func(context.Context) error
	}{
		{StepCreate, w.createStep},
		{StepReindex, w.reindexStep},
		{StepRepoint, w.repointStep},
	}
	for _, s := range steps {
		w.started(s.step)
		if err := ctx.Err(); err != nil {
			if w.state < StateReplacementCreated {
				// Nothing was changed yet.
				err = w.abortClean(s.step, &TransientClientError{Op: s.step.String(), Err: err})
				return nil, w.finish(err)
			}
			return nil, w.finish(w.abort(s.step, errors.Wrap(err, "cancelled")))
		}
		if err := s.fn(ctx); err != nil {
			return nil, w.finish(w.abort(s.step, err))
		}
		w.completed(s.step)
	}
	w.result.Outcome = OutcomeResharded

	w.started(StepCompact)
	if err := w.o.client.ForceMerge(ctx, w.plan.Replacement); err != nil {
		w.result.CompactErr = errors.Wrapf(err, "force-merge %s", w.plan.Replacement)
		w.emit(EventStepFailed, StepCompact, w.result.CompactErr)
	} else {
		w.completed(StepCompact)
	}
	return w.result, w.finish(nil)
}

// abortClean aborts before any mutation without reporting a partial failure.
func (w *workflow) abortClean(step Step, err error) error {
	w.state = StateAborted
	w.result.State = StateAborted
	w.emit(EventStepFailed, step, err)
	return err
}

func (w *workflow) planStep(state *engine.IndexState, target int) error {
	w.started(StepPlan)
	plan, err := engine.BuildPlan(w.o.snapshot, w.index, state.Config, state.Stats, target, w.o.newID())
	if err != nil {
		return w.abort(StepPlan, &PreconditionError{Index: w.index, Reason: "cannot plan replacement", Err: err})
	}
	for _, a := range state.Config.Aliases {
		if a != w.index {
			plan.Aliases = append(plan.Aliases, a)
		}
	}
	w.plan = plan
	w.result.Plan = plan
	w.completed(StepPlan)
	return nil
}

func (w *workflow) createStep(ctx context.Context) error {
	p := w.plan
	ok, err := w.o.client.CreateIndex(ctx, p.Replacement, client.CreateIndexRequest{
		Mappings: p.Mappings,
		Shards:   p.Shards,
		Replicas: p.Replicas,
		Analysis: p.Analysis,
	}, p.CreateTimeout)
	if err != nil {
		return errors.Wrapf(err, "create %s", p.Replacement)
	}
	if !ok {
		return errors.Errorf("create %s: shards not allocated within %s", p.Replacement, p.CreateTimeout)
	}
	return nil
}

func (w *workflow) reindexStep(ctx context.Context) error {
	p := w.plan
	res, err := w.o.client.Reindex(ctx, p.Source, p.Replacement, p.Slices, p.ReindexTimeout)
	w.result.Reindex = res
	if err != nil {
		return errors.Wrapf(err, "reindex %s into %s", p.Source, p.Replacement)
	}
	if !res.Complete() {
		return errors.Wrapf(res.Err(), "reindex %s into %s", p.Source, p.Replacement)
	}
	return nil
}

// repointStep deletes the source, then binds the external name and the
// source's other aliases to the replacement. The name is unbound between
// the two calls.
func (w *workflow) repointStep(ctx context.Context) error {
	p := w.plan
	ok, err := w.o.client.DeleteIndex(ctx, p.Source)
	if err != nil {
		return errors.Wrapf(err, "delete %s", p.Source)
	}
	if !ok {
		return errors.Errorf("delete %s: not acknowledged", p.Source)
	}
	w.sourceDeleted = true

	if err := w.o.client.UpdateAlias(ctx, p.Replacement, p.Index, client.AliasAdd); err != nil {
		return errors.Wrapf(err, "bind %s to %s", p.Index, p.Replacement)
	}

	var failed []string
	for _, a := range p.Aliases {
		if err := w.o.client.UpdateAlias(ctx, p.Replacement, a, client.AliasAdd); err != nil {
			failed = append(failed, a+": "+err.Error())
		}
	}
	if len(failed) > 0 {
		// The external name is bound, so report but keep the reshard.
		w.o.logger.WithField("index", w.index).
			WithField("replacement", p.Replacement).
			Warnf("could not carry over aliases: %s", strings.Join(failed, "; "))
	}
	return nil
}
