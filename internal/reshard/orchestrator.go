package reshard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/jtsunne/esreshard/internal/client"
	"github.com/jtsunne/esreshard/internal/engine"
	"github.com/jtsunne/esreshard/internal/model"
)

// Outcome tells a caller what a successful call did.
type Outcome int

const (
	// OutcomeUnchanged means the index already has the right shard count.
	OutcomeUnchanged Outcome = iota
	// OutcomePlanned means a dry run computed a plan and stopped.
	OutcomePlanned
	// OutcomeResharded means the name now points at a replacement index.
	OutcomeResharded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomePlanned:
		return "planned"
	case OutcomeResharded:
		return "resharded"
	}
	return "unknown"
}

// Result describes a successful Optimize or Reshard call.
type Result struct {
	Index    string
	Outcome  Outcome
	State    State
	Decision model.Decision
	Plan     *model.ReshardPlan    // nil when Outcome is OutcomeUnchanged
	Reindex  *client.ReindexResult // nil unless the reindex step ran
	// CompactErr is the force-merge failure, if any. It does not make the
	// call fail: the name is already bound to the replacement.
	CompactErr error
	Started    time.Time
	Finished   time.Time
}

// Duration returns how long the call took.
func (r *Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Orchestrator runs reshard workflows against one cluster. The cluster
// snapshot is captured once in New and shared read-only by every workflow,
// so an Orchestrator is safe for concurrent use.
type Orchestrator struct {
	client   client.ClusterClient
	snapshot model.ClusterSnapshot
	logger   *log.Entry
	logs     *LogObserver
	observer Observer
	newID    func() string
	now      func() time.Time
	dryRun   bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver adds an observer. It may be given several times.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs == nil {
			return
		}
		if m, ok := o.observer.(MultiObserver); ok {
			o.observer = append(m, obs)
			return
		}
		o.observer = MultiObserver{obs}
	}
}

// WithLogger sets the entry workflow events are logged to. Events are
// always logged; other observers see them after the logger.
func WithLogger(l *log.Entry) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithIDGenerator replaces the replacement index name generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithDryRun makes every workflow stop after planning.
func WithDryRun(dry bool) Option {
	return func(o *Orchestrator) {
		o.dryRun = dry
	}
}

// WithClock replaces time.Now for event and result timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New captures the cluster snapshot and returns an Orchestrator. A cluster
// without data nodes cannot host a replacement and is rejected.
func New(ctx context.Context, c client.ClusterClient, opts ...Option) (*Orchestrator, error) {
	if c == nil {
		return nil, errors.New("reshard: nil cluster client")
	}
	o := &Orchestrator{
		client:   c,
		logger:   log.WithField("component", "reshard"),
		observer: nopObserver{},
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logs = NewLogObserver(o.logger)

	snap, err := c.GetClusterStats(ctx)
	if err != nil {
		return nil, classifyReadError("*", "cluster stats", "cannot read cluster stats", err)
	}
	if snap == nil {
		return nil, &TransientClientError{Op: "cluster stats", Err: errors.New("empty response")}
	}
	if snap.DataNodes < 1 {
		return nil, &PreconditionError{Index: "*", Reason: "cluster reports no data nodes"}
	}
	o.snapshot = *snap

	o.logger.WithFields(log.Fields{
		"data_nodes": snap.DataNodes,
		"indices":    snap.Indices,
		"shards":     snap.Shards,
	}).Debug("cluster snapshot captured")
	return o, nil
}

// Snapshot returns the cluster facts captured by New.
func (o *Orchestrator) Snapshot() model.ClusterSnapshot {
	return o.snapshot
}

// DryRun reports whether workflows stop after planning.
func (o *Orchestrator) DryRun() bool {
	return o.dryRun
}

// Optimize fetches the state of index, asks the sizing policy for a target
// shard count and reshards only when the target differs. An index already
// at its target returns OutcomeUnchanged without touching the cluster.
func (o *Orchestrator) Optimize(ctx context.Context, index string) (*Result, error) {
	w := o.newWorkflow(index)
	state, err := w.fetch(ctx)
	if err != nil {
		return nil, w.finish(err)
	}

	d, err := engine.Decide(state.Config.Shards, state.Stats.PrimarySizeBytes)
	if err != nil {
		reason := "invalid shard count"
		if errors.Is(err, engine.ErrNegativeSize) {
			reason = "invalid primary size"
		}
		return nil, w.finish(w.abort(StepFetch, &PreconditionError{Index: index, Reason: reason, Err: err}))
	}
	w.result.Decision = d
	w.completed(StepFetch)

	if !d.Changes() {
		w.result.Outcome = OutcomeUnchanged
		return w.result, w.finish(nil)
	}
	return w.run(ctx, state, d.Target)
}

// Reshard moves index onto target shards regardless of the sizing policy.
func (o *Orchestrator) Reshard(ctx context.Context, index string, target int) (*Result, error) {
	w := o.newWorkflow(index)
	if target < 1 {
		return nil, w.finish(w.abort(StepFetch, &PreconditionError{Index: index, Reason: "target shard count must be at least 1"}))
	}
	state, err := w.fetch(ctx)
	if err != nil {
		return nil, w.finish(err)
	}
	if state.Config.Shards < 1 {
		return nil, w.finish(w.abort(StepFetch, &PreconditionError{Index: index, Reason: "invalid shard count", Err: engine.ErrInvalidShardCount}))
	}
	w.result.Decision = model.Decision{
		Action:           actionFor(state.Config.Shards, target),
		Current:          state.Config.Shards,
		Target:           target,
		PrimarySizeBytes: state.Stats.PrimarySizeBytes,
	}
	w.completed(StepFetch)
	return w.run(ctx, state, target)
}

func actionFor(current, target int) model.ReshardAction {
	switch {
	case target < current:
		return model.ActionConsolidate
	case target > current:
		return model.ActionExpand
	}
	return model.ActionNone
}
