package reshard

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jtsunne/esreshard/internal/format"
	"github.com/jtsunne/esreshard/internal/model"
)

// EventKind tells what happened to a workflow.
type EventKind int

const (
	EventStepStarted EventKind = iota
	EventStepCompleted
	EventStepFailed
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventStepStarted:
		return "started"
	case EventStepCompleted:
		return "completed"
	case EventStepFailed:
		return "failed"
	case EventFinished:
		return "finished"
	}
	return "unknown"
}

// Event is emitted at every step boundary of a workflow. Plan is set once
// planning succeeded; Decision once the policy ran.
type Event struct {
	Kind        EventKind
	Index       string
	Replacement string
	Step        Step
	State       State
	Decision    *model.Decision
	Plan        *model.ReshardPlan
	Outcome     Outcome // set on EventFinished
	Err         error
	At          time.Time
}

// Observer receives workflow events. Observe is called synchronously from
// the workflow goroutine; OptimizeAll calls it from several goroutines.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// MultiObserver fans an event out to each observer in order.
type MultiObserver []Observer

func (m MultiObserver) Observe(e Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// LogObserver writes events to a logrus entry.
type LogObserver struct {
	Logger *log.Entry
}

// NewLogObserver returns a LogObserver on l, or on the standard logger when
// l is nil.
func NewLogObserver(l *log.Entry) *LogObserver {
	if l == nil {
		l = log.NewEntry(log.StandardLogger())
	}
	return &LogObserver{Logger: l}
}

func (o *LogObserver) Observe(e Event) {
	fields := log.Fields{"index": e.Index}
	if e.Replacement != "" {
		fields["replacement"] = e.Replacement
	}
	if e.Step != 0 {
		fields["step"] = e.Step.String()
	}
	fields["state"] = e.State.String()
	entry := o.Logger.WithFields(fields)

	switch e.Kind {
	case EventStepStarted:
		entry.Debug("step started")
	case EventStepCompleted:
		switch e.Step {
		case StepFetch:
			if e.Decision != nil {
				entry = entry.WithFields(log.Fields{
					"action":  e.Decision.Action.String(),
					"shards":  e.Decision.Current,
					"target":  e.Decision.Target,
					"primary": format.FormatBytes(e.Decision.PrimarySizeBytes),
				})
			}
		case StepPlan:
			if p := e.Plan; p != nil {
				entry = entry.WithFields(log.Fields{
					"shards":          p.Shards,
					"replicas":        p.Replicas,
					"slices":          p.Slices,
					"create_timeout":  p.CreateTimeout,
					"reindex_timeout": p.ReindexTimeout,
				})
			}
		}
		entry.Info("step completed")
	case EventStepFailed:
		entry = entry.WithError(e.Err)
		if e.Step == StepCompact {
			entry.Warn("compaction failed; replacement stays bound")
			return
		}
		entry.Error("step failed")
	case EventFinished:
		if e.Err != nil {
			entry.WithError(e.Err).Error("reshard aborted")
			return
		}
		entry.WithField("outcome", e.Outcome.String()).Info("reshard finished")
	}
}
