package model

import (
	"encoding/json"
	"time"
)

// ReshardAction is the kind of change the sizing policy asks for.
type ReshardAction int

const (
	ActionNone ReshardAction = iota
	ActionConsolidate
	ActionExpand
)

// String returns the lowercase action name used in logs.
func (a ReshardAction) String() string {
	switch a {
	case ActionConsolidate:
		return "consolidate"
	case ActionExpand:
		return "expand"
	default:
		return "none"
	}
}

// Decision is the outcome of the sizing policy for one index.
// Target equals Current when Action is ActionNone.
type Decision struct {
	Action           ReshardAction
	Current          int
	Target           int
	PrimarySizeBytes int64
}

// Changes reports whether the decision requires a reshard.
func (d Decision) Changes() bool {
	return d.Action != ActionNone && d.Target != d.Current
}

// ReshardPlan is everything needed to move Source into Replacement and
// rebind Index. It is computed once per invocation and never persisted.
type ReshardPlan struct {
	Index          string // external name kept stable for clients
	Source         string // concrete index holding the data today
	Replacement    string // freshly generated index name
	Shards         int
	Replicas       int
	Mappings       json.RawMessage
	Analysis       json.RawMessage
	Aliases        []string // other aliases of Source, rebound to Replacement
	Slices         int
	CreateTimeout  time.Duration
	ReindexTimeout time.Duration
}
