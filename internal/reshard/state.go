package reshard

// State is the position of one reshard in its workflow.
type State int

const (
	StateIdle State = iota
	StateConfigFetched
	StatePlanned
	StateReplacementCreated
	StateReindexed
	StateRepointed
	StateCompacted
	StateAborted
)

var stateNames = [...]string{
	StateIdle:               "idle",
	StateConfigFetched:      "config-fetched",
	StatePlanned:            "planned",
	StateReplacementCreated: "replacement-created",
	StateReindexed:          "reindexed",
	StateRepointed:          "repointed",
	StateCompacted:          "compacted",
	StateAborted:            "aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further step follows s.
func (s State) Terminal() bool {
	return s == StateCompacted || s == StateAborted
}

// Step identifies one of the six workflow steps.
type Step int

const (
	StepFetch Step = iota + 1
	StepPlan
	StepCreate
	StepReindex
	StepRepoint
	StepCompact
)

var stepNames = [...]string{
	StepFetch:   "fetch",
	StepPlan:    "plan",
	StepCreate:  "create",
	StepReindex: "reindex",
	StepRepoint: "repoint",
	StepCompact: "compact",
}

func (s Step) String() string {
	if s < StepFetch || s > StepCompact {
		return "none"
	}
	return stepNames[s]
}

// Reaches returns the state entered when s succeeds.
func (s Step) Reaches() State {
	switch s {
	case StepFetch:
		return StateConfigFetched
	case StepPlan:
		return StatePlanned
	case StepCreate:
		return StateReplacementCreated
	case StepReindex:
		return StateReindexed
	case StepRepoint:
		return StateRepointed
	case StepCompact:
		return StateCompacted
	}
	return StateIdle
}

// Mutates reports whether s changes cluster state.
func (s Step) Mutates() bool {
	return s >= StepCreate
}
