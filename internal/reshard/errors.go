package reshard

import (
	"fmt"

	"github.com/pkg/errors"
)

// PreconditionError means the index is not in a state a reshard can start
// from. Nothing was changed on the cluster and retrying will not help.
type PreconditionError struct {
	Index  string
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("precondition failed for %q: %s: %v", e.Index, e.Reason, e.Err)
	}
	return fmt.Sprintf("precondition failed for %q: %s", e.Index, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// TransientClientError is a cluster call that failed before anything was
// changed. The whole operation can be retried.
type TransientClientError struct {
	Op  string
	Err error
}

func (e *TransientClientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientClientError) Unwrap() error { return e.Err }

// PartialWorkflowError is a failure after the cluster was changed. The
// replacement index may exist unbound, or the source may already be
// deleted with the name not yet rebound. It is never repaired automatically.
type PartialWorkflowError struct {
	Index         string
	Source        string
	Replacement   string
	Step          Step  // step that failed
	LastCompleted State // last state reached before the failure
	SourceDeleted bool
	Err           error
}

func (e *PartialWorkflowError) Error() string {
	msg := fmt.Sprintf("reshard of %q stopped at %s after %s: replacement %q left in place",
		e.Index, e.Step, e.LastCompleted, e.Replacement)
	if e.SourceDeleted {
		msg += fmt.Sprintf(", source %q already deleted and %q unbound", e.Source, e.Index)
	}
	return msg + ": " + e.Err.Error()
}

func (e *PartialWorkflowError) Unwrap() error { return e.Err }

// IsPartial reports whether err left the cluster partially changed.
func IsPartial(err error) bool {
	var pe *PartialWorkflowError
	return errors.As(err, &pe)
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsTransient reports whether err happened before any change and may be
// retried as a whole.
func IsTransient(err error) bool {
	var te *TransientClientError
	return errors.As(err, &te)
}
