package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/jtsunne/esreshard/internal/model"
)

// Sizing thresholds in bytes.
const (
	ConsolidateBelowBytes = int64(2 << 30)  // 2 GiB: smaller indices belong on one shard
	ExpandAboveBytes      = int64(45 << 30) // 45 GiB per shard triggers expansion
	TargetShardBytes      = int64(30 << 30) // 30 GiB: sizing unit for expansion
)

// ErrInvalidShardCount is returned when an index reports fewer than one shard.
var ErrInvalidShardCount = errors.New("shard count must be at least 1")

// ErrNegativeSize is returned when an index reports a negative primary size.
var ErrNegativeSize = errors.New("primary size must not be negative")

// Decide applies the sizing rules to an index with current shards holding
// primaryBytes of primary data. Rules are evaluated in order:
//
//   - below ConsolidateBelowBytes with more than one shard: consolidate to 1
//   - more than ExpandAboveBytes per shard: expand to round(size/TargetShardBytes)
//     when that is larger than current
//   - otherwise: no action, Target == Current
//
// Rounding is half-to-even.
func Decide(current int, primaryBytes int64) (model.Decision, error) {
	d := model.Decision{
		Action:           model.ActionNone,
		Current:          current,
		Target:           current,
		PrimarySizeBytes: primaryBytes,
	}
	if current < 1 {
		return d, fmt.Errorf("Decide: %w (got %d)", ErrInvalidShardCount, current)
	}
	if primaryBytes < 0 {
		return d, fmt.Errorf("Decide: %w (got %d)", ErrNegativeSize, primaryBytes)
	}

	if primaryBytes < ConsolidateBelowBytes && current > 1 {
		d.Action = model.ActionConsolidate
		d.Target = 1
		return d, nil
	}

	if float64(primaryBytes)/float64(current) > float64(ExpandAboveBytes) {
		candidate := int(math.RoundToEven(float64(primaryBytes) / float64(TargetShardBytes)))
		if candidate > current {
			d.Action = model.ActionExpand
			d.Target = candidate
		}
	}
	return d, nil
}
