package engine

import (
	"fmt"
	"time"

	"github.com/jtsunne/esreshard/internal/model"
)

// reindexBytesPerHour is the migration budget used to size reindex timeouts.
const reindexBytesPerHour = 500_000_000

// ceilDiv returns ceil(a/b) for non-negative a and positive b.
func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// CreateTimeout returns how long index creation may wait for shard
// allocation: one minute per index hosted on each data node, rounded up,
// never less than one minute. A non-positive dataNodes yields the minimum.
func CreateTimeout(indices, dataNodes int) time.Duration {
	if indices <= 0 || dataNodes <= 0 {
		return time.Minute
	}
	mins := ceilDiv(int64(indices), int64(dataNodes))
	if mins < 1 {
		mins = 1
	}
	return time.Duration(mins) * time.Minute
}

// ReindexTimeout returns the reindex budget for primaryBytes of data: one
// hour per 500 MB, rounded up, never less than one hour.
func ReindexTimeout(primaryBytes int64) time.Duration {
	hours := int64(1)
	if primaryBytes > 0 {
		hours = ceilDiv(primaryBytes, reindexBytesPerHour)
	}
	return time.Duration(hours) * time.Hour
}

// CapReplicas limits replicas to the number of data nodes.
func CapReplicas(replicas, dataNodes int) int {
	if replicas < 0 {
		replicas = 0
	}
	if dataNodes < 0 {
		dataNodes = 0
	}
	return min(replicas, dataNodes)
}

// BuildPlan assembles the plan for moving cfg's index onto target shards
// under replacementID. index is the external name callers use. Slices follow
// the materialized shard count from stats, not the configured count.
func BuildPlan(snap model.ClusterSnapshot, index string, cfg *model.IndexConfig, stats *model.IndexStats, target int, replacementID string) (*model.ReshardPlan, error) {
	if cfg == nil || stats == nil {
		return nil, fmt.Errorf("BuildPlan: config and stats are required")
	}
	if target < 1 {
		return nil, fmt.Errorf("BuildPlan: %w (target %d)", ErrInvalidShardCount, target)
	}
	if replacementID == "" {
		return nil, fmt.Errorf("BuildPlan: replacement id must not be empty")
	}
	if replacementID == cfg.Name || replacementID == index {
		return nil, fmt.Errorf("BuildPlan: replacement id %q collides with the source", replacementID)
	}

	return &model.ReshardPlan{
		Index:          index,
		Source:         cfg.Name,
		Replacement:    replacementID,
		Shards:         target,
		Replicas:       CapReplicas(cfg.Replicas, snap.DataNodes),
		Mappings:       cfg.Mappings,
		Analysis:       cfg.Analysis,
		Slices:         stats.ShardCount,
		CreateTimeout:  CreateTimeout(snap.Indices, snap.DataNodes),
		ReindexTimeout: ReindexTimeout(stats.PrimarySizeBytes),
	}, nil
}
