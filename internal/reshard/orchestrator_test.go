package reshard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtsunne/esreshard/internal/client"
	"github.com/jtsunne/esreshard/internal/client/clienttest"
	"github.com/jtsunne/esreshard/internal/engine"
	"github.com/jtsunne/esreshard/internal/model"
)

var errBoom = errors.New("boom")

func TestNew_CapturesSnapshot(t *testing.T) {
	mc := &clienttest.MockClient{
		GetClusterStatsFn: func(_ context.Context) (*model.ClusterSnapshot, error) {
			return &model.ClusterSnapshot{DataNodes: 4, Indices: 12, Shards: 40}, nil
		},
	}
	o := newTestOrchestrator(t, mc)

	snap := o.Snapshot()
	assert.Equal(t, 4, snap.DataNodes)
	assert.Equal(t, 12, snap.Indices)
	assert.Equal(t, 40, snap.Shards)
	assert.Len(t, mc.CallsTo("GetClusterStats"), 1)
	assert.False(t, o.DryRun())
}

func TestNew_NoDataNodes(t *testing.T) {
	mc := &clienttest.MockClient{
		GetClusterStatsFn: func(_ context.Context) (*model.ClusterSnapshot, error) {
			return &model.ClusterSnapshot{DataNodes: 0, Indices: 3}, nil
		},
	}
	_, err := New(context.Background(), mc, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
}

func TestNew_StatsFailure(t *testing.T) {
	unavailable := fmt.Errorf("GetClusterStats: %w", &elastic.Error{Status: http.StatusServiceUnavailable})
	mc := &clienttest.MockClient{
		GetClusterStatsFn: func(_ context.Context) (*model.ClusterSnapshot, error) {
			return nil, unavailable
		},
	}
	_, err := New(context.Background(), mc, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, unavailable)
}

func TestNew_StatsRejected(t *testing.T) {
	mc := &clienttest.MockClient{
		GetClusterStatsFn: func(_ context.Context) (*model.ClusterSnapshot, error) {
			return nil, fmt.Errorf("GetClusterStats: %w", &elastic.Error{Status: http.StatusUnauthorized})
		},
	}
	_, err := New(context.Background(), mc, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.True(t, IsPrecondition(err))
}

func TestNew_NilClient(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestOptimize_AlreadyOptimal(t *testing.T) {
	mc := &clienttest.MockClient{
		GetIndexConfigFn: func(_ context.Context, name string) (*model.IndexConfig, error) {
			return &model.IndexConfig{Name: name, Shards: 1, Replicas: 1}, nil
		},
		GetIndexStatsFn: func(_ context.Context, _ string) (*model.IndexStats, error) {
			return &model.IndexStats{PrimarySizeBytes: gib, ShardCount: 2}, nil
		},
	}
	o := newTestOrchestrator(t, mc)

	res, err := o.Optimize(context.Background(), "logs")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)
	assert.Equal(t, StateConfigFetched, res.State)
	assert.Equal(t, model.ActionNone, res.Decision.Action)
	assert.Nil(t, res.Plan)
	assert.Empty(t, mc.Mutations(), "no-op must not change the cluster")
}

// TestOptimize_EndToEnd walks the documented scenario: "logs" with 4 shards
// and 1.5 GiB of primary data ends as an alias on a 1-shard replacement.
func TestOptimize_EndToEnd(t *testing.T) {
	cluster := logsCluster()
	rec := &recorder{}
	o := newTestOrchestrator(t, cluster, WithObserver(rec))

	res, err := o.Optimize(context.Background(), "logs")
	require.NoError(t, err)
	require.NotNil(t, res.Plan)

	assert.Equal(t, OutcomeResharded, res.Outcome)
	assert.Equal(t, StateCompacted, res.State)
	assert.NoError(t, res.CompactErr)
	assert.Equal(t, model.ActionConsolidate, res.Decision.Action)
	assert.Equal(t, 1, res.Decision.Target)
	assert.Equal(t, "new-1", res.Plan.Replacement)
	assert.Equal(t, 4, res.Plan.Slices)

	assert.Equal(t, []string{
		"CreateIndex new-1",
		"Reindex logs new-1 4",
		"DeleteIndex logs",
		"UpdateAlias new-1 logs add",
		"ForceMerge new-1",
	}, callStrings(cluster.Mutations()))

	target, ok := cluster.AliasTarget("logs")
	require.True(t, ok, "logs must be bound")
	assert.Equal(t, "new-1", target)
	assert.Equal(t, []string{"new-1"}, cluster.Names())

	idx, concrete, ok := cluster.Index("logs")
	require.True(t, ok)
	assert.Equal(t, "new-1", concrete)
	assert.Equal(t, 1, idx.Shards)
	assert.Equal(t, int64(120000), idx.Docs, "no documents lost")
	assert.JSONEq(t, string(logsMapping), string(idx.Mappings))
	assert.Equal(t, 1, idx.Segments)

	assert.Equal(t, []State{
		StateConfigFetched,
		StatePlanned,
		StateReplacementCreated,
		StateReindexed,
		StateRepointed,
		StateCompacted,
	}, rec.completedStates())

	events := rec.all()
	last := events[len(events)-1]
	assert.Equal(t, EventFinished, last.Kind)
	assert.Equal(t, OutcomeResharded, last.Outcome)
	assert.Equal(t, "new-1", last.Replacement)
	assert.NoError(t, last.Err)
}

// TestOptimize_Idempotent runs the driver twice; the second run must not
// change anything.
func TestOptimize_Idempotent(t *testing.T) {
	cluster := logsCluster()
	o := newTestOrchestrator(t, cluster)

	_, err := o.Optimize(context.Background(), "logs")
	require.NoError(t, err)
	before := len(cluster.Mutations())

	res, err := o.Optimize(context.Background(), "logs")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, res.Outcome)
	assert.Len(t, cluster.Mutations(), before)
}

func TestOptimize_Expand(t *testing.T) {
	cluster := clienttest.NewCluster(3)
	cluster.Put("metrics", clienttest.Index{Shards: 1, Replicas: 1, Docs: 9_000_000, Bytes: 48 * gib})
	o := newTestOrchestrator(t, cluster)

	res, err := o.Optimize(context.Background(), "metrics")
	require.NoError(t, err)
	assert.Equal(t, model.ActionExpand, res.Decision.Action)
	assert.Equal(t, 2, res.Plan.Shards)
	// Materialized copies: 1 primary + 1 replica.
	assert.Equal(t, 2, res.Plan.Slices)

	idx, _, ok := cluster.Index("metrics")
	require.True(t, ok)
	assert.Equal(t, 2, idx.Shards)
	assert.Equal(t, 1, idx.Replicas)
}

func TestOptimize_ReplicaCap(t *testing.T) {
	var got client.CreateIndexRequest
	mc := &clienttest.MockClient{
		GetClusterStatsFn: func(_ context.Context) (*model.ClusterSnapshot, error) {
			return &model.ClusterSnapshot{DataNodes: 2, Indices: 4}, nil
		},
		GetIndexConfigFn: func(_ context.Context, name string) (*model.IndexConfig, error) {
			return &model.IndexConfig{Name: name, Shards: 3, Replicas: 5}, nil
		},
		GetIndexStatsFn: func(_ context.Context, _ string) (*model.IndexStats, error) {
			return &model.IndexStats{PrimarySizeBytes: gib, ShardCount: 18}, nil
		},
		CreateIndexFn: func(_ context.Context, _ string, req client.CreateIndexRequest, timeout time.Duration) (bool, error) {
			got = req
			assert.Equal(t, 2*time.Minute, timeout)
			return true, nil
		},
	}
	o := newTestOrchestrator(t, mc)

	res, err := o.Optimize(context.Background(), "logs")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Replicas)
	assert.Equal(t, 1, got.Shards)
	assert.Equal(t, 2, res.Plan.Replicas)
	assert.LessOrEqual(t, res.Plan.Replicas, o.Snapshot().DataNodes)
}

func TestOptimize_CarriesAnalysis(t *testing.T) {
	analysis := []byte(`{"analyzer":{"folded":{"tokenizer":"standard","filter":["asciifolding"]}}}`)
	var got client.CreateIndexRequest
	mc := &clienttest.MockClient{
		GetIndexConfigFn: func(_ context.Context, name string) (*model.IndexConfig, error) {
			return &model.IndexConfig{Name: name, Shards: 2, Replicas: 1, Mappings: logsMapping, Analysis: analysis}, nil
		},
		GetIndexStatsFn: func(_ context.Context, _ string) (*model.IndexStats, error) {
			return &model.IndexStats{PrimarySizeBytes: 100, ShardCount: 4}, nil
		},
		CreateIndexFn: func(_ context.Context, _ string, req client.CreateIndexRequest, _ time.Duration) (bool, error) {
			got = req
			return true, nil
		},
	}
	o := newTestOrchestrator(t, mc)

	_, err := o.Optimize(context.Background(), "logs")
	require.NoError(t, err)
	assert.JSONEq(t, string(analysis), string(got.Analysis))
	assert.JSONEq(t, string(logsMapping), string(got.Mappings))
}

func TestOptimize_UniqueReplacements(t *testing.T) {
	cluster := clienttest.NewCluster(2)
	cluster.Put("a", clienttest.Index{Shards: 3, Bytes: gib})
	cluster.Put("b", clienttest.Index{Shards: 3, Bytes: gib})

	// Default generator
	o, err := New(context.Background(), cluster, WithLogger(quietLogger()))
	require.NoError(t, err)

	ra, err := o.Optimize(context.Background(), "a")
	require.NoError(t, err)
	rb, err := o.Optimize(context.Background(), "b")
	require.NoError(t, err)

	assert.NotEqual(t, ra.Plan.Replacement, rb.Plan.Replacement)
	assert.Len(t, ra.Plan.Replacement, 36, "uuid v4 string")
}

func TestOptimize_DryRun(t *testing.T) {
	cluster := logsCluster()
	o := newTestOrchestrator(t, cluster, WithDryRun(true))

	res, err := o.Optimize(context.Background(), "logs")
	require.NoError(t, err)
	assert.Equal(t, OutcomePlanned, res.Outcome)
	assert.Equal(t, StatePlanned, res.State)
	require.NotNil(t, res.Plan)
	assert.Equal(t, 1, res.Plan.Shards)
	assert.Empty(t, cluster.Mutations())
	assert.Equal(t, []string{"logs"}, cluster.Names())
}

// TestOptimize_AliasResolvedSource reshards an index reached through an
// alias, the state a previous reshard leaves behind.
func TestOptimize_AliasResolvedSource(t *testing.T) {
	cluster := clienttest.NewCluster(3)
	cluster.Put("old-id", clienttest.Index{Shards: 6, Docs: 10, Bytes: gib})
	require.NoError(t, cluster.UpdateAlias(context.Background(), "old-id", "logs", client.AliasAdd))
	require.NoError(t, cluster.UpdateAlias(context.Background(), "old-id", "logs-read", client.AliasAdd))
	o := newTestOrchestrator(t, cluster)
	setup := len(cluster.Mutations())

	res, err := o.Optimize(context.Background(), "logs")
	require.NoError(t, err)
	assert.Equal(t, "logs", res.Plan.Index)
	assert.Equal(t, "old-id", res.Plan.Source)
	assert.Equal(t, []string{"logs-read"}, res.Plan.Aliases)

	assert.Equal(t, []string{
		"CreateIndex new-1",
		"Reindex old-id new-1 6",
		"DeleteIndex old-id",
		"UpdateAlias new-1 logs add",
		"UpdateAlias new-1 logs-read add",
		"ForceMerge new-1",
	}, callStrings(cluster.Mutations()[setup:]))

	for _, alias := range []string{"logs", "logs-read"} {
		target, ok := cluster.AliasTarget(alias)
		require.True(t, ok, alias)
		assert.Equal(t, "new-1", target, alias)
	}
	assert.Equal(t, []string{"new-1"}, cluster.Names())
}

func TestOptimize_NotFound(t *testing.T) {
	cluster := clienttest.NewCluster(3)
	o := newTestOrchestrator(t, cluster)

	_, err := o.Optimize(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
	assert.False(t, IsPartial(err))
	assert.Empty(t, cluster.Mutations())

	var pe *PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "missing", pe.Index)
}

func TestOptimize_Ambiguous(t *testing.T) {
	mc := &clienttest.MockClient{
		GetIndexConfigFn: func(_ context.Context, name string) (*model.IndexConfig, error) {
			return nil, client.ErrAmbiguousIndex
		},
	}
	o := newTestOrchestrator(t, mc)

	_, err := o.Optimize(context.Background(), "logs-*")
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
	assert.Empty(t, mc.Mutations())
}

func TestOptimize_TransientFetch(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"503", &elastic.Error{Status: http.StatusServiceUnavailable}},
		{"429", &elastic.Error{Status: http.StatusTooManyRequests}},
		{"deadline", context.DeadlineExceeded},
		{"cluster down", client.ErrClusterDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cause := fmt.Errorf("GetIndexStats: %w", tt.err)
			mc := &clienttest.MockClient{
				GetIndexStatsFn: func(_ context.Context, _ string) (*model.IndexStats, error) {
					return nil, cause
				},
			}
			o := newTestOrchestrator(t, mc)

			_, err := o.Optimize(context.Background(), "logs")
			require.Error(t, err)
			assert.True(t, IsTransient(err))
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, mc.Mutations())
		})
	}
}

func TestOptimize_RejectedFetchIsNotTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"400", &elastic.Error{Status: http.StatusBadRequest}},
		{"401", &elastic.Error{Status: http.StatusUnauthorized}},
		{"403", &elastic.Error{Status: http.StatusForbidden}},
		{"bad setting", errors.New(`number_of_shards: invalid value "four"`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc := &clienttest.MockClient{
				GetIndexConfigFn: func(_ context.Context, _ string) (*model.IndexConfig, error) {
					return nil, fmt.Errorf("GetIndexConfig: %w", tt.err)
				},
			}
			o := newTestOrchestrator(t, mc)

			_, err := o.Optimize(context.Background(), "logs")
			require.Error(t, err)
			assert.False(t, IsTransient(err))
			var pe *PreconditionError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "logs", pe.Index)
			assert.Equal(t, "cannot read index state", pe.Reason)
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, mc.Mutations())
		})
	}
}

func TestOptimize_NegativePrimarySize(t *testing.T) {
	mc := &clienttest.MockClient{
		GetIndexStatsFn: func(_ context.Context, _ string) (*model.IndexStats, error) {
			return &model.IndexStats{PrimarySizeBytes: -1, ShardCount: 2}, nil
		},
	}
	o := newTestOrchestrator(t, mc)

	_, err := o.Optimize(context.Background(), "logs")
	require.Error(t, err)
	var pe *PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "invalid primary size", pe.Reason)
	assert.ErrorIs(t, err, engine.ErrNegativeSize)
	assert.Empty(t, mc.Mutations())
}

func TestOptimize_ZeroShards(t *testing.T) {
	mc := &clienttest.MockClient{
		GetIndexConfigFn: func(_ context.Context, name string) (*model.IndexConfig, error) {
			return &model.IndexConfig{Name: name, Shards: 0}, nil
		},
	}
	o := newTestOrchestrator(t, mc)

	_, err := o.Optimize(context.Background(), "logs")
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
	assert.Empty(t, mc.Mutations())
}

func TestReshard_ExplicitTarget(t *testing.T) {
	cluster := clienttest.NewCluster(3)
	// Policy would leave this alone.
	cluster.Put("orders", clienttest.Index{Shards: 1, Bytes: 10 * gib})
	o := newTestOrchestrator(t, cluster)

	res, err := o.Reshard(context.Background(), "orders", 3)
	require.NoError(t, err)
	assert.Equal(t, OutcomeResharded, res.Outcome)
	assert.Equal(t, model.ActionExpand, res.Decision.Action)

	idx, _, ok := cluster.Index("orders")
	require.True(t, ok)
	assert.Equal(t, 3, idx.Shards)
}

func TestReshard_InvalidTarget(t *testing.T) {
	cluster := logsCluster()
	o := newTestOrchestrator(t, cluster)

	_, err := o.Reshard(context.Background(), "logs", 0)
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
	assert.Empty(t, cluster.Mutations())
}
