//go:build integration

package engine_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtsunne/esreshard/internal/client"
	"github.com/jtsunne/esreshard/internal/engine"
)

// esClient creates a DefaultClient from $ES_URI or skips the test if unset.
func esClient(t *testing.T) *client.DefaultClient {
	t.Helper()
	uri := os.Getenv("ES_URI")
	if uri == "" {
		t.Skip("ES_URI not set; skipping integration test")
	}
	c, err := client.NewDefaultClient(client.ClientConfig{
		BaseURL:            uri,
		InsecureSkipVerify: strings.HasPrefix(uri, "https://"),
		RequestTimeout:     10 * time.Second,
	})
	require.NoError(t, err)
	return c
}

// scratchIndex creates a throwaway index and removes it when the test ends.
func scratchIndex(t *testing.T, c *client.DefaultClient, name string, shards int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ok, err := c.CreateIndex(ctx, name, client.CreateIndexRequest{Shards: shards}, time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "shards of %s were not allocated", name)

	t.Cleanup(func() {
		_, _ = c.DeleteIndex(context.Background(), name)
	})
}

// TestLiveCluster_ClusterStats verifies the snapshot fields are populated.
func TestLiveCluster_ClusterStats(t *testing.T) {
	c := esClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := c.GetClusterStats(ctx)
	require.NoError(t, err)
	assert.Greater(t, snap.DataNodes, 0, "should have at least 1 data node")
	assert.GreaterOrEqual(t, snap.Indices, 0)
	assert.False(t, snap.CapturedAt.IsZero(), "capture timestamp should be set")
}

// TestLiveCluster_FetchAndDecide creates a small multi-shard index and
// verifies the policy asks to consolidate it.
func TestLiveCluster_FetchAndDecide(t *testing.T) {
	c := esClient(t)
	name := "esreshard-it-" + strings.ToLower(t.Name())
	scratchIndex(t, c, name, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	state, err := engine.FetchIndexState(ctx, c, name)
	require.NoError(t, err)
	assert.Equal(t, name, state.Config.Name)
	assert.Equal(t, 3, state.Config.Shards)
	assert.GreaterOrEqual(t, state.Stats.ShardCount, 3)

	d, err := engine.Decide(state.Config.Shards, state.Stats.PrimarySizeBytes)
	require.NoError(t, err)
	assert.True(t, d.Changes())
	assert.Equal(t, 1, d.Target)
}

// TestLiveCluster_NotFound verifies a missing index is reported as not found.
func TestLiveCluster_NotFound(t *testing.T) {
	c := esClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := engine.FetchIndexState(ctx, c, "esreshard-it-does-not-exist")
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err), "got %v", err)
}
