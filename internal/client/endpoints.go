package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/jtsunne/esreshard/internal/model"
)

const (
	endpointClusterHealth = "/_cluster/health"
	endpointClusterStats  = "/_cluster/stats"
	endpointReindex       = "/_reindex"

	filterClusterHealth = "cluster_name,status,number_of_nodes,number_of_data_nodes,active_shards"
	filterClusterStats  = "nodes.count.data,indices.count,indices.shards.total"
	filterIndexGet      = "*.aliases,*.mappings,*.settings.index.number_of_shards,*.settings.index.number_of_replicas,*.settings.index.analysis"
)

// GetClusterHealth fetches cluster health from /_cluster/health.
func (c *DefaultClient) GetClusterHealth(ctx context.Context) (*ClusterHealth, error) {
	ctx, cancel := c.shortCtx(ctx)
	defer cancel()

	var result ClusterHealth
	params := url.Values{"filter_path": {filterClusterHealth}}
	if err := c.perform(ctx, http.MethodGet, endpointClusterHealth, params, nil, &result); err != nil {
		return nil, fmt.Errorf("GetClusterHealth: %w", err)
	}
	return &result, nil
}

// GetClusterStats fetches the data node, index and shard counts from
// /_cluster/stats.
func (c *DefaultClient) GetClusterStats(ctx context.Context) (*model.ClusterSnapshot, error) {
	ctx, cancel := c.shortCtx(ctx)
	defer cancel()

	var result ClusterStatsResponse
	params := url.Values{"filter_path": {filterClusterStats}}
	if err := c.perform(ctx, http.MethodGet, endpointClusterStats, params, nil, &result); err != nil {
		return nil, fmt.Errorf("GetClusterStats: %w", err)
	}
	return &model.ClusterSnapshot{
		DataNodes:  result.Nodes.Count.Data,
		Indices:    result.Indices.Count,
		Shards:     result.Indices.Shards.Total,
		CapturedAt: time.Now(),
	}, nil
}

// GetIndexConfig fetches mappings, shard/replica settings, analysis and
// aliases of the index that name resolves to. name may be an index or an
// alias; it must resolve to exactly one concrete index.
func (c *DefaultClient) GetIndexConfig(ctx context.Context, name string) (*model.IndexConfig, error) {
	if name == "" {
		return nil, fmt.Errorf("GetIndexConfig: name must not be empty")
	}
	ctx, cancel := c.shortCtx(ctx)
	defer cancel()

	var result map[string]IndexGetEntry
	params := url.Values{"filter_path": {filterIndexGet}}
	if err := c.perform(ctx, http.MethodGet, indexPath(name), params, nil, &result); err != nil {
		return nil, fmt.Errorf("GetIndexConfig: %w", err)
	}
	switch len(result) {
	case 0:
		return nil, fmt.Errorf("GetIndexConfig %q: %w", name, ErrIndexNotFound)
	case 1:
	default:
		return nil, fmt.Errorf("GetIndexConfig %q resolves to %d indices: %w", name, len(result), ErrAmbiguousIndex)
	}

	var concrete string
	var entry IndexGetEntry
	for k, v := range result {
		concrete, entry = k, v
	}

	shards, err := parseSetting(entry.Settings.Index.NumberOfShards)
	if err != nil {
		return nil, fmt.Errorf("GetIndexConfig %q number_of_shards: %w", name, err)
	}
	replicas, err := parseSetting(entry.Settings.Index.NumberOfReplicas)
	if err != nil {
		return nil, fmt.Errorf("GetIndexConfig %q number_of_replicas: %w", name, err)
	}

	aliases := make([]string, 0, len(entry.Aliases))
	for a := range entry.Aliases {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)

	cfg := &model.IndexConfig{
		Name:     concrete,
		Aliases:  aliases,
		Mappings: entry.Mappings,
		Shards:   shards,
		Replicas: replicas,
	}
	if len(entry.Settings.Index.Analysis) > 0 {
		cfg.Analysis = entry.Settings.Index.Analysis
	}
	return cfg, nil
}

// GetIndexStats fetches the primary store size, document count and the
// materialized shard count of name.
func (c *DefaultClient) GetIndexStats(ctx context.Context, name string) (*model.IndexStats, error) {
	if name == "" {
		return nil, fmt.Errorf("GetIndexStats: name must not be empty")
	}
	ctx, cancel := c.shortCtx(ctx)
	defer cancel()

	res, err := c.es.IndexStats(name).Metric("store", "docs").Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetIndexStats: %w", err)
	}
	if res.Shards == nil || res.All == nil || res.All.Primaries == nil {
		return nil, fmt.Errorf("GetIndexStats %q: incomplete response", name)
	}

	stats := &model.IndexStats{ShardCount: res.Shards.Total}
	if store := res.All.Primaries.Store; store != nil {
		stats.PrimarySizeBytes = store.SizeInBytes
	}
	if docs := res.All.Primaries.Docs; docs != nil {
		stats.DocCount = docs.Count
	}
	return stats, nil
}

// CreateIndex creates name and waits for all requested shard copies to be
// allocated, up to timeout. It returns true only when the cluster
// acknowledges both the index and its shard allocation.
func (c *DefaultClient) CreateIndex(ctx context.Context, name string, req CreateIndexRequest, timeout time.Duration) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("CreateIndex: name must not be empty")
	}
	ctx, cancel := longCtx(ctx, timeout)
	defer cancel()

	flat := map[string]any{
		"index.number_of_shards":   req.Shards,
		"index.number_of_replicas": req.Replicas,
	}
	if len(req.Analysis) > 0 {
		flat["index.analysis"] = req.Analysis
	}
	body := map[string]any{"settings": buildNestedMap(flat)}
	if len(req.Mappings) > 0 {
		body["mappings"] = req.Mappings
	}

	params := url.Values{}
	if timeout > 0 {
		params.Set("wait_for_active_shards", "all")
		params.Set("timeout", esDuration(timeout))
	}

	var result CreateIndexResponse
	if err := c.perform(ctx, http.MethodPut, indexPath(name), params, body, &result); err != nil {
		return false, fmt.Errorf("CreateIndex: %w", err)
	}
	return result.Acknowledged && result.ShardsAcknowledged, nil
}

// DeleteIndex deletes a single concrete index.
func (c *DefaultClient) DeleteIndex(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("DeleteIndex: name must not be empty")
	}
	ctx, cancel := c.shortCtx(ctx)
	defer cancel()

	res, err := c.es.DeleteIndex(name).Do(ctx)
	if err != nil {
		return false, fmt.Errorf("DeleteIndex: %w", err)
	}
	return res.Acknowledged, nil
}

// Reindex copies every document of source into dest and waits for
// completion. slices <= 0 lets the cluster pick a single slice. The result
// is returned even when the copy timed out or reported failures, so callers
// can log how far it got; Complete() tells whether it succeeded.
func (c *DefaultClient) Reindex(ctx context.Context, source, dest string, slices int, timeout time.Duration) (*ReindexResult, error) {
	if source == "" || dest == "" {
		return nil, fmt.Errorf("Reindex: source and dest must not be empty")
	}
	ctx, cancel := longCtx(ctx, timeout)
	defer cancel()

	body := map[string]any{
		"source": map[string]any{"index": source},
		"dest":   map[string]any{"index": dest},
	}
	params := url.Values{"wait_for_completion": {"true"}}
	if slices > 0 {
		params.Set("slices", strconv.Itoa(slices))
	}
	if timeout > 0 {
		params.Set("timeout", esDuration(timeout))
	}

	var result ReindexResult
	if err := c.perform(ctx, http.MethodPost, endpointReindex, params, body, &result); err != nil {
		return nil, fmt.Errorf("Reindex: %w", err)
	}
	return &result, nil
}

// UpdateAlias adds or removes alias on index.
func (c *DefaultClient) UpdateAlias(ctx context.Context, index, alias string, op AliasOp) error {
	if index == "" || alias == "" {
		return fmt.Errorf("UpdateAlias: index and alias must not be empty")
	}
	ctx, cancel := c.shortCtx(ctx)
	defer cancel()

	var action elastic.AliasAction
	switch op {
	case AliasAdd:
		action = elastic.NewAliasAddAction(alias).Index(index)
	case AliasRemove:
		action = elastic.NewAliasRemoveAction(alias).Index(index)
	default:
		return fmt.Errorf("UpdateAlias: unknown operation %q", op)
	}

	res, err := c.es.Alias().Action(action).Do(ctx)
	if err != nil {
		return fmt.Errorf("UpdateAlias: %w", err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("UpdateAlias %s %q on %q: not acknowledged", op, alias, index)
	}
	return nil
}

// ForceMerge merges the segments of name down to one, waiting up to
// MergeTimeout. The cluster keeps merging when the local deadline expires
// first.
func (c *DefaultClient) ForceMerge(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("ForceMerge: name must not be empty")
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.MergeTimeout)
	defer cancel()

	if _, err := c.es.Forcemerge(name).MaxNumSegments(1).Do(ctx); err != nil {
		return fmt.Errorf("ForceMerge: %w", err)
	}
	return nil
}

// parseSetting parses an index setting that Elasticsearch reports as a string.
func parseSetting(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("missing value")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return n, nil
}
