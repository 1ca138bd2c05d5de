package client

import (
	"encoding/json"
	"fmt"
)

// ClusterHealth represents the response from /_cluster/health.
type ClusterHealth struct {
	ClusterName       string `json:"cluster_name"`
	Status            string `json:"status"`
	NumberOfNodes     int    `json:"number_of_nodes"`
	NumberOfDataNodes int    `json:"number_of_data_nodes"`
	ActiveShards      int    `json:"active_shards"`
}

// ClusterStatsResponse represents the filtered response from /_cluster/stats.
type ClusterStatsResponse struct {
	Nodes struct {
		Count struct {
			Data int `json:"data"`
		} `json:"count"`
	} `json:"nodes"`
	Indices struct {
		Count  int `json:"count"`
		Shards struct {
			Total int `json:"total"`
		} `json:"shards"`
	} `json:"indices"`
}

// IndexGetEntry is a single index entry from GET /<index>.
// Mappings and Analysis are kept as raw JSON.
type IndexGetEntry struct {
	Aliases  map[string]json.RawMessage `json:"aliases"`
	Mappings json.RawMessage            `json:"mappings"`
	Settings struct {
		Index IndexSettings `json:"index"`
	} `json:"settings"`
}

// IndexSettings holds the index settings carried over to a replacement.
// Elasticsearch reports numeric settings as strings.
type IndexSettings struct {
	NumberOfShards   string          `json:"number_of_shards"`
	NumberOfReplicas string          `json:"number_of_replicas"`
	Analysis         json.RawMessage `json:"analysis,omitempty"`
}

// CreateIndexResponse represents the response from PUT /<index>.
type CreateIndexResponse struct {
	Acknowledged       bool   `json:"acknowledged"`
	ShardsAcknowledged bool   `json:"shards_acknowledged"`
	Index              string `json:"index"`
}

// ReindexResult represents the response from POST /_reindex with
// wait_for_completion=true.
type ReindexResult struct {
	Took             int64             `json:"took"`
	TimedOut         bool              `json:"timed_out"`
	Total            int64             `json:"total"`
	Created          int64             `json:"created"`
	Updated          int64             `json:"updated"`
	Batches          int64             `json:"batches"`
	VersionConflicts int64             `json:"version_conflicts"`
	Failures         []json.RawMessage `json:"failures"`
}

// Complete reports whether every document was copied without timeout or
// failure.
func (r *ReindexResult) Complete() bool {
	return r != nil && !r.TimedOut && len(r.Failures) == 0
}

// Err returns a descriptive error for an incomplete reindex, or nil.
func (r *ReindexResult) Err() error {
	switch {
	case r == nil:
		return fmt.Errorf("reindex: empty response")
	case r.TimedOut:
		return fmt.Errorf("reindex timed out after %d of %d documents", r.Created+r.Updated, r.Total)
	case len(r.Failures) > 0:
		return fmt.Errorf("reindex reported %d failures, first: %s", len(r.Failures), truncate(r.Failures[0], 200))
	}
	return nil
}
