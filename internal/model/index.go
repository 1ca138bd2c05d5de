package model

import "encoding/json"

// IndexConfig is the subset of an index definition carried over to a
// replacement index. Mappings and Analysis are passed through verbatim.
type IndexConfig struct {
	Name     string   // concrete index name the request resolved to
	Aliases  []string // aliases currently bound to Name
	Mappings json.RawMessage
	Shards   int
	Replicas int
	Analysis json.RawMessage // nil when the index has no analysis settings
}

// HasAlias reports whether alias is currently bound to the index.
func (c *IndexConfig) HasAlias(alias string) bool {
	for _, a := range c.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

// IndexStats holds the primary store size and the materialized shard count
// reported by /<index>/_stats.
type IndexStats struct {
	PrimarySizeBytes int64
	ShardCount       int
	DocCount         int64
}
