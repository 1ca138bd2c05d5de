package clienttest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/jtsunne/esreshard/internal/client"
	"github.com/jtsunne/esreshard/internal/model"
)

// Index is one index held by a Cluster.
type Index struct {
	Shards   int
	Replicas int
	Mappings json.RawMessage
	Analysis json.RawMessage
	Docs     int64
	Bytes    int64
	Segments int
}

// Cluster is an in-memory ClusterClient that keeps indices and aliases
// consistent across calls. Reindex copies document and byte counts; the
// shard count reported by stats is Shards*(1+Replicas), as on a real
// cluster where every copy is counted.
//
// Fail injects an error for a method name before it touches any state.
type Cluster struct {
	DataNodes int
	Fail      map[string]error

	mu      sync.Mutex
	indices map[string]*Index
	aliases map[string]string // alias -> index
	log     []Call
}

var _ client.ClusterClient = (*Cluster)(nil)

// NewCluster returns an empty cluster with dataNodes data nodes.
func NewCluster(dataNodes int) *Cluster {
	return &Cluster{
		DataNodes: dataNodes,
		Fail:      map[string]error{},
		indices:   map[string]*Index{},
		aliases:   map[string]string{},
	}
}

// Put adds or replaces an index.
func (c *Cluster) Put(name string, idx Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := idx
	c.indices[name] = &cp
}

// Index returns a copy of the index name resolves to.
func (c *Cluster) Index(name string) (Index, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	concrete, idx, ok := c.resolve(name)
	if !ok {
		return Index{}, "", false
	}
	return *idx, concrete, true
}

// Names returns the concrete index names, sorted.
func (c *Cluster) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.indices))
	for n := range c.indices {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// AliasTarget returns the index alias is bound to.
func (c *Cluster) AliasTarget(alias string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.aliases[alias]
	return t, ok
}

// Mutations returns the recorded state-changing calls in order.
func (c *Cluster) Mutations() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Call
	for _, call := range c.log {
		switch call.Method {
		case "CreateIndex", "DeleteIndex", "Reindex", "UpdateAlias", "ForceMerge":
			out = append(out, call)
		}
	}
	return out
}

func (c *Cluster) resolve(name string) (string, *Index, bool) {
	if idx, ok := c.indices[name]; ok {
		return name, idx, true
	}
	if target, ok := c.aliases[name]; ok {
		if idx, ok := c.indices[target]; ok {
			return target, idx, true
		}
	}
	return "", nil, false
}

// begin records the call and returns the injected failure for method.
func (c *Cluster) begin(method string, args ...string) error {
	c.log = append(c.log, Call{Method: method, Args: args})
	return c.Fail[method]
}

func notFound(name string) error {
	return fmt.Errorf("no such index [%s]: %w", name, &elastic.Error{Status: 404})
}

func (c *Cluster) CreateIndex(_ context.Context, name string, req client.CreateIndexRequest, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("CreateIndex", name); err != nil {
		return false, err
	}
	if _, _, ok := c.resolve(name); ok {
		return false, fmt.Errorf("index [%s] already exists: %w", name, &elastic.Error{Status: 400})
	}
	if req.Shards < 1 {
		return false, fmt.Errorf("invalid number_of_shards %d: %w", req.Shards, &elastic.Error{Status: 400})
	}
	c.indices[name] = &Index{
		Shards:   req.Shards,
		Replicas: req.Replicas,
		Mappings: req.Mappings,
		Analysis: req.Analysis,
	}
	return true, nil
}

func (c *Cluster) DeleteIndex(_ context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("DeleteIndex", name); err != nil {
		return false, err
	}
	if _, ok := c.indices[name]; !ok {
		return false, notFound(name)
	}
	delete(c.indices, name)
	for a, t := range c.aliases {
		if t == name {
			delete(c.aliases, a)
		}
	}
	return true, nil
}

func (c *Cluster) GetIndexConfig(_ context.Context, name string) (*model.IndexConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("GetIndexConfig", name); err != nil {
		return nil, err
	}
	concrete, idx, ok := c.resolve(name)
	if !ok {
		return nil, fmt.Errorf("GetIndexConfig %q: %w", name, client.ErrIndexNotFound)
	}
	var aliases []string
	for a, t := range c.aliases {
		if t == concrete {
			aliases = append(aliases, a)
		}
	}
	sort.Strings(aliases)
	return &model.IndexConfig{
		Name:     concrete,
		Aliases:  aliases,
		Mappings: idx.Mappings,
		Shards:   idx.Shards,
		Replicas: idx.Replicas,
		Analysis: idx.Analysis,
	}, nil
}

func (c *Cluster) GetIndexStats(_ context.Context, name string) (*model.IndexStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("GetIndexStats", name); err != nil {
		return nil, err
	}
	_, idx, ok := c.resolve(name)
	if !ok {
		return nil, notFound(name)
	}
	return &model.IndexStats{
		PrimarySizeBytes: idx.Bytes,
		ShardCount:       idx.Shards * (1 + idx.Replicas),
		DocCount:         idx.Docs,
	}, nil
}

func (c *Cluster) Reindex(_ context.Context, source, dest string, slices int, _ time.Duration) (*client.ReindexResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("Reindex", source, dest, fmt.Sprint(slices)); err != nil {
		return nil, err
	}
	_, src, ok := c.resolve(source)
	if !ok {
		return nil, notFound(source)
	}
	_, dst, ok := c.resolve(dest)
	if !ok {
		return nil, notFound(dest)
	}
	dst.Docs += src.Docs
	dst.Bytes += src.Bytes
	dst.Segments += max(slices, 1) * 8
	return &client.ReindexResult{Total: src.Docs, Created: src.Docs}, nil
}

func (c *Cluster) UpdateAlias(_ context.Context, index, alias string, op client.AliasOp) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("UpdateAlias", index, alias, string(op)); err != nil {
		return err
	}
	if _, ok := c.indices[index]; !ok {
		return notFound(index)
	}
	switch op {
	case client.AliasAdd:
		if _, clash := c.indices[alias]; clash {
			return fmt.Errorf("alias [%s] clashes with an index: %w", alias, &elastic.Error{Status: 400})
		}
		c.aliases[alias] = index
	case client.AliasRemove:
		if c.aliases[alias] == index {
			delete(c.aliases, alias)
		}
	}
	return nil
}

func (c *Cluster) ForceMerge(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("ForceMerge", name); err != nil {
		return err
	}
	_, idx, ok := c.resolve(name)
	if !ok {
		return notFound(name)
	}
	idx.Segments = 1
	return nil
}

func (c *Cluster) GetClusterStats(_ context.Context) (*model.ClusterSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.begin("GetClusterStats"); err != nil {
		return nil, err
	}
	shards := 0
	for _, idx := range c.indices {
		shards += idx.Shards * (1 + idx.Replicas)
	}
	return &model.ClusterSnapshot{
		DataNodes:  c.DataNodes,
		Indices:    len(c.indices),
		Shards:     shards,
		CapturedAt: time.Now(),
	}, nil
}

func (c *Cluster) BaseURL() string {
	return "http://fake:9200"
}
