// Package clienttest provides a ClusterClient test double with per-method
// hooks and a call log.
package clienttest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jtsunne/esreshard/internal/client"
	"github.com/jtsunne/esreshard/internal/model"
)

// Call is one recorded invocation, e.g. "DeleteIndex logs".
type Call struct {
	Method string
	Args   []string
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Method
	}
	return c.Method + " " + strings.Join(c.Args, " ")
}

// MockClient implements client.ClusterClient. A nil hook falls back to a
// successful default response. MockClient is safe for concurrent use.
type MockClient struct {
	CreateIndexFn     func(ctx context.Context, name string, req client.CreateIndexRequest, timeout time.Duration) (bool, error)
	DeleteIndexFn     func(ctx context.Context, name string) (bool, error)
	GetIndexConfigFn  func(ctx context.Context, name string) (*model.IndexConfig, error)
	GetIndexStatsFn   func(ctx context.Context, name string) (*model.IndexStats, error)
	ReindexFn         func(ctx context.Context, source, dest string, slices int, timeout time.Duration) (*client.ReindexResult, error)
	UpdateAliasFn     func(ctx context.Context, index, alias string, op client.AliasOp) error
	ForceMergeFn      func(ctx context.Context, name string) error
	GetClusterStatsFn func(ctx context.Context) (*model.ClusterSnapshot, error)

	mu    sync.Mutex
	calls []Call
}

var _ client.ClusterClient = (*MockClient)(nil)

func (m *MockClient) record(method string, args ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: method, Args: args})
}

// Calls returns a copy of every recorded call in order.
func (m *MockClient) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns the recorded calls of a single method.
func (m *MockClient) CallsTo(method string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Mutations returns the recorded calls that change cluster state.
func (m *MockClient) Mutations() []Call {
	var out []Call
	for _, c := range m.Calls() {
		switch c.Method {
		case "CreateIndex", "DeleteIndex", "Reindex", "UpdateAlias", "ForceMerge":
			out = append(out, c)
		}
	}
	return out
}

func (m *MockClient) CreateIndex(ctx context.Context, name string, req client.CreateIndexRequest, timeout time.Duration) (bool, error) {
	m.record("CreateIndex", name)
	if m.CreateIndexFn != nil {
		return m.CreateIndexFn(ctx, name, req, timeout)
	}
	return true, nil
}

func (m *MockClient) DeleteIndex(ctx context.Context, name string) (bool, error) {
	m.record("DeleteIndex", name)
	if m.DeleteIndexFn != nil {
		return m.DeleteIndexFn(ctx, name)
	}
	return true, nil
}

func (m *MockClient) GetIndexConfig(ctx context.Context, name string) (*model.IndexConfig, error) {
	m.record("GetIndexConfig", name)
	if m.GetIndexConfigFn != nil {
		return m.GetIndexConfigFn(ctx, name)
	}
	return &model.IndexConfig{Name: name, Shards: 1, Replicas: 1}, nil
}

func (m *MockClient) GetIndexStats(ctx context.Context, name string) (*model.IndexStats, error) {
	m.record("GetIndexStats", name)
	if m.GetIndexStatsFn != nil {
		return m.GetIndexStatsFn(ctx, name)
	}
	return &model.IndexStats{ShardCount: 2}, nil
}

func (m *MockClient) Reindex(ctx context.Context, source, dest string, slices int, timeout time.Duration) (*client.ReindexResult, error) {
	m.record("Reindex", source, dest, fmt.Sprint(slices))
	if m.ReindexFn != nil {
		return m.ReindexFn(ctx, source, dest, slices, timeout)
	}
	return &client.ReindexResult{}, nil
}

func (m *MockClient) UpdateAlias(ctx context.Context, index, alias string, op client.AliasOp) error {
	m.record("UpdateAlias", index, alias, string(op))
	if m.UpdateAliasFn != nil {
		return m.UpdateAliasFn(ctx, index, alias, op)
	}
	return nil
}

func (m *MockClient) ForceMerge(ctx context.Context, name string) error {
	m.record("ForceMerge", name)
	if m.ForceMergeFn != nil {
		return m.ForceMergeFn(ctx, name)
	}
	return nil
}

func (m *MockClient) GetClusterStats(ctx context.Context) (*model.ClusterSnapshot, error) {
	m.record("GetClusterStats")
	if m.GetClusterStatsFn != nil {
		return m.GetClusterStatsFn(ctx)
	}
	return &model.ClusterSnapshot{DataNodes: 3, Indices: 10, Shards: 20}, nil
}

func (m *MockClient) BaseURL() string {
	return "http://mock:9200"
}
