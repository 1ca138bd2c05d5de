package reshard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jtsunne/esreshard/internal/client"
	"github.com/jtsunne/esreshard/internal/client/clienttest"
)

const gib = int64(1 << 30)

var logsMapping = json.RawMessage(`{"properties":{"message":{"type":"text"},"ts":{"type":"date"}}}`)

// seqIDs returns a generator yielding new-1, new-2, ...
func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("new-%d", n)
	}
}

func quietLogger() *log.Entry {
	l := log.New()
	l.SetOutput(io.Discard)
	return log.NewEntry(l)
}

// recorder collects events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// completedStates returns the states reached by completed steps, in order.
func (r *recorder) completedStates() []State {
	var out []State
	for _, e := range r.all() {
		if e.Kind == EventStepCompleted {
			out = append(out, e.State)
		}
	}
	return out
}

func newTestOrchestrator(t *testing.T, c client.ClusterClient, opts ...Option) *Orchestrator {
	t.Helper()
	base := []Option{WithIDGenerator(seqIDs()), WithLogger(quietLogger())}
	o, err := New(context.Background(), c, append(base, opts...)...)
	require.NoError(t, err)
	return o
}

// logsCluster returns a cluster holding "logs": 4 shards, no replicas,
// 1.5 GiB of primary data.
func logsCluster() *clienttest.Cluster {
	c := clienttest.NewCluster(3)
	c.Put("logs", clienttest.Index{
		Shards:   4,
		Mappings: logsMapping,
		Docs:     120000,
		Bytes:    gib + gib/2,
		Segments: 40,
	})
	return c
}

func callStrings(calls []clienttest.Call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}
