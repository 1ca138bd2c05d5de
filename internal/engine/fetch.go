package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jtsunne/esreshard/internal/client"
	"github.com/jtsunne/esreshard/internal/model"
)

// IndexState is the configuration and statistics of one index, fetched
// together before any decision is made.
type IndexState struct {
	Config *model.IndexConfig
	Stats  *model.IndexStats
}

// FetchIndexState fetches the configuration and statistics of name
// concurrently. If either call fails, FetchIndexState returns the first
// error. name may be an alias; the cluster resolves it for both calls.
func FetchIndexState(ctx context.Context, c client.ClusterClient, name string) (*IndexState, error) {
	var (
		cfg   *model.IndexConfig
		stats *model.IndexStats
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		cfg, err = c.GetIndexConfig(gctx, name)
		return err
	})

	g.Go(func() error {
		var err error
		stats, err = c.GetIndexStats(gctx, name)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if cfg == nil || stats == nil {
		return nil, fmt.Errorf("FetchIndexState: incomplete response (unexpected nil)")
	}
	return &IndexState{Config: cfg, Stats: stats}, nil
}
