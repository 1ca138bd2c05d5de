package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/jtsunne/esreshard/internal/model"
)

// AliasOp is the action applied by UpdateAlias.
type AliasOp string

const (
	AliasAdd    AliasOp = "add"
	AliasRemove AliasOp = "remove"
)

// CreateIndexRequest describes a new index. Mappings and Analysis are sent
// verbatim; a nil blob is omitted from the request body.
type CreateIndexRequest struct {
	Mappings json.RawMessage
	Shards   int
	Replicas int
	Analysis json.RawMessage
}

// ClusterClient defines the administrative operations the resharding
// workflow needs from an Elasticsearch cluster. Implementations must be safe
// for concurrent use.
type ClusterClient interface {
	CreateIndex(ctx context.Context, name string, req CreateIndexRequest, timeout time.Duration) (bool, error)
	DeleteIndex(ctx context.Context, name string) (bool, error)
	GetIndexConfig(ctx context.Context, name string) (*model.IndexConfig, error)
	GetIndexStats(ctx context.Context, name string) (*model.IndexStats, error)
	Reindex(ctx context.Context, source, dest string, slices int, timeout time.Duration) (*ReindexResult, error)
	UpdateAlias(ctx context.Context, index, alias string, op AliasOp) error
	ForceMerge(ctx context.Context, name string) error
	GetClusterStats(ctx context.Context) (*model.ClusterSnapshot, error)
	BaseURL() string
}

// ClientConfig holds configuration for DefaultClient.
type ClientConfig struct {
	BaseURL            string
	Username           string
	Password           string
	InsecureSkipVerify bool
	// RequestTimeout bounds short administrative calls. Index creation and
	// reindexing are bounded by their own cluster-side timeouts instead.
	RequestTimeout time.Duration
	// MaxRetries is the number of retries for idempotent reads.
	MaxRetries int
	// MergeTimeout bounds a force-merge, which outlives RequestTimeout on
	// large indices. Defaults to DefaultMergeTimeout.
	MergeTimeout time.Duration
}

// DefaultMergeTimeout is the force-merge budget when none is configured.
const DefaultMergeTimeout = time.Hour

// longCallGrace is added to the cluster-side timeout of create and reindex
// calls so the cluster reports its own timeout before the local deadline fires.
const longCallGrace = time.Minute

// DefaultClient implements ClusterClient on top of olivere/elastic.
type DefaultClient struct {
	es     *elastic.Client
	config ClientConfig
}

// NewDefaultClient constructs a DefaultClient from the given config.
// Sniffing and health checks are disabled so the client talks to BaseURL
// only. Returns an error if BaseURL is empty.
func NewDefaultClient(cfg ClientConfig) (*DefaultClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.MergeTimeout <= 0 {
		cfg.MergeTimeout = DefaultMergeTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.BaseURL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
		elastic.SetHttpClient(&http.Client{Transport: transport}),
		elastic.SetRetrier(newIdempotentRetrier(cfg.MaxRetries)),
		elastic.SetErrorLog(errorLogger{}),
		elastic.SetTraceLog(traceLogger{}),
	}
	if cfg.Username != "" || cfg.Password != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}

	es, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create elastic client: %w", err)
	}

	return &DefaultClient{
		es:     es,
		config: cfg,
	}, nil
}

// BaseURL returns the configured base URL of the Elasticsearch cluster.
func (c *DefaultClient) BaseURL() string {
	return c.config.BaseURL
}

// shortCtx bounds a short administrative call by RequestTimeout.
func (c *DefaultClient) shortCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.config.RequestTimeout)
}

// longCtx bounds a call that the cluster itself times out after d.
func longCtx(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d+longCallGrace)
}

// perform issues a raw request and decodes a 2xx JSON body into out.
// out may be nil when the body is not needed.
func (c *DefaultClient) perform(ctx context.Context, method, path string, params url.Values, body, out any) error {
	res, err := c.es.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: method,
		Path:   path,
		Params: params,
		Body:   body,
	})
	if err != nil {
		return err
	}
	if out == nil || len(res.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// esDuration renders d in Elasticsearch time units, rounding up to whole
// seconds when d is not a whole number of minutes.
func esDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		secs := (d + time.Second - 1) / time.Second
		return fmt.Sprintf("%ds", secs)
	}
}

// indexPath escapes a single index name into a request path.
func indexPath(name string, suffix ...string) string {
	return "/" + url.PathEscape(name) + strings.Join(suffix, "")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
