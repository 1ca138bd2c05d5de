package client

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/olivere/elastic/v7"
)

var (
	// ErrIndexNotFound is returned when a name resolves to no index.
	ErrIndexNotFound = errors.New("index not found")
	// ErrAmbiguousIndex is returned when a name resolves to several indices.
	ErrAmbiguousIndex = errors.New("name resolves to more than one index")
	// ErrClusterDown is returned when nothing listens at the cluster address.
	ErrClusterDown = errors.New("Elasticsearch or network down")
)

// StatusCode returns the HTTP status carried by an Elasticsearch error
// anywhere in err's chain, or 0.
func StatusCode(err error) int {
	var esErr *elastic.Error
	if errors.As(err, &esErr) {
		return esErr.Status
	}
	return 0
}

// IsNotFound reports whether err means the index or alias does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrIndexNotFound) || StatusCode(err) == http.StatusNotFound
}

// IsTransient reports whether err is a network, timeout or server-side
// failure that may succeed when the whole step is retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrClusterDown) || elastic.IsConnErr(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	code := StatusCode(err)
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}
