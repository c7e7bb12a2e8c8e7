// Package http_client provides an HTTP request component. Clients are
// created once per timeout and shared between vertices and runs through the
// shared resource cache.
package http_client

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/sharedcache"
)

// sharedClient wraps *http.Client so the shared cache can release it.
type sharedClient struct {
	*http.Client
}

var _ io.Closer = (*sharedClient)(nil)

// Close gracefully closes any idle connections.
func (c *sharedClient) Close() error {
	c.CloseIdleConnections()
	return nil
}

func cacheKey(timeout time.Duration) string {
	return "http_client:" + timeout.String()
}

// clientFor returns the shared client for the timeout, creating it on first
// use.
func clientFor(ctx context.Context, shared *sharedcache.Cache, timeout time.Duration) (*http.Client, error) {
	v, err := shared.GetOrCreate(ctx, cacheKey(timeout), func(ctx context.Context) (any, error) {
		ctxlog.FromContext(ctx).Debug("Creating shared HTTP client.", "timeout", timeout)
		return &sharedClient{Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sharedClient).Client, nil
}
