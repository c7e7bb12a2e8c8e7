package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/sharedcache"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// connectTimeout bounds the initial handshake of a shared client.
const connectTimeout = 15 * time.Second

// client is a connected socket kept in the shared resource cache.
type client struct {
	*socket.Socket
}

// Close disconnects the socket.
func (c *client) Close() error {
	c.Disconnect()
	return nil
}

func cacheKey(input *Input) string {
	return fmt.Sprintf("socketio:%s|%s|%t", input.URL, input.Namespace, input.InsecureSkipVerify)
}

// connection is what the shared cache holds for an endpoint.
type connection interface {
	io.Closer
	Connected() bool
}

// clientFor returns the shared client for the input's endpoint, connecting a
// new one when none is cached or the cached one lost its connection.
func clientFor(ctx context.Context, shared *sharedcache.Cache, input *Input) (*client, error) {
	key := cacheKey(input)
	if c, ok := live(shared, key); ok {
		return c.(*client), nil
	}
	v, err := shared.GetOrCreate(ctx, key, func(ctx context.Context) (any, error) {
		return connect(ctx, input)
	})
	if err != nil {
		return nil, err
	}
	return v.(*client), nil
}

// live returns the cached connection under key while it is still connected.
// A disconnected one is dropped.
func live(shared *sharedcache.Cache, key string) (connection, bool) {
	v, ok := shared.Lookup(key)
	if !ok {
		return nil, false
	}
	if c, ok := v.(connection); ok && c.Connected() {
		return c, true
	}
	drop(shared, key, v)
	return nil, false
}

// drop removes stale from the cache and closes it. Only the caller that
// actually removed it closes it, and a replacement stored meanwhile stays.
func drop(shared *sharedcache.Cache, key string, stale any) {
	if !shared.InvalidateIf(key, stale) {
		return
	}
	if c, ok := stale.(io.Closer); ok {
		_ = c.Close()
	}
}

func connect(ctx context.Context, input *Input) (*client, error) {
	logger := ctxlog.FromContext(ctx).With("url", input.URL, "namespace", input.Namespace)

	parsedURL, err := url.Parse(input.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if input.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	sock := manager.Socket(input.Namespace, opts)

	sock.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to socket.io server.", "sid", sock.Id())
		connected <- nil
	})
	sock.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})

	sock.Connect()

	select {
	case err := <-connected:
		if err != nil {
			sock.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &client{Socket: sock}, nil
	case <-ctx.Done():
		sock.Disconnect()
		return nil, fmt.Errorf("cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(connectTimeout):
		sock.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", connectTimeout)
	}
}
