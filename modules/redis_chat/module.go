// Package redis_chat provides a chat message history stored in Redis lists.
// Redis clients are shared between vertices and runs through the shared
// resource cache.
package redis_chat

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vk/flowgrid/internal/component"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/internal/sharedcache"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zclconf/go-cty/cty"
)

// Name is the component type name.
const Name = "redis_chat"

// connectTimeout bounds the ping of a new shared client.
const connectTimeout = 10 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Message is one entry of a chat history.
type Message struct {
	Role    string `msgpack:"role"`
	Content string `msgpack:"content"`
}

var messageType = cty.Object(map[string]cty.Type{
	"role":    cty.String,
	"content": cty.String,
})

// Input defines the decoded inputs of the component.
type Input struct {
	Host      string `input:"host" validate:"required,hostname_rfc1123|ip"`
	Port      int    `input:"port" validate:"min=1,max=65535"`
	Database  string `input:"database" validate:"required,numeric"`
	Username  string `input:"username"`
	Password  string `input:"password"`
	KeyPrefix string `input:"key_prefix"`
	SessionID string `input:"session_id" validate:"required"`
	Message   string `input:"message"`
	Role      string `input:"role" validate:"oneof=user assistant system"`
}

// New returns the redis_chat component.
func New() *component.Func {
	return &component.Func{
		Desc: component.Descriptor{
			Name:        Name,
			DisplayName: "Redis Chat Memory",
			Description: "Retrieves and stores chat messages from Redis.",
			Inputs: []component.InputDefinition{
				{Name: "host", Type: cty.String, Required: true, Default: component.Default(cty.StringVal("localhost"))},
				{Name: "port", Type: cty.Number, Required: true, Default: component.Default(cty.NumberIntVal(6379))},
				{Name: "database", Type: cty.String, Required: true, Default: component.Default(cty.StringVal("0"))},
				{Name: "username", Type: cty.String, Default: component.Default(cty.StringVal("")), Advanced: true},
				{Name: "password", Type: cty.String, Default: component.Default(cty.StringVal("")), Advanced: true, Secret: true},
				{Name: "key_prefix", Type: cty.String, Default: component.Default(cty.StringVal("message_store:")), Advanced: true},
				{Name: "session_id", Type: cty.String, Required: true, Info: "Identifies the conversation."},
				{Name: "message", Type: cty.String, Info: "When set, appended to the history before it is returned."},
				{Name: "role", Type: cty.String, Default: component.Default(cty.StringVal("user"))},
			},
			Outputs: []component.OutputDefinition{
				{Name: "messages", Type: cty.List(messageType), Volatile: true},
			},
		},
		ValidateFn: func(ctx context.Context, in component.Inputs) error {
			_, err := decode(in)
			return err
		},
		Outputs: map[string]component.BuildFunc{"messages": build},
	}
}

func decode(in component.Inputs) (*Input, error) {
	var input Input
	if err := in.Decode(&input); err != nil {
		return nil, err
	}
	return &input, nil
}

func build(ctx context.Context, bc *component.BuildContext, in component.Inputs) (cty.Value, error) {
	input, err := decode(in)
	if err != nil {
		return cty.NilVal, err
	}
	logger := ctxlog.FromContext(ctx).With("vertex", bc.Vertex(), "session_id", input.SessionID)

	client, err := clientFor(ctx, bc.Shared(), input)
	if err != nil {
		return cty.NilVal, err
	}
	history := NewHistory(client, input.KeyPrefix, input.SessionID)

	if input.Message != "" {
		if err := history.Add(ctx, Message{Role: input.Role, Content: input.Message}); err != nil {
			return cty.NilVal, err
		}
		logger.Debug("Stored chat message.", "role", input.Role)
	}

	msgs, err := history.Messages(ctx)
	if err != nil {
		return cty.NilVal, err
	}
	if len(msgs) == 0 {
		return cty.ListValEmpty(messageType), nil
	}
	vals := make([]cty.Value, len(msgs))
	for i, m := range msgs {
		vals[i] = cty.ObjectVal(map[string]cty.Value{
			"role":    cty.StringVal(m.Role),
			"content": cty.StringVal(m.Content),
		})
	}
	return cty.ListVal(vals), nil
}

// cacheKey identifies a client by its full credentials. The password enters
// as a digest so it never shows up in Keys.
func cacheKey(input *Input) string {
	return fmt.Sprintf("redis_chat:%s:%016x@%s/%s", input.Username, xxhash.Sum64String(input.Password),
		net.JoinHostPort(input.Host, strconv.Itoa(input.Port)), input.Database)
}

func clientFor(ctx context.Context, shared *sharedcache.Cache, input *Input) (*redis.Client, error) {
	v, err := shared.GetOrCreate(ctx, cacheKey(input), func(ctx context.Context) (any, error) {
		db, err := strconv.Atoi(input.Database)
		if err != nil {
			return nil, fmt.Errorf("invalid database %q: %w", input.Database, err)
		}
		client := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(input.Host, strconv.Itoa(input.Port)),
			Username: input.Username,
			Password: input.Password,
			DB:       db,
		})
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		ctxlog.FromContext(ctx).Info("Connected to redis.", "addr", client.Options().Addr, "db", db)
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*redis.Client), nil
}

// History is a chat history stored as a Redis list of msgpack-encoded
// messages, oldest first.
type History struct {
	client *redis.Client
	key    string
}

// NewHistory returns the history of one session.
func NewHistory(client *redis.Client, prefix, sessionID string) *History {
	return &History{client: client, key: prefix + sessionID}
}

// Add appends a message.
func (h *History) Add(ctx context.Context, m Message) error {
	b, err := msgpack.Marshal(&m)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if err := h.client.RPush(ctx, h.key, b).Err(); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}
	return nil
}

// Messages returns every stored message.
func (h *History) Messages(ctx context.Context) ([]Message, error) {
	raw, err := h.client.LRange(ctx, h.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	msgs := make([]Message, 0, len(raw))
	for i, r := range raw {
		var m Message
		if err := msgpack.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("failed to decode message %d: %w", i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Clear deletes the history.
func (h *History) Clear(ctx context.Context) error {
	return h.client.Del(ctx, h.key).Err()
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(New())
}
