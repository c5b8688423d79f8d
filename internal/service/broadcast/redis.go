package broadcast

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "game:events:"

// RedisPublisher relays session events over Redis pub/sub so broadcasts
// reach participants connected to other nodes.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher wraps an existing client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish marshals the event onto the session's channel.
func (p *RedisPublisher) Publish(ctx context.Context, sessionID string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := p.client.Publish(ctx, channelPrefix+sessionID, data).Err(); err != nil {
		return errors.Wrap(err, "publish event")
	}
	return nil
}

// Fanout publishes to every wrapped publisher; the first error wins but
// all publishers are attempted.
type Fanout []Publisher

// Publish implements Publisher.
func (f Fanout) Publish(ctx context.Context, sessionID string, ev Event) error {
	var first error
	for _, p := range f {
		if err := p.Publish(ctx, sessionID, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
