package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-redis/redis/v8"
)

const channelPrefix = "betna:"

// Redis publishes events on Redis pub/sub and relays events from every
// instance, including this one, to local subscribers.
type Redis struct {
	client *redis.Client
	local  *Local
	pubsub *redis.PubSub
}

// NewRedis connects to Redis. addr may be a redis:// URL or host:port.
func NewRedis(addr string) (*Redis, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	}
	return &Redis{client: redis.NewClient(opts), local: NewLocal()}, nil
}

// Start subscribes to every betna channel and relays messages until ctx is done.
// It returns once the subscription is confirmed.
func (r *Redis) Start(ctx context.Context) error {
	r.pubsub = r.client.PSubscribe(ctx, channelPrefix+"*")
	if _, err := r.pubsub.Receive(ctx); err != nil {
		if cerr := r.pubsub.Close(); cerr != nil {
			slog.Warn("closing redis pubsub", "err", cerr)
		}
		return fmt.Errorf("subscribing to redis: %w", err)
	}

	go r.relay(ctx, r.pubsub.Channel())
	return nil
}

func (r *Redis) relay(ctx context.Context, msgs <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("dropping malformed broker message", "channel", msg.Channel, "err", err)
				continue
			}
			ev.Topic = strings.TrimPrefix(msg.Channel, channelPrefix)
			r.local.Publish(ctx, ev)
		}
	}
}

// Publish sends ev to Redis. If Redis is unreachable the event is delivered
// locally only, so watchers on this instance still converge.
func (r *Redis) Publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("encoding broker event", "err", err)
		return
	}
	if err := r.client.Publish(ctx, channelPrefix+ev.Topic, payload).Err(); err != nil {
		slog.Warn("redis publish failed, delivering locally", "topic", ev.Topic, "err", err)
		r.local.Publish(ctx, ev)
	}
}

// Subscribe registers a local subscriber for topic.
func (r *Redis) Subscribe(topic string) (<-chan Event, func()) {
	return r.local.Subscribe(topic)
}

// Close stops the subscription and the client.
func (r *Redis) Close() error {
	if r.pubsub != nil {
		if err := r.pubsub.Close(); err != nil {
			slog.Warn("closing redis pubsub", "err", err)
		}
	}
	return r.client.Close()
}
