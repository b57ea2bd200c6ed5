package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"smartbarangay/internal/middleware"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// FeedChannel is the Redis channel carrying feed change events between instances.
const FeedChannel = "feed:changed"

// Notifier publishes and receives feed change events over Redis pub/sub.
// With a nil client every method is a no-op.
type Notifier struct {
	rdb        *redis.Client
	instanceID string
}

// NewNotifier creates a Notifier. An empty instanceID gets a random one.
func NewNotifier(rdb *redis.Client, instanceID string) *Notifier {
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	return &Notifier{rdb: rdb, instanceID: instanceID}
}

// InstanceID identifies this process as the origin of the events it publishes.
func (n *Notifier) InstanceID() string { return n.instanceID }

// PublishFeedChanged sends ev to every instance, stamped with this instance as origin.
func (n *Notifier) PublishFeedChanged(ctx context.Context, ev Event) error {
	if n.rdb == nil {
		return nil
	}
	ev.Origin = n.instanceID
	return n.rdb.Publish(ctx, FeedChannel, ev.Encode()).Err()
}

// StartFeedSubscriber subscribes to FeedChannel and calls onEvent for every
// event published by another instance. It returns once the subscription is
// active; delivery stops when ctx is cancelled.
func (n *Notifier) StartFeedSubscriber(ctx context.Context, onEvent func(Event)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, FeedChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", FeedChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ev, err := DecodeEvent(msg.Payload)
				if err != nil {
					middleware.Logger.Warn("dropping malformed feed event", slog.String("error", err.Error()))
					continue
				}
				if ev.Origin == n.instanceID {
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in feed subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(ev)
				}()
			}
		}
	}()

	return nil
}
