package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"smartbarangay/internal/middleware"
	"smartbarangay/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
	// Events buffered per subscription before drops start.
	defaultSubscriptionBuffer = 16
)

// Subscription receives hub events until closed.
type Subscription struct {
	hub    *Hub
	name   string
	ch     chan Event
	closed bool
}

// Events is the receive side of the subscription. It is closed by Close.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close detaches the subscription from the hub. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	delete(s.hub.subs, s)
	close(s.ch)
}

// Hub fans feed change events out to every subscriber in the process and,
// when wired to a Notifier, to other instances.
type Hub struct {
	mu         sync.RWMutex
	subs       map[*Subscription]struct{}
	conns      map[uint]map[*Client]struct{}
	totalConns int
	remote     *Notifier
	now        func() time.Time
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		subs:  make(map[*Subscription]struct{}),
		conns: make(map[uint]map[*Client]struct{}),
		now:   time.Now,
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "feed hub" }

// Subscribe registers a listener. buffer <= 0 uses the default size.
func (h *Hub) Subscribe(name string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubscriptionBuffer
	}
	sub := &Subscription{hub: h, name: name, ch: make(chan Event, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Publish delivers ev to current subscribers without blocking. A subscriber
// whose buffer is full misses the event.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			observability.FeedEventsDropped.WithLabelValues(sub.name, "full").Inc()
		}
	}
}

// FeedChanged publishes a feed_changed event locally and to other instances.
func (h *Hub) FeedChanged(ctx context.Context, reason string) {
	ev := Event{Kind: EventFeedChanged, Reason: reason, At: h.now()}
	h.Publish(ev)

	h.mu.RLock()
	remote := h.remote
	h.mu.RUnlock()
	if remote == nil {
		return
	}
	if err := remote.PublishFeedChanged(ctx, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish feed change",
			slog.String("reason", reason), slog.String("error", err.Error()))
	}
}

// StartWiring connects the hub to n: local changes are published through it,
// and changes from other instances are republished here as storage_changed.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	h.mu.Lock()
	h.remote = n
	h.mu.Unlock()

	return n.StartFeedSubscriber(ctx, func(ev Event) {
		ev.Kind = EventStorageChanged
		h.Publish(ev)
	})
}

// SubscriberCount reports the number of open subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Register a websocket connection for userID. The returned client's
// subscription delivers feed events until the client is unregistered.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	client.Subscription = h.Subscribe("websocket", defaultSubscriptionBuffer)
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes client, ends its subscription and closes its send queue.
func (h *Hub) UnregisterClient(client *Client) {
	if client.Subscription != nil {
		client.Subscription.Close()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.totalConns--
	client.closeSend()
	observability.WebSocketConnectionsTotal.Dec()
}

// ConnectionCount reports the number of registered websocket clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// Shutdown unregisters every websocket client, which makes its write pump send
// a close frame, and closes every remaining subscription.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.RLock()
	var clients []*Client
	for _, m := range h.conns {
		for c := range m {
			clients = append(clients, c)
		}
	}
	var subs []*Subscription
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.UnregisterClient(c)
	}
	for _, s := range subs {
		s.Close()
	}
	return nil
}
