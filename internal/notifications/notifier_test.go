package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil, "")
	assert.NotEmpty(t, n.InstanceID())
	assert.NoError(t, n.PublishFeedChanged(context.Background(), Event{Kind: EventFeedChanged}))
	assert.NoError(t, n.StartFeedSubscriber(context.Background(), func(Event) {
		t.Fatal("no events expected")
	}))
}

func TestHub_WiringForwardsOtherInstancesAsStorageChanged(t *testing.T) {
	mr := miniredis.RunT(t)
	rdbA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rdbB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdbA.Close() }()
	defer func() { _ = rdbB.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubA, hubB := NewHub(), NewHub()
	require.NoError(t, hubA.StartWiring(ctx, NewNotifier(rdbA, "node-a")))
	require.NoError(t, hubB.StartWiring(ctx, NewNotifier(rdbB, "node-b")))

	subA := hubA.Subscribe("view-a", 8)
	subB := hubB.Subscribe("view-b", 8)
	defer subA.Close()
	defer subB.Close()

	hubA.FeedChanged(context.Background(), "create")

	select {
	case ev := <-subB.Events():
		assert.Equal(t, EventStorageChanged, ev.Kind)
		assert.Equal(t, "create", ev.Reason)
		assert.Equal(t, "node-a", ev.Origin)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("remote instance did not receive storage_changed")
	}

	select {
	case ev := <-subA.Events():
		assert.Equal(t, EventFeedChanged, ev.Kind)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("local subscriber did not receive feed_changed")
	}

	assert.Never(t, func() bool {
		return len(subA.Events()) > 0
	}, 20*testPollInterval, testPollInterval, "origin must not hear its own event back")
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan Event, 4)
	listener := NewNotifier(rdb, "listener")
	require.NoError(t, listener.StartFeedSubscriber(ctx, func(ev Event) { received <- ev }))

	publisher := NewNotifier(rdb, "publisher")
	require.NoError(t, publisher.PublishFeedChanged(context.Background(), Event{Kind: EventFeedChanged, Reason: "before"}))
	assert.Eventually(t, func() bool { return len(received) == 1 }, testEventuallyTimeout, testPollInterval)

	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, publisher.PublishFeedChanged(context.Background(), Event{Kind: EventFeedChanged, Reason: "after"}))
	assert.Never(t, func() bool { return len(received) > 1 }, 10*testPollInterval, testPollInterval)
}
