package broadcast

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx := context.Background()

	first, cancelFirst := hub.Subscribe("s1", "alice")
	defer cancelFirst()
	second, cancelSecond := hub.Subscribe("s1", "bob")
	defer cancelSecond()

	ev := New(EventGameStarted, "s1", map[string]any{"kind": "trivia"})
	require.NoError(t, hub.Publish(ctx, "s1", ev))

	for _, ch := range []<-chan Event{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, EventGameStarted, got.Type)
			assert.Equal(t, "s1", got.SessionID)
			assert.Equal(t, "trivia", got.Data["kind"])
			assert.False(t, got.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("subscriber never received the event")
		}
	}
}

func TestHubPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx := context.Background()

	_, cancelStalled := hub.Subscribe("s1", "alice")
	defer cancelStalled()
	healthy, cancelHealthy := hub.Subscribe("s1", "bob")
	defer cancelHealthy()

	// Fill the stalled subscriber's buffer without draining it.
	for i := 0; i < subscriberBuffer; i++ {
		require.NoError(t, hub.Publish(ctx, "s1", New(EventNextQuestion, "s1", nil)))
		<-healthy
	}

	start := time.Now()
	require.NoError(t, hub.Publish(ctx, "s1", New(EventGameOver, "s1", nil)))
	assert.Less(t, time.Since(start), 500*time.Millisecond, "publish must not wait on a full buffer")

	select {
	case got := <-healthy:
		assert.Equal(t, EventGameOver, got.Type)
	case <-time.After(time.Second):
		t.Fatal("healthy subscriber starved by a stalled one")
	}
}

func TestHubPublishIsScopedToSession(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx := context.Background()

	other, cancel := hub.Subscribe("other", "carol")
	defer cancel()

	require.NoError(t, hub.Publish(ctx, "s1", New(EventGameStarted, "s1", nil)))

	select {
	case ev := <-other:
		t.Fatalf("event leaked across sessions: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCancelStopsDelivery(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx := context.Background()

	ch, cancel := hub.Subscribe("s1", "alice")
	cancel()
	cancel() // idempotent

	require.NoError(t, hub.Publish(ctx, "s1", New(EventGameStarted, "s1", nil)))

	select {
	case ev := <-ch:
		t.Fatalf("cancelled subscriber received %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubPlayersDeduplicatesConnections(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	_, c1 := hub.Subscribe("s1", "alice")
	defer c1()
	_, c2 := hub.Subscribe("s1", "alice")
	defer c2()
	_, c3 := hub.Subscribe("s1", "bob")
	defer c3()

	players := hub.Players("s1")
	sort.Strings(players)
	assert.Equal(t, []string{"alice", "bob"}, players)
}

func TestHubDropSession(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx := context.Background()

	ch, cancel := hub.Subscribe("s1", "alice")
	defer cancel()

	hub.DropSession("s1")
	assert.Empty(t, hub.Players("s1"))

	require.NoError(t, hub.Publish(ctx, "s1", New(EventGameStarted, "s1", nil)))
	select {
	case ev := <-ch:
		t.Fatalf("dropped session still delivered %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFanoutPublishesToAll(t *testing.T) {
	first := NewHub(zerolog.Nop())
	second := NewHub(zerolog.Nop())

	a, cancelA := first.Subscribe("s1", "alice")
	defer cancelA()
	b, cancelB := second.Subscribe("s1", "alice")
	defer cancelB()

	fan := Fanout{first, second}
	require.NoError(t, fan.Publish(context.Background(), "s1", New(EventGameOver, "s1", nil)))

	for _, ch := range []<-chan Event{a, b} {
		select {
		case got := <-ch:
			assert.Equal(t, EventGameOver, got.Type)
		case <-time.After(time.Second):
			t.Fatal("fanout target missed the event")
		}
	}
}
