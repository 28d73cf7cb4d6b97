package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/rtdacademy/roster-api/internal/dto"
)

func TestEventServiceLocalFanOut(t *testing.T) {
	svc := NewEventService(nil, "", nil, testLogger())

	events, cancel := svc.Subscribe()
	defer cancel()

	svc.PublishRosterEvent(context.Background(), dto.RosterEvent{
		Type:     "enrollment.status_changed",
		ActorKey: "teacher@rtd",
	})

	select {
	case event := <-events:
		require.Equal(t, "enrollment.status_changed", event.Type)
		require.NotEmpty(t, event.ID)
		require.False(t, event.OccurredAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected event on subscriber channel")
	}
}

func TestEventServiceUnsubscribeClosesChannel(t *testing.T) {
	svc := NewEventService(nil, "", nil, testLogger())

	events, cancel := svc.Subscribe()
	cancel()

	_, open := <-events
	require.False(t, open)

	// publishing after unsubscribe must not panic or block
	svc.PublishRosterEvent(context.Background(), dto.RosterEvent{Type: "roster.mass_update"})
}

func TestEventServiceRelaysOverRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	svc := NewEventService(client, "rtd:roster", nil, testLogger())

	pubsub := client.Subscribe(context.Background(), "rtd:roster:events")
	defer pubsub.Close()
	_, err = pubsub.Receive(context.Background())
	require.NoError(t, err)

	svc.PublishRosterEvent(context.Background(), dto.RosterEvent{Type: "roster.archive"})

	select {
	case msg := <-pubsub.Channel():
		var envelope struct {
			Source string          `json:"source"`
			Event  dto.RosterEvent `json:"event"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &envelope))
		require.NotEmpty(t, envelope.Source)
		require.Equal(t, "roster.archive", envelope.Event.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("expected relayed event on redis channel")
	}
}

func TestEventServiceDropsOwnRelayedEvents(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	svc := NewEventService(client, "rtd:roster", nil, testLogger())
	svc.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	events, cancel := svc.Subscribe()
	defer cancel()

	svc.PublishRosterEvent(context.Background(), dto.RosterEvent{Type: "category.applied"})

	// exactly one delivery: the local broadcast, not the relayed echo
	<-events
	select {
	case event := <-events:
		t.Fatalf("unexpected duplicate event %q", event.Type)
	case <-time.After(200 * time.Millisecond):
	}
}
