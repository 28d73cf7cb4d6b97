package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rtdacademy/roster-api/internal/dto"
	"github.com/rtdacademy/roster-api/internal/observability"
)

const eventBufferSize = 16

// EventPublisher is the producer side of the roster event stream. Write
// paths publish through it after a successful mutation.
type EventPublisher interface {
	PublishRosterEvent(ctx context.Context, event dto.RosterEvent)
}

// EventService fans roster change events out to live subscribers on this
// node and relays them across nodes over Redis pub/sub and NATS.
type EventService interface {
	EventPublisher
	Subscribe() (<-chan dto.RosterEvent, func())
	Start(ctx context.Context)
}

type eventService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *eventBroker
	nodeID       string
	now          func() time.Time
}

// relayEnvelope wraps an event for cross-node transport. Source lets each
// node drop its own relayed events.
type relayEnvelope struct {
	Source string          `json:"source"`
	Event  dto.RosterEvent `json:"event"`
	SentAt time.Time       `json:"sent_at"`
}

type eventBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.RosterEvent]struct{}
}

// NewEventService constructs the roster event service. channelBase names the
// Redis channel and NATS subject family, e.g. "rtd:roster".
func NewEventService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) EventService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &eventService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "event_service").Logger(),
		broker:       &eventBroker{subscribers: make(map[chan dto.RosterEvent]struct{})},
		nodeID:       uuid.NewString(),
		now:          time.Now,
	}
}

func (s *eventService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// PublishRosterEvent delivers to local subscribers first, then relays. Relay
// failures are logged, never surfaced: event delivery is best effort and must
// not fail the mutation that produced it.
func (s *eventService) PublishRosterEvent(ctx context.Context, event dto.RosterEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}

	s.broker.broadcast(event)
	observability.RosterEventsPublishedTotal().WithLabelValues(event.Type).Inc()

	if err := s.relay(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to relay roster event")
	}
}

func (s *eventService) Subscribe() (<-chan dto.RosterEvent, func()) {
	channel := make(chan dto.RosterEvent, eventBufferSize)

	s.broker.subscribe(channel)
	observability.EventSubscribersActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(channel)
		observability.EventSubscribersActive().Dec()
	}

	return channel, cleanup
}

func (s *eventService) relay(ctx context.Context, event dto.RosterEvent) error {
	envelope := relayEnvelope{
		Source: s.nodeID,
		Event:  event,
		SentAt: s.now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *eventService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("roster event redis subscription closed")
			return
		}
		s.handleRelayed([]byte(msg.Payload))
	}
}

func (s *eventService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "rtd-roster-events", func(msg *nats.Msg) {
		s.handleRelayed(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats roster events subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain roster event nats subscription")
		}
	}()
}

func (s *eventService) handleRelayed(payload []byte) {
	var envelope relayEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid roster event payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	observability.RosterEventsPublishedTotal().WithLabelValues(envelope.Event.Type).Inc()
	s.broker.broadcast(envelope.Event)
}

func (b *eventBroker) subscribe(ch chan dto.RosterEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *eventBroker) unsubscribe(ch chan dto.RosterEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// broadcast drops events for slow subscribers rather than blocking the
// producer.
func (b *eventBroker) broadcast(event dto.RosterEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
