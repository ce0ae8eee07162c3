package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/marks/internal/auth"
	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// envelope is the wire form of an auth event on the pub/sub channel
type envelope struct {
	Origin string     `json:"origin"`
	Event  auth.Event `json:"event"`
}

// EventBus fans auth events out to every instance sharing the Redis.
// Local subscribers are always served synchronously through the hub; other
// instances receive the event over pub/sub and deliver it to their own hub.
type EventBus struct {
	client redis.UniversalClient
	hub    *auth.Hub
	origin string
	logger logger.Logger
}

var _ auth.Publisher = (*EventBus)(nil)

// NewEventBus creates an event bus tagged with a fresh instance id
func NewEventBus(client redis.UniversalClient, hub *auth.Hub, log logger.Logger) *EventBus {
	return &EventBus{
		client: client,
		hub:    hub,
		origin: uuid.NewString(),
		logger: log,
	}
}

// Origin returns the id stamped on events published by this instance
func (b *EventBus) Origin() string {
	return b.origin
}

// Publish delivers ev locally, then broadcasts it to the other instances.
// Local delivery happens even when the broadcast fails.
func (b *EventBus) Publish(ctx context.Context, sid string, ev auth.Event) error {
	b.hub.Deliver(sid, ev)

	data, err := encodeEnvelope(b.origin, ev)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, AuthChannel(sid), data).Err(); err != nil {
		return fmt.Errorf("failed to broadcast auth event: %w", err)
	}
	return nil
}

// Run relays events published by other instances until ctx is done or the
// subscription drops.
func (b *EventBus) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, AuthChannelPattern())
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to auth events: %w", err)
	}
	b.logger.Info("relaying auth events",
		logger.String("pattern", AuthChannelPattern()),
		logger.String("origin", b.origin))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("auth event subscription closed")
			}
			b.relay(msg.Channel, msg.Payload)
		}
	}
}

// relay delivers a foreign event to local subscribers, ignoring our own echoes
func (b *EventBus) relay(channel, payload string) {
	sid, err := ExtractSID(channel)
	if err != nil {
		b.logger.Warn("ignoring auth event", logger.Error(err))
		return
	}
	origin, ev, err := decodeEnvelope([]byte(payload))
	if err != nil {
		b.logger.Warn("ignoring malformed auth event",
			logger.String("channel", channel),
			logger.Error(err))
		return
	}
	if origin == b.origin {
		return
	}
	b.hub.Deliver(sid, ev)
}

// encodeEnvelope strips tokens; remote subscribers only ever need the user.
func encodeEnvelope(origin string, ev auth.Event) ([]byte, error) {
	if ev.Session != nil {
		ev.Session = &domain.Session{User: ev.Session.User}
	}
	data, err := json.Marshal(envelope{Origin: origin, Event: ev})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal auth event: %w", err)
	}
	return data, nil
}

func decodeEnvelope(data []byte) (string, auth.Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", auth.Event{}, fmt.Errorf("failed to unmarshal auth event: %w", err)
	}
	if env.Origin == "" || env.Event.Type == "" {
		return "", auth.Event{}, fmt.Errorf("auth event missing origin or type")
	}
	return env.Origin, env.Event, nil
}
