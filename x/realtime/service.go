package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/sigchat/core"
)

var tracer = otel.Tracer("realtime")

// Service broadcasts events to connected clients
type Service interface {
	core.RealtimeService
	Start(ctx context.Context) error
}

type service struct {
	hub *Hub
	rdb *redis.Client
}

// NewService creates a new realtime service. A nil rdb delivers frames to the local hub directly.
func NewService(hub *Hub, rdb *redis.Client) Service {
	return &service{hub: hub, rdb: rdb}
}

// Broadcast sends the event to every connected client
func (s *service) Broadcast(ctx context.Context, event string, payload any) error {
	ctx, span := tracer.Start(ctx, "Realtime.Service.Broadcast")
	defer span.End()
	span.SetAttributes(attribute.String("event", event))

	data, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to marshal payload")
	}

	frame, err := json.Marshal(core.Event{
		Name: event,
		Data: data,
	})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to marshal event")
	}

	eventsCounter.WithLabelValues(event).Inc()

	if s.rdb == nil {
		s.hub.Deliver(frame)
		return nil
	}

	err = s.rdb.Publish(ctx, core.RealtimeChannel, frame).Err()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to publish event")
	}

	return nil
}

// Start relays frames published on redis to the local hub until ctx is done
func (s *service) Start(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}

	pubsub := s.rdb.Subscribe(ctx, core.RealtimeChannel)
	_, err := pubsub.Receive(ctx)
	if err != nil {
		pubsub.Close()
		return errors.Wrap(err, "failed to subscribe")
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					slog.Warn("realtime subscription closed", slog.String("module", "realtime"))
					return
				}
				s.hub.Deliver([]byte(msg.Payload))
			}
		}
	}()

	return nil
}
