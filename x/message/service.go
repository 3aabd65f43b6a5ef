package message

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/totegamma/sigchat/core"
)

type service struct {
	repo     Repository
	realtime core.RealtimeService
}

// NewService creates a new message service
func NewService(repo Repository, realtime core.RealtimeService) core.MessageService {
	return &service{repo, realtime}
}

// Create stores a new message and announces it to connected clients
func (s *service) Create(ctx context.Context, text, signature, author string) (core.Message, error) {
	ctx, span := tracer.Start(ctx, "Message.Service.Create")
	defer span.End()

	if text == "" {
		return core.Message{}, core.NewErrorValidation("text")
	}
	if author == "" {
		return core.Message{}, core.NewErrorValidation("userID")
	}

	created, err := s.repo.Insert(ctx, core.Message{
		Text:      text,
		Signature: signature,
		Author:    author,
		Date:      time.Now(),
	})
	if err != nil {
		span.RecordError(err)
		return core.Message{}, errors.Wrap(err, "failed to insert message")
	}

	err = s.realtime.Broadcast(ctx, core.EventMessageReceived, core.MessageReceived{Message: created})
	if err != nil {
		span.RecordError(err)
		return created, errors.Wrap(err, "failed to broadcast message")
	}

	return created, nil
}

// Count returns the count number of messages
func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Message.Service.Count")
	defer span.End()

	return s.repo.Count(ctx)
}
