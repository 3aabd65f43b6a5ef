//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=mock/repository.go
package message

import (
	"context"

	"github.com/totegamma/sigchat/core"
	"github.com/totegamma/sigchat/x/store"
)

// Repository is the interface for message repository
type Repository interface {
	Insert(ctx context.Context, message core.Message) (core.Message, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	messages *store.Collection[core.Message]
}

// NewRepository creates a new message repository
func NewRepository(messages *store.Collection[core.Message]) Repository {
	return &repository{messages: messages}
}

// Insert stores a message
func (r *repository) Insert(ctx context.Context, message core.Message) (core.Message, error) {
	ctx, span := tracer.Start(ctx, "Message.Repository.Insert")
	defer span.End()

	created, err := r.messages.Insert(ctx, message)
	if err != nil {
		span.RecordError(err)
		return core.Message{}, err
	}

	return created, nil
}

// Count returns the number of stored messages
func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Message.Repository.Count")
	defer span.End()

	return r.messages.Count(ctx)
}
