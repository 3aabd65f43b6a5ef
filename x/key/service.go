package key

import (
	"context"

	"github.com/pkg/errors"

	"github.com/totegamma/sigchat/core"
)

type service struct {
	realtime core.RealtimeService
}

// NewService creates a new key service
func NewService(realtime core.RealtimeService) core.KeyService {
	return &service{realtime}
}

// Release announces a public key to connected clients. Keys are not stored.
func (s *service) Release(ctx context.Context, key, userID string) error {
	ctx, span := tracer.Start(ctx, "Key.Service.Release")
	defer span.End()

	if key == "" {
		return core.NewErrorValidation("key")
	}
	if userID == "" {
		return core.NewErrorValidation("userID")
	}

	err := s.realtime.Broadcast(ctx, core.EventPublicKeyReleased, core.PublicKeyReleased{
		Key:    key,
		UserID: userID,
	})
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to broadcast public key")
	}

	return nil
}
