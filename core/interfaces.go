//go:generate go run go.uber.org/mock/mockgen -source=interfaces.go -destination=mock/services.go
package core

import (
	"context"
)

type HasherService interface {
	GenerateSalt(ctx context.Context, rounds int) (string, error)
	Hash(ctx context.Context, plaintext, salt string) (string, error)
	Compare(ctx context.Context, plaintext, hash string) (bool, error)
}

type KeyService interface {
	Release(ctx context.Context, key, userID string) error
}

type MessageService interface {
	Create(ctx context.Context, text, signature, author string) (Message, error)
	Count(ctx context.Context) (int64, error)
}

type RealtimeService interface {
	Broadcast(ctx context.Context, event string, payload any) error
}

type UserService interface {
	Register(ctx context.Context, username, password string) (User, error)
	Login(ctx context.Context, username, password string) (User, error)
	Count(ctx context.Context) (int64, error)
}
