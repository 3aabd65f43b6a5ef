package hasher

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/totegamma/sigchat/core"
)

var tracer = otel.Tracer("hasher")

type service struct{}

// NewService creates a new credential hasher
func NewService() core.HasherService {
	return &service{}
}

// GenerateSalt returns a bcrypt salt for the given cost. Zero or negative rounds select the default cost.
func (s *service) GenerateSalt(ctx context.Context, rounds int) (string, error) {
	ctx, span := tracer.Start(ctx, "Hasher.Service.GenerateSalt")
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return "", core.NewErrorHashing(err)
	}

	if rounds <= 0 {
		rounds = core.DefaultHashRounds
	}
	span.SetAttributes(attribute.Int("rounds", rounds))

	salt, err := newSalt(rounds)
	if err != nil {
		span.RecordError(err)
		return "", core.NewErrorHashing(err)
	}

	return salt, nil
}

// Hash derives the bcrypt hash of plaintext using exactly the given salt.
// Only the first 72 bytes of plaintext are significant.
func (s *service) Hash(ctx context.Context, plaintext, salt string) (string, error) {
	ctx, span := tracer.Start(ctx, "Hasher.Service.Hash")
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return "", core.NewErrorHashing(err)
	}

	hash, err := hashWithSalt([]byte(plaintext), salt)
	if err != nil {
		span.RecordError(err)
		return "", core.NewErrorHashing(err)
	}

	return hash, nil
}

// Compare reports whether plaintext matches hash
func (s *service) Compare(ctx context.Context, plaintext, hash string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Hasher.Service.Compare")
	defer span.End()

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		return false, core.NewErrorHashing(err)
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), significant([]byte(plaintext)))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	span.RecordError(err)
	return false, core.NewErrorHashing(err)
}
