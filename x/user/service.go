package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/totegamma/sigchat/core"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")
)

type service struct {
	repo   Repository
	hasher core.HasherService
	config core.Config
}

// NewService creates a new user service
func NewService(repo Repository, hasher core.HasherService, config core.Config) core.UserService {
	return &service{repo, hasher, config}
}

// Register creates a user with a freshly salted password hash
func (s *service) Register(ctx context.Context, username, password string) (core.User, error) {
	ctx, span := tracer.Start(ctx, "User.Service.Register")
	defer span.End()

	if username == "" {
		return core.User{}, core.NewErrorValidation("username")
	}
	if password == "" {
		return core.User{}, core.NewErrorValidation("password")
	}

	salt, err := s.hasher.GenerateSalt(ctx, s.config.HashRounds)
	if err != nil {
		span.RecordError(err)
		return core.User{}, errors.Wrap(err, "failed to generate salt")
	}

	hash, err := s.hasher.Hash(ctx, password, salt)
	if err != nil {
		span.RecordError(err)
		return core.User{}, errors.Wrap(err, "failed to hash password")
	}

	created, err := s.repo.Insert(ctx, core.User{
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
	})
	if err != nil {
		span.RecordError(err)
		return core.User{}, errors.Wrap(err, "failed to insert user")
	}

	return created, nil
}

// Login verifies the password of the user with the given username
func (s *service) Login(ctx context.Context, username, password string) (core.User, error) {
	ctx, span := tracer.Start(ctx, "User.Service.Login")
	defer span.End()

	if username == "" {
		return core.User{}, core.NewErrorValidation("username")
	}
	if password == "" {
		return core.User{}, core.NewErrorValidation("password")
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return core.User{}, ErrUserNotFound
		}
		span.RecordError(err)
		return core.User{}, errors.Wrap(err, "failed to find user")
	}

	ok, err := s.hasher.Compare(ctx, password, user.PasswordHash)
	if err != nil {
		span.RecordError(err)
		return core.User{}, errors.Wrap(err, "failed to compare password")
	}
	if !ok {
		return core.User{}, ErrIncorrectPassword
	}

	return user, nil
}

// Count returns the count number of users
func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "User.Service.Count")
	defer span.End()

	return s.repo.Count(ctx)
}
