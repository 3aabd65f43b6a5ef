package user

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/totegamma/sigchat/core"
	"github.com/totegamma/sigchat/core/mock"
	"github.com/totegamma/sigchat/x/hasher"
	"github.com/totegamma/sigchat/x/store"
	"github.com/totegamma/sigchat/x/user/mock"
)

func setupService(t *testing.T) (core.UserService, *store.Collection[core.User]) {
	t.Helper()

	dialector, err := store.Dialector(store.Config{DataDir: t.TempDir()}, "users")
	require.NoError(t, err)
	users := store.NewCollection[core.User]("users", dialector, store.Options{})
	require.NoError(t, users.Load(context.Background()))
	t.Cleanup(func() { users.Close() })

	return NewService(NewRepository(users, nil), hasher.NewService(), core.Config{HashRounds: 4}), users
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	s, users := setupService(t)

	created, err := s.Register(ctx, "alice", "p")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Username)

	stored, err := users.FindOne(ctx, core.User{ID: created.ID})
	if assert.NoError(t, err) {
		assert.NotEqual(t, "p", stored.PasswordHash)
		assert.Len(t, stored.PasswordHash, 60)
		assert.Equal(t, stored.Salt, stored.PasswordHash[:29])
	}

	logged, err := s.Login(ctx, "alice", "p")
	if assert.NoError(t, err) {
		assert.Equal(t, created.ID, logged.ID)
	}

	_, err = s.Login(ctx, "alice", "q")
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	_, err = s.Login(ctx, "bob", "p")
	assert.ErrorIs(t, err, ErrUserNotFound)

	count, err := s.Count(ctx)
	if assert.NoError(t, err) {
		assert.Equal(t, int64(1), count)
	}
}

func TestRegisterLongPassword(t *testing.T) {
	ctx := context.Background()
	s, _ := setupService(t)

	password := strings.Repeat("p", 73)
	created, err := s.Register(ctx, "dave", password)
	require.NoError(t, err)

	logged, err := s.Login(ctx, "dave", password)
	if assert.NoError(t, err) {
		assert.Equal(t, created.ID, logged.ID)
	}

	_, err = s.Login(ctx, "dave", password[:71])
	assert.ErrorIs(t, err, ErrIncorrectPassword)
}

func TestRegisterDistinctSalts(t *testing.T) {
	ctx := context.Background()
	s, users := setupService(t)

	first, err := s.Register(ctx, "alice", "p")
	require.NoError(t, err)
	second, err := s.Register(ctx, "carol", "p")
	require.NoError(t, err)

	a, err := users.FindOne(ctx, core.User{ID: first.ID})
	require.NoError(t, err)
	b, err := users.FindOne(ctx, core.User{ID: second.ID})
	require.NoError(t, err)

	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestRegisterHashFailureLeavesNoRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHasher := mock_core.NewMockHasherService(ctrl)
	mockHasher.EXPECT().GenerateSalt(gomock.Any(), 10).Return("$2a$10$abcdefghijklmnopqrstuu", nil)
	mockHasher.EXPECT().Hash(gomock.Any(), "p", "$2a$10$abcdefghijklmnopqrstuu").Return("", core.NewErrorHashing(errors.New("boom")))

	// Insert is never expected
	mockRepo := mock_user.NewMockRepository(ctrl)

	s := NewService(mockRepo, mockHasher, core.SetupConfig(core.ConfigInput{}))
	_, err := s.Register(context.Background(), "alice", "p")
	assert.ErrorAs(t, err, &core.ErrorHashing{})
}

func TestLoginStorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_user.NewMockRepository(ctrl)
	mockRepo.EXPECT().FindByUsername(gomock.Any(), "alice").Return(core.User{}, core.NewErrorStorage("find", errors.New("closed")))

	s := NewService(mockRepo, mock_core.NewMockHasherService(ctrl), core.Config{HashRounds: 4})
	_, err := s.Login(context.Background(), "alice", "p")
	assert.ErrorAs(t, err, &core.ErrorStorage{})
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestServiceValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := NewService(mock_user.NewMockRepository(ctrl), mock_core.NewMockHasherService(ctrl), core.Config{HashRounds: 4})

	var verr core.ErrorValidation
	_, err := s.Register(context.Background(), "", "p")
	if assert.ErrorAs(t, err, &verr) {
		assert.Equal(t, "username", verr.Field)
	}
	_, err = s.Login(context.Background(), "alice", "")
	if assert.ErrorAs(t, err, &verr) {
		assert.Equal(t, "password", verr.Field)
	}
}
