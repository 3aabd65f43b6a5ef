package message

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/totegamma/sigchat/core"
	"github.com/totegamma/sigchat/core/mock"
	"github.com/totegamma/sigchat/x/message/mock"
	"github.com/totegamma/sigchat/x/store"
)

func TestServiceCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	before := time.Now()

	mockRepo := mock_message.NewMockRepository(ctrl)
	mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m core.Message) (core.Message, error) {
		assert.Equal(t, "hello", m.Text)
		assert.Equal(t, "u1", m.Author)
		assert.False(t, m.Date.Before(before))
		m.ID = "m1"
		return m, nil
	})

	mockRealtime := mock_core.NewMockRealtimeService(ctrl)
	mockRealtime.EXPECT().Broadcast(gomock.Any(), core.EventMessageReceived, gomock.Any()).DoAndReturn(func(_ context.Context, _ string, payload any) error {
		received, ok := payload.(core.MessageReceived)
		if assert.True(t, ok) {
			assert.Equal(t, "m1", received.Message.ID)
			assert.Equal(t, "hello", received.Message.Text)
		}
		return nil
	}).Times(1)

	s := NewService(mockRepo, mockRealtime)
	created, err := s.Create(context.Background(), "hello", "", "u1")
	if assert.NoError(t, err) {
		assert.Equal(t, "m1", created.ID)
		assert.Empty(t, created.Signature)
	}
}

func TestServiceCreateInsertFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_message.NewMockRepository(ctrl)
	mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(core.Message{}, core.NewErrorStorage("insert", errors.New("disk full")))

	// no broadcast after a failed insert
	mockRealtime := mock_core.NewMockRealtimeService(ctrl)

	s := NewService(mockRepo, mockRealtime)
	_, err := s.Create(context.Background(), "hello", "", "u1")
	assert.ErrorAs(t, err, &core.ErrorStorage{})
}

func TestServiceCreateValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := NewService(mock_message.NewMockRepository(ctrl), mock_core.NewMockRealtimeService(ctrl))

	var verr core.ErrorValidation
	_, err := s.Create(context.Background(), "", "", "u1")
	if assert.ErrorAs(t, err, &verr) {
		assert.Equal(t, "text", verr.Field)
	}

	_, err = s.Create(context.Background(), "hello", "", "")
	if assert.ErrorAs(t, err, &verr) {
		assert.Equal(t, "userID", verr.Field)
	}
}

func TestServiceWithCollection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	dialector, err := store.Dialector(store.Config{DataDir: t.TempDir()}, "messages")
	require.NoError(t, err)
	messages := store.NewCollection[core.Message]("messages", dialector, store.Options{})
	require.NoError(t, messages.Load(ctx))
	defer messages.Close()

	mockRealtime := mock_core.NewMockRealtimeService(ctrl)
	mockRealtime.EXPECT().Broadcast(gomock.Any(), core.EventMessageReceived, gomock.Any()).Return(nil).Times(1)

	s := NewService(NewRepository(messages), mockRealtime)
	created, err := s.Create(ctx, "hello", "sig", "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	count, err := s.Count(ctx)
	if assert.NoError(t, err) {
		assert.Equal(t, int64(1), count)
	}

	stored, err := messages.FindOne(ctx, core.Message{ID: created.ID})
	if assert.NoError(t, err) {
		assert.Equal(t, "u1", stored.Author)
		assert.Equal(t, "sig", stored.Signature)
	}
}
