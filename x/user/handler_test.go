package user

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/totegamma/sigchat/core"
	"github.com/totegamma/sigchat/core/mock"
	"github.com/totegamma/sigchat/internal/testutil"
)

const credentials = `{"username":"alice","password":"p"}`

func TestHandlerRegister(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock_core.NewMockUserService(ctrl)
	mockService.EXPECT().Register(gomock.Any(), "alice", "p").Return(core.User{
		ID:           "u1",
		Username:     "alice",
		PasswordHash: "$2a$10$hash",
		Salt:         "$2a$10$salt",
	}, nil)

	h := NewHandler(mockService)

	c, _, rec, _ := testutil.CreateHttpRequest(http.MethodPost, strings.NewReader(credentials))
	if assert.NoError(t, h.Register(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, map[string]any{"id": "u1", "username": "alice"}, body)
	}
}

func TestHandlerRegisterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock_core.NewMockUserService(ctrl)
	mockService.EXPECT().Register(gomock.Any(), "alice", "p").Return(core.User{}, core.NewErrorHashing(errors.New("boom")))

	h := NewHandler(mockService)

	c, _, rec, _ := testutil.CreateHttpRequest(http.MethodPost, strings.NewReader(credentials))
	if assert.NoError(t, h.Register(c)) {
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	}
}

func TestHandlerLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock_core.NewMockUserService(ctrl)
	h := NewHandler(mockService)

	mockService.EXPECT().Login(gomock.Any(), "alice", "p").Return(core.User{ID: "u1"}, nil)
	c, _, rec, _ := testutil.CreateHttpRequest(http.MethodPost, strings.NewReader(credentials))
	if assert.NoError(t, h.Login(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	}

	mockService.EXPECT().Login(gomock.Any(), "alice", "p").Return(core.User{}, ErrIncorrectPassword)
	c, _, rec, _ = testutil.CreateHttpRequest(http.MethodPost, strings.NewReader(credentials))
	if assert.NoError(t, h.Login(c)) {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"incorrect password"}`, rec.Body.String())
	}

	mockService.EXPECT().Login(gomock.Any(), "alice", "p").Return(core.User{}, ErrUserNotFound)
	c, _, rec, _ = testutil.CreateHttpRequest(http.MethodPost, strings.NewReader(credentials))
	if assert.NoError(t, h.Login(c)) {
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"user not found"}`, rec.Body.String())
	}

	mockService.EXPECT().Login(gomock.Any(), "alice", "p").Return(core.User{}, errors.Wrap(core.NewErrorStorage("find", nil), "failed to find user"))
	c, _, rec, _ = testutil.CreateHttpRequest(http.MethodPost, strings.NewReader(credentials))
	if assert.NoError(t, h.Login(c)) {
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	}
}

func TestHandlerMissingField(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewHandler(mock_core.NewMockUserService(ctrl))

	c, _, rec, _ := testutil.CreateHttpRequest(http.MethodPost, strings.NewReader(`{"username":"alice"}`))
	if assert.NoError(t, h.Register(c)) {
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"missing required field","field":"password"}`, rec.Body.String())
	}

	c, _, rec, _ = testutil.CreateHttpRequest(http.MethodPost, strings.NewReader(`{"password":"p"}`))
	if assert.NoError(t, h.Login(c)) {
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"missing required field","field":"username"}`, rec.Body.String())
	}
}
