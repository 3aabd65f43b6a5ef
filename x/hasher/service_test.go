package hasher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/totegamma/sigchat/core"
	"github.com/totegamma/sigchat/internal/testutil"
)

func TestGenerateSalt(t *testing.T) {
	ctx := context.Background()
	s := NewService()

	salt, err := s.GenerateSalt(ctx, 4)
	if assert.NoError(t, err) {
		assert.Len(t, salt, 29)
		assert.True(t, strings.HasPrefix(salt, "$2a$04$"))
	}

	salt, err = s.GenerateSalt(ctx, 0)
	if assert.NoError(t, err) {
		assert.True(t, strings.HasPrefix(salt, "$2a$10$"))
	}

	other, err := s.GenerateSalt(ctx, 0)
	if assert.NoError(t, err) {
		assert.NotEqual(t, salt, other)
	}

	_, err = s.GenerateSalt(ctx, 3)
	assert.ErrorAs(t, err, &core.ErrorHashing{})

	_, err = s.GenerateSalt(ctx, 32)
	assert.ErrorAs(t, err, &core.ErrorHashing{})
}

func TestHashAndCompare(t *testing.T) {
	ctx := context.Background()
	s := NewService()

	salt, err := s.GenerateSalt(ctx, 4)
	require.NoError(t, err)

	hash, err := s.Hash(ctx, "p", salt)
	require.NoError(t, err)
	assert.Len(t, hash, 60)
	assert.True(t, strings.HasPrefix(hash, salt))

	again, err := s.Hash(ctx, "p", salt)
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	ok, err := s.Compare(ctx, "p", hash)
	if assert.NoError(t, err) {
		assert.True(t, ok)
	}

	ok, err = s.Compare(ctx, "q", hash)
	if assert.NoError(t, err) {
		assert.False(t, ok)
	}

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("p")))
}

func TestHashMatchesReferenceImplementation(t *testing.T) {
	ctx := context.Background()
	s := NewService()

	for _, password := range []string{"", "p", "correct horse battery staple", strings.Repeat("x", 72)} {
		reference, err := bcrypt.GenerateFromPassword([]byte(password), 4)
		require.NoError(t, err)

		hash, err := s.Hash(ctx, password, string(reference[:29]))
		if assert.NoError(t, err) {
			assert.Equal(t, string(reference), hash)
		}
	}
}

func TestHashRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := NewService()

	_, err := s.GenerateSalt(ctx, 4)
	require.NoError(t, err)

	for _, bad := range []string{"", "salt", "$2a$04$short", "$3a$04$abcdefghijklmnopqrstuv", "$2a$xx$abcdefghijklmnopqrstuv"} {
		_, err = s.Hash(ctx, "p", bad)
		assert.ErrorAs(t, err, &core.ErrorHashing{}, bad)
	}

	_, err = s.Compare(ctx, "p", "not a hash")
	assert.ErrorAs(t, err, &core.ErrorHashing{})
}

func TestLongPassword(t *testing.T) {
	ctx := context.Background()
	s := NewService()

	salt, err := s.GenerateSalt(ctx, 4)
	require.NoError(t, err)

	prefix := strings.Repeat("x", 72)
	long := prefix + "y"

	hash, err := s.Hash(ctx, long, salt)
	require.NoError(t, err)
	assert.Len(t, hash, 60)

	prefixHash, err := s.Hash(ctx, prefix, salt)
	require.NoError(t, err)
	assert.Equal(t, prefixHash, hash)

	ok, err := s.Compare(ctx, long, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Compare(ctx, prefix+"zzz", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Compare(ctx, strings.Repeat("x", 71), hash)
	require.NoError(t, err)
	assert.False(t, ok)

	// same key bytes as x/crypto/bcrypt sees for the 72 byte prefix
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(prefix)))
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewService()

	_, err := s.GenerateSalt(ctx, 4)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Hash(ctx, "p", "$2a$04$abcdefghijklmnopqrstuu")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Compare(ctx, "p", "$2a$04$abcdefghijklmnopqrstuu")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashSpans(t *testing.T) {
	spanChecker := testutil.SetupMockTraceProvider()
	s := NewService()

	ctx, span := tracer.Start(context.Background(), "testRoot")
	salt, err := s.GenerateSalt(ctx, 4)
	require.NoError(t, err)
	_, err = s.Hash(ctx, "p", salt)
	require.NoError(t, err)
	span.End()

	traceID := span.SpanContext().TraceID().String()
	names := testutil.SpanNames(spanChecker.GetSpans(), traceID)
	ok := assert.Contains(t, names, "Hasher.Service.GenerateSalt")
	ok = assert.Contains(t, names, "Hasher.Service.Hash") && ok
	if !ok {
		testutil.PrintSpans(spanChecker.GetSpans(), traceID)
	}
}
