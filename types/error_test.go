package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewUploadError("upload %s failed", "a.png").
		WithCause(root).
		WithHTTPStatus(502).
		WithPlatformCode(40005)

	assert.Equal(t, ErrUpload, GetErrorCode(err))
	assert.True(t, IsCode(err, ErrUpload))
	assert.True(t, errors.Is(err, root))
	assert.Equal(t, "[UPLOAD] upload a.png failed (errcode=40005): root", err.Error())
}

func TestError_WrappedStillMatches(t *testing.T) {
	t.Parallel()

	inner := NewAuthError("access token request failed: %s", "invalid credential").WithPlatformCode(40001)
	wrapped := fmt.Errorf("publish: %w", inner)

	got, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 40001, got.PlatformCode)
	assert.True(t, IsCode(wrapped, ErrAuth))
	assert.Contains(t, wrapped.Error(), "40001")
}

func TestError_MissingCoverSentinel(t *testing.T) {
	t.Parallel()

	err := NewPublishError("missing cover").WithCause(ErrMissingCover)
	assert.True(t, errors.Is(err, ErrMissingCover))
	assert.Equal(t, ErrPublish, GetErrorCode(err))
}

func TestGetErrorCode_PlainError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
	assert.False(t, IsCode(nil, ErrInput))
}
