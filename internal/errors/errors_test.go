package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := NetworkError("contiguity", fmt.Errorf("connection refused"))
	wrapped := Wrap(base, "refresh failed")

	assert.Equal(t, CodeNetworkError, GetCode(wrapped))
	assert.True(t, HasCode(wrapped, CodeNetworkError))
	assert.True(t, stderrors.Is(wrapped, base))
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestWrapPlainError(t *testing.T) {
	err := Wrapf(fmt.Errorf("boom"), "step %d", 2)
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Equal(t, "step 2: boom", err.Error())
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", DecodeError("bbox", fmt.Errorf("bad json")))
	assert.Equal(t, CodeDecodeError, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
	assert.False(t, HasCode(nil, CodeDecodeError))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeInvalidInput, InternalError("x"))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
}
