package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeNotFound, "page does not exist")
	assert.EqualError(t, err, "not_found: page does not exist")
	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeUnauthorized))
}

func TestNewf(t *testing.T) {
	err := Newf(CodeInsufficientPayment, "payment %d below cost %d", 100, 5000)
	assert.EqualError(t, err, "insufficient_payment: payment 100 below cost 5000")
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeTransferFailed, "refund transfer rejected")

	require.Error(t, err)
	assert.True(t, HasCode(err, CodeTransferFailed))
	assert.ErrorIs(t, err, cause)
	assert.EqualError(t, err, "transfer_failed: refund transfer rejected: connection reset")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestHasCodeThroughChain(t *testing.T) {
	inner := New(CodeBlocked, "caller is blacklisted")
	wrapped := fmt.Errorf("reserve: %w", inner)
	assert.True(t, HasCode(wrapped, CodeBlocked))
	assert.False(t, HasCode(errors.New("plain"), CodeBlocked))
	assert.False(t, HasCode(nil, CodeBlocked))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidTerm, CodeOf(New(CodeInvalidTerm, "bad term")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))

	// The outermost code wins when codes are nested.
	inner := New(CodeNotFound, "missing")
	outer := Wrap(inner, CodeInternal, "lookup failed")
	assert.Equal(t, CodeInternal, CodeOf(outer))
}
