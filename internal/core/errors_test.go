package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	base := errors.New("connection reset")

	retryable := Retryable(fmt.Errorf("upsert batch 2/5: %w", base))
	assert.True(t, IsRetryable(retryable))
	assert.False(t, IsFatal(retryable))
	assert.ErrorIs(t, retryable, base)

	fatal := Fatal(fmt.Errorf("bad input: %w", ErrUnsupportedFormat))
	assert.True(t, IsFatal(fatal))
	assert.False(t, IsRetryable(fatal))
	assert.ErrorIs(t, fatal, ErrUnsupportedFormat)
}

func TestNotReadyIsAlwaysRetryable(t *testing.T) {
	err := fmt.Errorf("index docs: %w", ErrIndexNotReady)
	assert.True(t, IsRetryable(err))
}

func TestNilWrapping(t *testing.T) {
	assert.NoError(t, Retryable(nil))
	assert.NoError(t, Fatal(nil))
}
