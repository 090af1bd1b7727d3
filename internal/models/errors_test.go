package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	kind, msg := KindOf(NewError(ErrCorruptDocument, "bad xref"))
	assert.Equal(t, ErrCorruptDocument, kind)
	assert.Equal(t, "bad xref", msg)

	// wrapping keeps the kind visible through fmt chains
	wrapped := fmt.Errorf("stage failed: %w", WrapError(ErrOCRUnavailable, "engine down", errors.New("connect refused")))
	kind, _ = KindOf(wrapped)
	assert.Equal(t, ErrOCRUnavailable, kind)

	// anything outside the taxonomy is an internal fault
	kind, msg = KindOf(errors.New("nil pointer"))
	assert.Equal(t, ErrInternalExtraction, kind)
	assert.Equal(t, "nil pointer", msg)
}

func TestIsKind(t *testing.T) {
	err := WrapError(ErrExtractionTimeout, "too slow", errors.New("deadline"))
	assert.True(t, IsKind(err, ErrExtractionTimeout))
	assert.False(t, IsKind(err, ErrCorruptDocument))
	assert.False(t, IsKind(errors.New("plain"), ErrExtractionTimeout))
}

func TestFailureResult(t *testing.T) {
	res := FailureResult("broken.pdf", NewError(ErrCorruptDocument, "unreadable"))
	assert.Equal(t, StatusFailure, res.Status)
	assert.Equal(t, "broken.pdf", res.Filename)
	assert.Equal(t, ErrCorruptDocument, res.ErrorKind)
	assert.Equal(t, "unreadable", res.ErrorMessage)
	assert.Empty(t, res.Text)
	assert.False(t, res.Timestamp.IsZero())
}

func TestExtractionErrorUnwrap(t *testing.T) {
	inner := errors.New("io fault")
	err := WrapError(ErrMetadataUnavailable, "cannot read", inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "MetadataUnavailable")
	assert.Contains(t, err.Error(), "io fault")
}
