package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewPersistenceError("failed to save session", inner)

	assert.Equal(t, "failed to save session: connection refused", err.Error())
	assert.ErrorIs(t, err, inner)

	bare := NewNotFoundError("topic not found")
	assert.Equal(t, "topic not found", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestDomainError_MarshalJSONOmitsWrappedError(t *testing.T) {
	err := NewGenerationError("Slices", TierAdvanced, errors.New("secret internal detail"))

	raw, marshalErr := json.Marshal(err)
	assert.NoError(t, marshalErr)
	assert.Contains(t, string(raw), "GENERATION_FAILURE")
	assert.NotContains(t, string(raw), "secret internal detail")
}

func TestNewGenerationError_NamesConceptAndTier(t *testing.T) {
	err := NewGenerationError("Goroutines", TierBeginner, errors.New("timeout"))

	assert.Equal(t, ErrGenerationFailure, err.Code)
	assert.Contains(t, err.Message, "Goroutines")
	assert.Contains(t, err.Message, "beginner")
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	var domainErr *DomainError
	wrapped := NewNotInitializedError("no session")

	assert.ErrorAs(t, wrapped, &domainErr)
	assert.Equal(t, ErrNotInitialized, domainErr.Code)
}
