package awerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryChecks(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("bucket missing")))
	assert.True(t, IsInvalidArgument(InvalidArgument("no fields")))
	assert.False(t, IsNotFound(InvalidArgument("no fields")))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestWrappedErrorsKeepTheirCategory(t *testing.T) {
	err := fmt.Errorf("operation failed: %w", NotFoundf("bucket %q does not exist", "b1"))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, CategoryNotFound, GetCategory(err))
}

func TestStoragePreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Storage(cause, "query events")

	assert.Equal(t, CategoryStorage, GetCategory(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), "storage")
}

func TestGetCategoryDefaultsToStorage(t *testing.T) {
	assert.Equal(t, CategoryStorage, GetCategory(errors.New("driver error")))
}
