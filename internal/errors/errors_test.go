package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunErrorFormatsActionID(t *testing.T) {
	err := NewActionError(SpawnFailed, "install-git", "winget not found")
	assert.Equal(t, "[SPAWN_FAILED] action install-git: winget not found", err.Error())
}

func TestRunErrorFormatsWrapped(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), CatalogError, "reading apps catalog")
	assert.Equal(t, "[CATALOG_ERROR] reading apps catalog: boom", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "boom")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CatalogError, "unused"))
}

func TestIsMatchesByType(t *testing.T) {
	err := fmt.Errorf("submit: %w", &RunError{Type: NothingSelected, Message: "empty"})
	assert.ErrorIs(t, err, ErrNothingSelected)
	assert.NotErrorIs(t, err, NewValidationError("x", ""))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ValidationError, TypeOf(NewValidationError("dup", "")))
	assert.Equal(t, "", TypeOf(fmt.Errorf("plain")))
}
