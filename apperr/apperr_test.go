package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("load goals: %w", NotFound("goal not found"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "goal not found", MessageOf(wrapped))
	assert.Equal(t, KindStore, KindOf(errors.New("boom")))
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("x: %w", Store("insert badges", errors.New("conn reset")))
	assert.True(t, errors.Is(err, &Error{Kind: KindStore}))
	assert.False(t, errors.Is(err, &Error{Kind: KindNotFound}))
	assert.Contains(t, err.Error(), "conn reset")
}

func TestInvalidCarriesFields(t *testing.T) {
	err := fmt.Errorf("create goal: %w", Invalid(map[string]string{"target": "Deve ser um número positivo"}))
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "Deve ser um número positivo", FieldsOf(err)["target"])
	assert.Nil(t, FieldsOf(NotFound("x")))
}
