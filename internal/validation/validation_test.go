package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab-service/internal/apperrors"
)

type registerInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"notblank"`
}

func TestStructValid(t *testing.T) {
	err := Struct(registerInput{Email: "a@b.io", Password: "long enough", Name: "Ann"})
	assert.NoError(t, err)
}

func TestStructCollectsFieldErrors(t *testing.T) {
	err := Struct(registerInput{Email: "nope", Password: "short", Name: "   "})
	require.Error(t, err)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindBadRequest, appErr.Kind)

	byField := map[string]string{}
	for _, f := range appErr.Fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "must be a valid email", byField["email"])
	assert.Equal(t, "must be at least 8 characters", byField["password"])
	assert.Equal(t, "is required", byField["name"])
}
