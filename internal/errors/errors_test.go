package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("book %s not found", "book-1")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))
	assert.Equal(t, "book book-1 not found", err.Error())
}

func TestError_WrappedStillMatches(t *testing.T) {
	inner := Validation("El texto base no puede estar vacío.")
	wrapped := fmt.Errorf("plan generation: %w", inner)

	assert.True(t, Is(wrapped, ErrValidation))

	var domainErr *Error
	require.True(t, As(wrapped, &domainErr))
	assert.Equal(t, "El texto base no puede estar vacío.", domainErr.Message)
}

func TestPersistence_KeepsCause(t *testing.T) {
	cause := New("disk full")
	err := Persistence(cause, "save books")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save books: disk full", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeConflict, http.StatusConflict},
		{CodeConfirmationRequired, http.StatusConflict},
		{CodePersistence, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestWithDetails_Copies(t *testing.T) {
	base := ConfirmationRequired("overwrite existing content", nil)
	withDetails := base.WithDetails([]string{"art-1"})

	assert.Nil(t, base.Details)
	assert.Equal(t, []string{"art-1"}, withDetails.Details)
	assert.True(t, Is(withDetails, ErrConfirmationRequired))
}
