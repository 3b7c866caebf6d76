package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetAppError(t *testing.T) {
	wrapped := fmt.Errorf("saving receipt: %w", NewDuplicateReceiptNumberError("#001"))
	appErr := GetAppError(wrapped)
	assert.Equal(t, http.StatusConflict, appErr.Code)
	assert.Equal(t, TypeDuplicateReceiptNumber, appErr.Type)
	assert.Equal(t, "#001", appErr.Errors[0].Received)

	plain := GetAppError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, plain.Code)
	assert.Equal(t, TypeInternal, plain.Type)
}

func TestAppError_Is(t *testing.T) {
	assert.ErrorIs(t, NewMissingServerIDError(), ErrMissingServerID)
	assert.ErrorIs(t, NewNotFoundError("Receipt"), ErrNotFound)
	assert.NotErrorIs(t, NewNotFoundError("Receipt"), ErrValidation)
	assert.ErrorIs(t, fmt.Errorf("ctx: %w", NewMissingWatermarkError()), ErrMissingWatermark)
}

func TestNewFinancialIntegrityError(t *testing.T) {
	err := NewFinancialIntegrityError("grand_total", "27.50", "27.49")
	assert.Equal(t, TypeFinancialIntegrity, err.Type)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Code)
	assert.Equal(t, []FieldError{{
		Field:    "grand_total",
		Message:  "does not match the computed value",
		Expected: "27.50",
		Received: "27.49",
	}}, err.Errors)
}

func TestNewPersistenceError_Unwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewPersistenceError(cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestNewAppError_TypeFromStatus(t *testing.T) {
	assert.Equal(t, TypeForbidden, NewAppError(http.StatusForbidden, "no").Type)
	assert.Equal(t, TypeInternal, NewAppError(http.StatusBadGateway, "upstream").Type)
}
