package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrInternal,
		ErrConflict, ErrIneligible, ErrServiceUnavail,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

func TestAppError_ErrorString_WithWrappedError(t *testing.T) {
	inner := fmt.Errorf("db connection lost")
	appErr := &AppError{Code: "INTERNAL_ERROR", Message: "something broke", Err: inner}
	assert.Contains(t, appErr.Error(), "INTERNAL_ERROR")
	assert.Contains(t, appErr.Error(), "something broke")
	assert.Contains(t, appErr.Error(), "db connection lost")
}

func TestAppError_ErrorString_WithoutWrappedError(t *testing.T) {
	appErr := &AppError{Code: "NOT_FOUND", Message: "coupon not found"}
	assert.Equal(t, "NOT_FOUND: coupon not found", appErr.Error())
}

func TestNotFound(t *testing.T) {
	err := NotFound("coupon", "SUMMER10")
	require.NotNil(t, err)
	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Contains(t, err.Message, "SUMMER10")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestIneligible_CarriesReason(t *testing.T) {
	err := Ineligible("expired", "coupon has expired")
	assert.Equal(t, "INELIGIBLE", err.Code)
	assert.Equal(t, "expired", err.Reason)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.ErrorIs(t, err, ErrIneligible)
}

func TestConflict_CarriesReason(t *testing.T) {
	err := Conflict("usage_limit_reached", "coupon usage limit reached")
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "usage_limit_reached", ReasonOf(fmt.Errorf("commit: %w", err)))
}

func TestReasonOf_PlainError(t *testing.T) {
	assert.Empty(t, ReasonOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", InvalidInput("bad"), http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"conflict sentinel", ErrConflict, http.StatusConflict},
		{"ineligible sentinel", ErrIneligible, http.StatusUnprocessableEntity},
		{"unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrNotFound, "load reward")
	assert.EqualError(t, err, "load reward: resource not found")
	assert.ErrorIs(t, err, ErrNotFound)
}
