package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type couponRequest struct {
	Code      string    `json:"code" validate:"required,couponcode"`
	Type      string    `json:"type" validate:"required,oneof=percentage fixed_amount free_shipping"`
	Value     int64     `json:"value" validate:"gt=0"`
	UsageMax  int       `json:"usage_limit" validate:"gte=0"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	UserIDs   []string  `json:"user_ids" validate:"omitempty,min=1,dive,uuid"`
}

func validRequest() couponRequest {
	now := time.Now()
	return couponRequest{
		Code:      "SAVE10",
		Type:      "percentage",
		Value:     10,
		StartDate: now,
		EndDate:   now.Add(time.Hour),
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(validRequest()))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	r := validRequest()
	r.Code = ""
	fields := fieldsOf(t, Validate(r))
	assert.Equal(t, "is required", fields["code"])
}

func TestValidate_CouponCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"SAVE10", true},
		{"WELCOME_2024", true},
		{"BLACK-FRIDAY", true},
		{"ab", false},
		{"save10", false},
		{"HAS SPACE", false},
		{"-LEADING", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			r := validRequest()
			r.Code = tt.code
			err := Validate(r)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, fieldsOf(t, err)["code"], "upper-case")
		})
	}
}

func TestValidate_OneOf(t *testing.T) {
	r := validRequest()
	r.Type = "bogus"
	assert.Contains(t, fieldsOf(t, Validate(r))["type"], "one of")
}

func TestValidate_GreaterThan(t *testing.T) {
	r := validRequest()
	r.Value = 0
	assert.Equal(t, "must be greater than 0", fieldsOf(t, Validate(r))["value"])
}

func TestValidate_EndBeforeStart(t *testing.T) {
	r := validRequest()
	r.EndDate = r.StartDate.Add(-time.Hour)
	assert.Contains(t, fieldsOf(t, Validate(r))["end_date"], "must be after")
}

func TestValidate_DiveUUID(t *testing.T) {
	r := validRequest()
	r.UserIDs = []string{"not-a-uuid"}
	err := Validate(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a valid UUID")
}

func TestValidationError_ErrorString(t *testing.T) {
	r := validRequest()
	r.Code = ""
	r.Value = -1
	err := Validate(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'code' is required")
	assert.Contains(t, err.Error(), "; ")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"code":"SAVE10","type":"fixed_amount","value":500,"start_date":"2026-01-01T00:00:00Z","end_date":"2026-02-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var r couponRequest
	require.NoError(t, DecodeAndValidate(req, &r))
	assert.Equal(t, "SAVE10", r.Code)
	assert.Equal(t, int64(500), r.Value)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var r couponRequest
	err := DecodeAndValidate(req, &r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
