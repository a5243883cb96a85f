package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "invpulse/internal/errors"
)

type uploadForm struct {
	OwnerID  string `json:"owner_id" validate:"required,uuid"`
	Filename string `json:"filename" validate:"required,filename"`
}

func TestValidator_Struct(t *testing.T) {
	v := NewValidator(discardLogger())

	tests := []struct {
		name       string
		form       uploadForm
		wantFields []string
	}{
		{"valid", uploadForm{"6f1c1c8e-9a5e-4b55-8d0e-2d3c1e0b9a11", "stock.xlsx"}, nil},
		{"missing owner", uploadForm{"", "stock.xlsx"}, []string{"owner_id"}},
		{"bad owner and path", uploadForm{"nope", "../etc/passwd"}, []string{"owner_id", "filename"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.form)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			var fields []string
			for _, e := range details.Errors {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := NewValidator(nil)

	require.NoError(t, v.Var("X-Owner-ID", "6f1c1c8e-9a5e-4b55-8d0e-2d3c1e0b9a11", "required,uuid"))

	err := v.Var("X-Owner-ID", "123", "required,uuid")
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	details := apiErr.Details.(apierrors.ValidationError)
	assert.Equal(t, "X-Owner-ID", details.Field)
	assert.Equal(t, "X-Owner-ID must be a valid UUID", details.Message)
}

func TestValidator_QueryInt(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 50, false},
		{"limit=10", 10, false},
		{"limit=abc", 0, true},
		{"limit=1000", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/upload/history?"+tt.query, nil)
			got, err := v.QueryInt(req, "limit", 1, 500, 50)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
