package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		errorCode  string
		message    string
	}{
		{"malformed body", http.StatusBadRequest, "invalid_request", "Invalid request body"},
		{"oversized upload", http.StatusRequestEntityTooLarge, "file_too_large", "Uploaded file too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			require.NoError(t, ErrorResponse(rec, tt.statusCode, tt.errorCode, tt.message))

			assert.Equal(t, tt.statusCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body ErrorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, ErrorBody{Error: tt.errorCode, Message: tt.message}, body)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteJSON(rec, http.StatusOK, map[string]bool{"success": true}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestWriteJSON_UnencodableData(t *testing.T) {
	rec := httptest.NewRecorder()

	assert.Error(t, WriteJSON(rec, http.StatusOK, make(chan int)))
}
