package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of transport-level faults such as malformed requests.
// Domain failures never use it; they are outcomes with success=false.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorResponse writes an ErrorBody with the given status.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return WriteJSON(w, statusCode, ErrorBody{Error: errorCode, Message: message})
}

// WriteJSON writes data as JSON and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}
