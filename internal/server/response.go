package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// envelope is the body of every response.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorInfo `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: status >= 200 && status < 300, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	write(w, status, envelope{Error: &errorInfo{Code: code, Message: message}})
}

// writeErrorWithData reports a failure alongside the resulting state.
func writeErrorWithData(w http.ResponseWriter, status int, code, message string, data any) {
	write(w, status, envelope{Data: data, Error: &errorInfo{Code: code, Message: message}})
}

func writeValidationError(w http.ResponseWriter, details map[string]string) {
	write(w, http.StatusBadRequest, envelope{Error: &errorInfo{
		Code:    "VALIDATION_ERROR",
		Message: "Invalid request payload",
		Details: details,
	}})
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// maxBodyBytes caps request payloads. Booking batches are a few KB.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
