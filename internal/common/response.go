package common

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of every successful admin mutation.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func Success(message string) MessageResponse {
	return MessageResponse{Status: "success", Message: message}
}

var encodeFailure = []byte(`{"error":"failed to encode response"}`)

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithDomainError picks the status from the error chain and echoes the message.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	RespondWithError(w, HTTPStatusFromError(err), err.Error())
}

// RespondWithJSON writes payload with the given status. A payload that cannot be encoded
// turns into a 500 with a fixed body.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		code = http.StatusInternalServerError
		body = encodeFailure
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
