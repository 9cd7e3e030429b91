package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type apiError struct {
	Msg string `json:"msg"`
}

// writeErrors emits the structured error body used across the API:
// {"errors":[{"msg":"..."}]}. Internal detail never leaves the server.
func writeErrors(w http.ResponseWriter, status int, msgs ...string) {
	errs := make([]apiError, 0, len(msgs))
	for _, m := range msgs {
		errs = append(errs, apiError{Msg: m})
	}
	writeJSON(w, status, map[string]any{"errors": errs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response body")
	}
}
