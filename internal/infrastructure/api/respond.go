package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"linisco-sync-layer/internal/domain"

	"github.com/rs/zerolog"
)

// statusFor maps an error to the HTTP status of its envelope
func statusFor(err error) int {
	var (
		verr *domain.ValidationError
		aerr *domain.AuthError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &aerr), domain.IsUnauthorizedFetch(err):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respond writes data, or err, wrapped in a result envelope
func respond[T any](w http.ResponseWriter, logger zerolog.Logger, data T, err error) {
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Int("status", status).Msg("Request failed")
		}
		writeJSON(w, status, domain.Fail[T](err, status))
		return
	}
	writeJSON(w, http.StatusOK, domain.Ok(data))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
