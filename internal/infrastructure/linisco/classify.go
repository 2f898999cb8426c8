package linisco

import (
	"errors"
	"net/http"

	"linisco-sync-layer/internal/domain"
)

// unavailable reports statuses treated as the upstream being unreachable
func unavailable(status int) bool {
	return status == http.StatusServiceUnavailable || status == http.StatusNotFound
}

func successful(status int) bool {
	return status >= 200 && status < 300
}

// Recoverable reports whether err means the upstream could not be reached, in which
// case callers substitute synthetic data instead of failing.
func Recoverable(err error) bool {
	var ce *domain.ConnectivityError
	return errors.As(err, &ce)
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	if len(body) == 0 {
		return "<empty body>"
	}
	return string(body)
}
