package handler

import (
	"errors"
	"net/http"

	"github.com/geoquery/geoquery/internal/llm"
)

// providerStatus maps provider error kinds to HTTP status codes so every
// handler that talks to a model reports failures the same way.
func providerStatus(err error) int {
	switch {
	case errors.Is(err, llm.ErrBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrMisconfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, llm.ErrUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, llm.ErrRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
