package live

import (
	"errors"
	"net/http"

	"github.com/gabrielmiguelok/golivestepper/pkg/core"
	"github.com/gabrielmiguelok/golivestepper/pkg/limits"
	"github.com/gabrielmiguelok/golivestepper/pkg/protocol"
	"github.com/gabrielmiguelok/golivestepper/pkg/security"
	"github.com/gabrielmiguelok/golivestepper/pkg/wizard"
)

// statusFor maps an error to the HTTP status reported for it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTooManySessions), errors.Is(err, ErrManagerClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, security.ErrMissingToken),
		errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, security.ErrTokenExpired):
		return http.StatusForbidden
	case errors.Is(err, limits.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, wizard.ErrSubmitPending):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnknownEvent),
		errors.Is(err, core.ErrUnknownField),
		errors.Is(err, protocol.ErrInvalidMessage),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
