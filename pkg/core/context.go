package core

import (
	"context"
	"errors"
)

// Errors components return for input they do not accept.
var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrUnknownField = errors.New("unknown field")
)

type contextKey string

const (
	sessionIDKey contextKey = "golivestepper:session-id"
	paramsKey    contextKey = "golivestepper:params"
	csrfKey      contextKey = "golivestepper:csrf"
)

// WithSessionID adds the live session ID to the context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext retrieves the live session ID from context.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// WithParams adds params to the context.
func WithParams(ctx context.Context, params Params) context.Context {
	return context.WithValue(ctx, paramsKey, params)
}

// ParamsFromContext retrieves params from context.
func ParamsFromContext(ctx context.Context) Params {
	p, _ := ctx.Value(paramsKey).(Params)
	return p
}

// WithCSRFToken adds the token a rendered form must post back.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfKey, token)
}

// CSRFTokenFromContext returns the form token, or "" when posts are not
// guarded.
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey).(string)
	return token
}
