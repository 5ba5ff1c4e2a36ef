// Package core defines the contract between stateful server-side components
// and the live host that mounts, renders and drives them.
package core

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Component is a stateful server-side view. The host guarantees that calls
// on one instance never overlap.
type Component interface {
	// Name returns the unique identifier for this component type.
	Name() string

	// Mount is called once when a session starts.
	Mount(ctx context.Context, params Params, session Session) error

	// Render returns the current HTML representation of the component.
	Render(ctx context.Context) Renderer

	// HandleEvent processes a user interaction. The payload carries the
	// event data, e.g. the values of the form that was submitted.
	HandleEvent(ctx context.Context, event string, payload map[string]any) error

	// Terminate is called when the session ends.
	Terminate(ctx context.Context, reason TerminateReason) error
}

// FormHandler is implemented by components that accept plain HTML form
// posts, e.g. from browsers without JavaScript.
type FormHandler interface {
	HandleForm(ctx context.Context, event string, form url.Values) error
}

// Renderer is the interface for rendering HTML content.
// It's compatible with templ components.
type Renderer interface {
	Render(ctx context.Context, w io.Writer) error
}

// RendererFunc is an adapter to allow ordinary functions to be used as Renderers.
type RendererFunc func(ctx context.Context, w io.Writer) error

func (f RendererFunc) Render(ctx context.Context, w io.Writer) error {
	return f(ctx, w)
}

// RenderString renders r into a string.
func RenderString(ctx context.Context, r Renderer) (string, error) {
	var sb strings.Builder
	if err := r.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Params contains URL query parameters of the mounting request.
type Params map[string]string

// Get returns a parameter value or empty string if not found.
func (p Params) Get(key string) string {
	return p[key]
}

// Session contains per-session data set by the host.
type Session map[string]any

// GetString returns a session value as string.
func (s Session) GetString(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// TerminateReason indicates why a component is being terminated.
type TerminateReason int

const (
	// TerminateNormal indicates clean disconnection.
	TerminateNormal TerminateReason = iota
	// TerminateShutdown indicates server shutdown.
	TerminateShutdown
	// TerminateError indicates termination due to an error.
	TerminateError
	// TerminateTimeout indicates termination due to inactivity.
	TerminateTimeout
)

func (r TerminateReason) String() string {
	switch r {
	case TerminateNormal:
		return "normal"
	case TerminateShutdown:
		return "shutdown"
	case TerminateError:
		return "error"
	case TerminateTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// BaseComponent provides no-op Mount and Terminate. Embed it to skip them.
type BaseComponent struct{}

func (BaseComponent) Mount(ctx context.Context, params Params, session Session) error {
	return nil
}

func (BaseComponent) Terminate(ctx context.Context, reason TerminateReason) error {
	return nil
}
