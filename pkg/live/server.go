// Package live serves a component over HTTP: a full page on GET, a
// WebSocket event loop for connected clients, and a form-post fallback for
// clients without JavaScript.
package live

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gabrielmiguelok/golivestepper/client"
	"github.com/gabrielmiguelok/golivestepper/pkg/core"
	"github.com/gabrielmiguelok/golivestepper/pkg/health"
	"github.com/gabrielmiguelok/golivestepper/pkg/limits"
	"github.com/gabrielmiguelok/golivestepper/pkg/logging"
	"github.com/gabrielmiguelok/golivestepper/pkg/metrics"
	"github.com/gabrielmiguelok/golivestepper/pkg/security"
)

// Config configures a Server.
type Config struct {
	// Title is the page title.
	Title string

	// AllowedOrigins are extra WebSocket origin patterns. Same-origin
	// connections are always accepted.
	AllowedOrigins []string

	// SessionIdle expires sessions without connections or events.
	SessionIdle time.Duration

	// MaxSessions caps live sessions. Zero means no cap.
	MaxSessions int

	// EventsPerSecond and EventBurst limit events per session.
	EventsPerSecond float64
	EventBurst      int

	// MaxConnsPerIP limits concurrent WebSocket connections per client.
	MaxConnsPerIP int

	// WriteTimeout bounds a single WebSocket write.
	WriteTimeout time.Duration

	// MaxMessageSize bounds a single client message in bytes.
	MaxMessageSize int64

	// Version is reported by the health endpoint.
	Version string

	// CSRFSecret signs form post tokens. Empty means a random secret per
	// process.
	CSRFSecret []byte
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Title:           "golivestepper",
		SessionIdle:     30 * time.Minute,
		EventsPerSecond: 20,
		EventBurst:      40,
		MaxConnsPerIP:   20,
		WriteTimeout:    10 * time.Second,
		MaxMessageSize:  64 * 1024,
	}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics the server records to and exposes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server is the live host.
type Server struct {
	cfg      Config
	logger   logging.Logger
	metrics  *metrics.Metrics
	sessions *Manager
	events   *limits.KeyedLimiter
	conns    *limits.ConnectionLimiter
	health   *health.Checker
	csrf     *security.CSRF
	handler  http.Handler

	closing   chan struct{}
	closeOnce sync.Once
}

// NewServer creates a server building one component per session with
// factory.
func NewServer(factory Factory, cfg Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logging.NopLogger{},
		closing: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics("stepper")
	}
	if s.cfg.WriteTimeout <= 0 {
		s.cfg.WriteTimeout = 10 * time.Second
	}

	s.csrf = security.NewCSRF(cfg.CSRFSecret, 0)
	s.events = limits.NewKeyedLimiter(cfg.EventsPerSecond, cfg.EventBurst)
	s.sessions = NewManager(factory, ManagerOptions{
		Idle:        cfg.SessionIdle,
		MaxSessions: cfg.MaxSessions,
		CSRF:        s.csrf,
		OnRemove:    s.events.Forget,
		Logger:      s.logger,
		Metrics:     s.metrics,
	})
	s.conns = limits.NewConnectionLimiter(cfg.MaxConnsPerIP)

	s.health = health.NewChecker(cfg.Version)
	s.health.AddCheck("sessions", health.CapacityCheck("sessions", s.sessions.Len, cfg.MaxSessions), time.Second, true)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.Handle("GET /live", s.conns.Middleware()(http.HandlerFunc(s.handleLive)))
	mux.HandleFunc("POST /event", s.handleEvent)
	mux.Handle("GET /_live/", http.StripPrefix("/_live/", client.Handler()))
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle("GET /healthz", s.health.Handler())

	s.handler = chain(mux,
		logging.RequestLogger(s.logger),
		s.recovery,
		secureHeaders,
	)
	return s
}

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

func chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Sessions returns the session manager.
func (s *Server) Sessions() *Manager {
	return s.sessions
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Run expires idle sessions until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.sessions.Run(ctx)
}

// Close drops live connections and terminates all sessions.
func (s *Server) Close(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closing) })
	return s.sessions.Close(ctx)
}

func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.metrics.RecordError("panic")
				logging.L(r.Context()).Error("handler panic",
					logging.Any("panic", rec),
					logging.String("stack", string(debug.Stack())),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// handlePage renders the full document. A known session query parameter
// re-renders that session; otherwise a new session starts.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := s.sessions.Get(r.URL.Query().Get("session"))
	if err != nil {
		session, err = s.sessions.Create(ctx, queryParams(r.URL.Query()))
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}

	html, err := session.Render(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := writePage(w, s.cfg.Title, session.ID, html); err != nil {
		logging.L(ctx).Warn("writing page", logging.Err(err))
	}
}

// handleEvent applies a form post carrying the session's CSRF token. Clients
// asking for a fragment get the component HTML back; plain browsers are
// redirected to the page.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	timer := metrics.NewTimer()

	session, err := s.sessions.Get(r.URL.Query().Get("session"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !s.events.Allow(session.ID) {
		s.fail(w, r, limits.ErrRateLimitExceeded)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := s.csrf.Validate(r.PostForm.Get(security.FormField), session.ID); err != nil {
		s.fail(w, r, err)
		return
	}

	event := r.PostForm.Get("_event")
	html, err := session.Do(ctx, func(ctx context.Context, c core.Component) error {
		if fh, ok := c.(core.FormHandler); ok {
			return fh.HandleForm(ctx, event, r.PostForm)
		}
		return c.HandleEvent(ctx, event, formPayload(r.PostForm))
	})
	s.metrics.ObserveEvent(eventLabel(event), "http", timer.Elapsed())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if r.Header.Get("X-Live-Fragment") != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
		return
	}
	http.Redirect(w, r, "/?"+url.Values{"session": {session.ID}}.Encode(), http.StatusSeeOther)
}

var errBadRequest = errors.New("bad request")

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.metrics.RecordError("internal")
		logging.L(r.Context()).Error("request failed", logging.Err(err))
	} else {
		logging.L(r.Context()).Debug("request rejected", logging.Int("status", status), logging.Err(err))
	}
	http.Error(w, err.Error(), status)
}

func queryParams(q url.Values) core.Params {
	params := make(core.Params, len(q))
	for k := range q {
		params[k] = q.Get(k)
	}
	return params
}

func formPayload(form url.Values) map[string]any {
	payload := make(map[string]any, len(form))
	for k := range form {
		if k != "_event" && k != security.FormField {
			payload[k] = form.Get(k)
		}
	}
	return payload
}

func eventLabel(event string) string {
	if event == "" {
		return "submit"
	}
	return event
}
