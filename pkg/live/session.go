package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gabrielmiguelok/golivestepper/pkg/core"
	"github.com/gabrielmiguelok/golivestepper/pkg/logging"
	"github.com/gabrielmiguelok/golivestepper/pkg/metrics"
	"github.com/gabrielmiguelok/golivestepper/pkg/security"
)

// Session errors.
var (
	ErrSessionNotFound = errors.New("live: session not found")
	ErrTooManySessions = errors.New("live: too many sessions")
	ErrManagerClosed   = errors.New("live: session manager closed")
)

// Factory creates the component for a new session.
type Factory func(ctx context.Context) (core.Component, error)

// Session binds one component instance to a browser tab. Events for a
// session are handled one at a time.
type Session struct {
	ID        string
	Params    core.Params
	CreatedAt time.Time

	mu        sync.Mutex
	component core.Component
	csrf      string

	lastActive atomic.Int64
	conns      atomic.Int32
}

func newSession(id string, component core.Component, params core.Params) *Session {
	now := time.Now()
	s := &Session{
		ID:        id,
		Params:    params,
		CreatedAt: now,
		component: component,
	}
	s.lastActive.Store(now.UnixNano())
	return s
}

// Do runs fn with exclusive access to the component, then renders it. The
// HTML is returned even when fn fails so the caller can show the error in
// context.
func (s *Session) Do(ctx context.Context, fn func(ctx context.Context, c core.Component) error) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	ctx = core.WithSessionID(ctx, s.ID)
	ctx = core.WithParams(ctx, s.Params)
	if s.csrf != "" {
		ctx = core.WithCSRFToken(ctx, s.csrf)
	}

	var err error
	if fn != nil {
		err = fn(ctx, s.component)
	}
	html, renderErr := core.RenderString(ctx, s.component.Render(ctx))
	if renderErr != nil {
		return "", fmt.Errorf("rendering %s: %w", s.component.Name(), renderErr)
	}
	return html, err
}

// Render returns the component's current HTML.
func (s *Session) Render(ctx context.Context) (string, error) {
	return s.Do(ctx, nil)
}

// LastActive returns the time of the last event or render.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Connections returns the number of open live connections.
func (s *Session) Connections() int {
	return int(s.conns.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) terminate(ctx context.Context, reason core.TerminateReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.component.Terminate(core.WithSessionID(ctx, s.ID), reason)
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Idle is how long a session without connections or events is kept.
	// Zero keeps sessions until Close.
	Idle time.Duration

	// MaxSessions caps live sessions. Zero means no cap.
	MaxSessions int

	// CSRF, when set, issues each session the token its form posts carry.
	CSRF *security.CSRF

	// OnRemove is called with the ID of each session that is removed.
	OnRemove func(id string)

	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Manager owns the live sessions.
type Manager struct {
	factory Factory
	opts    ManagerOptions

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

// NewManager creates a manager that builds components with factory.
func NewManager(factory Factory, opts ManagerOptions) *Manager {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger{}
	}
	return &Manager{
		factory:  factory,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Create builds and mounts a component in a new session.
func (m *Manager) Create(ctx context.Context, params core.Params) (*Session, error) {
	m.mu.RLock()
	closed, n := m.closed, len(m.sessions)
	m.mu.RUnlock()
	if closed {
		return nil, ErrManagerClosed
	}
	if m.opts.MaxSessions > 0 && n >= m.opts.MaxSessions {
		return nil, ErrTooManySessions
	}

	id := uuid.NewString()
	component, err := m.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating component: %w", err)
	}
	mountCtx := core.WithSessionID(ctx, id)
	if err := component.Mount(mountCtx, params, core.Session{"id": id}); err != nil {
		return nil, fmt.Errorf("mounting %s: %w", component.Name(), err)
	}

	s := newSession(id, component, params)
	if m.opts.CSRF != nil {
		s.csrf = m.opts.CSRF.Token(id)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = component.Terminate(mountCtx, core.TerminateShutdown)
		return nil, ErrManagerClosed
	}
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		m.mu.Unlock()
		_ = component.Terminate(mountCtx, core.TerminateNormal)
		return nil, ErrTooManySessions
	}
	m.sessions[id] = s
	m.mu.Unlock()

	if m.opts.Metrics != nil {
		m.opts.Metrics.SessionsTotal.Inc()
		m.opts.Metrics.SessionsActive.Inc()
	}
	m.opts.Logger.Debug("session created", logging.Session(id), logging.String("component", component.Name()))
	return s, nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Remove terminates and forgets the session with id.
func (m *Manager) Remove(ctx context.Context, id string, reason core.TerminateReason) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	if m.opts.OnRemove != nil {
		m.opts.OnRemove(id)
	}

	if m.opts.Metrics != nil {
		m.opts.Metrics.SessionsActive.Dec()
	}
	m.opts.Logger.Debug("session removed", logging.Session(id), logging.String("reason", reason.String()))
	return s.terminate(ctx, reason)
}

// Sweep removes sessions idle since before now minus the idle timeout that
// have no open connection. It returns the number removed.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	if m.opts.Idle <= 0 {
		return 0
	}
	cutoff := now.Add(-m.opts.Idle)

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if s.Connections() == 0 && s.LastActive().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range expired {
		if err := m.Remove(ctx, id, core.TerminateTimeout); errors.Is(err, ErrSessionNotFound) {
			continue
		} else if err != nil {
			m.opts.Logger.Warn("terminate failed", logging.Session(id), logging.Err(err))
		}
		removed++
	}
	if removed > 0 && m.opts.Metrics != nil {
		m.opts.Metrics.SessionsExpired.Add(float64(removed))
	}
	return removed
}

// Run sweeps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	if m.opts.Idle <= 0 {
		<-ctx.Done()
		return nil
	}
	interval := m.opts.Idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := m.Sweep(ctx, now); n > 0 {
				m.opts.Logger.Info("expired idle sessions", logging.Int("count", n))
			}
		}
	}
}

// Close terminates every session and rejects new ones.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := m.Remove(ctx, id, core.TerminateShutdown); err != nil && !errors.Is(err, ErrSessionNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
