package live

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/golivestepper/pkg/core"
	"github.com/gabrielmiguelok/golivestepper/pkg/metrics"
	"github.com/gabrielmiguelok/golivestepper/pkg/security"
)

type counter struct {
	core.BaseComponent

	mu         sync.Mutex
	count      int
	mountedID  string
	terminated []core.TerminateReason
}

func (c *counter) Name() string { return "counter" }

func (c *counter) Mount(ctx context.Context, params core.Params, session core.Session) error {
	c.mountedID = session.GetString("id")
	return nil
}

func (c *counter) HandleEvent(ctx context.Context, event string, payload map[string]any) error {
	switch event {
	case "inc":
		c.count++
		return nil
	}
	return core.ErrUnknownEvent
}

func (c *counter) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, core.SessionIDFromContext(ctx)+":"+strconv.Itoa(c.count))
		return err
	})
}

func (c *counter) Terminate(ctx context.Context, reason core.TerminateReason) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminated = append(c.terminated, reason)
	return nil
}

func newCounterManager(opts ManagerOptions) (*Manager, *[]*counter) {
	var created []*counter
	m := NewManager(func(ctx context.Context) (core.Component, error) {
		c := &counter{}
		created = append(created, c)
		return c, nil
	}, opts)
	return m, &created
}

func TestManager_CreateAndDo(t *testing.T) {
	m, created := newCounterManager(ManagerOptions{})
	ctx := context.Background()

	s, err := m.Create(ctx, core.Params{"a": "1"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, s.ID, (*created)[0].mountedID)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	html, err := s.Do(ctx, func(ctx context.Context, c core.Component) error {
		return c.HandleEvent(ctx, "inc", nil)
	})
	require.NoError(t, err)
	assert.Equal(t, s.ID+":1", html)

	// The HTML is returned with the error.
	html, err = s.Do(ctx, func(ctx context.Context, c core.Component) error {
		return c.HandleEvent(ctx, "nope", nil)
	})
	assert.ErrorIs(t, err, core.ErrUnknownEvent)
	assert.Equal(t, s.ID+":1", html)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_CSRFToken(t *testing.T) {
	csrf := security.NewCSRF([]byte("secret"), time.Hour)
	m, _ := newCounterManager(ManagerOptions{CSRF: csrf})

	s, err := m.Create(context.Background(), nil)
	require.NoError(t, err)

	var token string
	_, err = s.Do(context.Background(), func(ctx context.Context, c core.Component) error {
		token = core.CSRFTokenFromContext(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, csrf.Validate(token, s.ID))
}

func TestManager_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	m := NewManager(func(ctx context.Context) (core.Component, error) { return nil, boom }, ManagerOptions{})
	_, err := m.Create(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.Len())
}

func TestManager_MaxSessions(t *testing.T) {
	m, _ := newCounterManager(ManagerOptions{MaxSessions: 1})
	_, err := m.Create(context.Background(), nil)
	require.NoError(t, err)
	_, err = m.Create(context.Background(), nil)
	assert.ErrorIs(t, err, ErrTooManySessions)
}

func TestManager_MaxSessionsConcurrent(t *testing.T) {
	const n = 5
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})
	m := NewManager(func(ctx context.Context) (core.Component, error) {
		started.Done()
		<-release
		return &counter{}, nil
	}, ManagerOptions{MaxSessions: 1})

	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := m.Create(context.Background(), nil)
			errs <- err
		}()
	}
	// Every caller is past the early capacity check before any inserts.
	started.Wait()
	close(release)

	created := 0
	for i := 0; i < n; i++ {
		if err := <-errs; err == nil {
			created++
		} else {
			assert.ErrorIs(t, err, ErrTooManySessions)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, m.Len())
}

func TestManager_OnRemove(t *testing.T) {
	var removed []string
	m, _ := newCounterManager(ManagerOptions{OnRemove: func(id string) { removed = append(removed, id) }})
	s, err := m.Create(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, m.Remove(context.Background(), s.ID, core.TerminateNormal))
	assert.Equal(t, []string{s.ID}, removed)
}

func TestManager_Remove(t *testing.T) {
	met := metrics.NewMetrics("test")
	m, created := newCounterManager(ManagerOptions{Metrics: met})
	s, err := m.Create(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(met.SessionsActive))

	require.NoError(t, m.Remove(context.Background(), s.ID, core.TerminateNormal))
	assert.Equal(t, []core.TerminateReason{core.TerminateNormal}, (*created)[0].terminated)
	assert.Equal(t, 0.0, testutil.ToFloat64(met.SessionsActive))
	assert.ErrorIs(t, m.Remove(context.Background(), s.ID, core.TerminateNormal), ErrSessionNotFound)
}

func TestManager_Sweep(t *testing.T) {
	met := metrics.NewMetrics("test")
	m, created := newCounterManager(ManagerOptions{Idle: time.Minute, Metrics: met})
	ctx := context.Background()

	idle, err := m.Create(ctx, nil)
	require.NoError(t, err)
	connected, err := m.Create(ctx, nil)
	require.NoError(t, err)
	connected.conns.Add(1)

	assert.Equal(t, 0, m.Sweep(ctx, time.Now()))
	assert.Equal(t, 1, m.Sweep(ctx, time.Now().Add(2*time.Minute)))

	_, err = m.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(connected.ID)
	assert.NoError(t, err)
	assert.Equal(t, []core.TerminateReason{core.TerminateTimeout}, (*created)[0].terminated)
	assert.Equal(t, 1.0, testutil.ToFloat64(met.SessionsExpired))
}

func TestManager_SweepDisabled(t *testing.T) {
	m, _ := newCounterManager(ManagerOptions{})
	_, err := m.Create(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Sweep(context.Background(), time.Now().Add(24*time.Hour)))
}

func TestManager_Close(t *testing.T) {
	m, created := newCounterManager(ManagerOptions{})
	ctx := context.Background()
	_, err := m.Create(ctx, nil)
	require.NoError(t, err)
	_, err = m.Create(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, m.Close(ctx))
	assert.Equal(t, 0, m.Len())
	for _, c := range *created {
		assert.Equal(t, []core.TerminateReason{core.TerminateShutdown}, c.terminated)
	}

	_, err = m.Create(ctx, nil)
	assert.ErrorIs(t, err, ErrManagerClosed)
}

func TestManager_Run(t *testing.T) {
	m, _ := newCounterManager(ManagerOptions{Idle: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
