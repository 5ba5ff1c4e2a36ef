package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdown_Order(t *testing.T) {
	h := NewHandler(time.Second, nil)
	var order []string
	h.RegisterFunc("sessions", PrioritySessions, func(ctx context.Context) error {
		order = append(order, "sessions")
		return nil
	})
	h.RegisterFunc("http", PriorityHTTP, func(ctx context.Context) error {
		order = append(order, "http")
		return nil
	})
	h.RegisterFunc("last", PriorityLast, func(ctx context.Context) error {
		order = append(order, "last")
		return nil
	})

	require.NoError(t, h.Shutdown())
	assert.Equal(t, []string{"http", "sessions", "last"}, order)
	assert.ErrorIs(t, h.Shutdown(), ErrAlreadyClosed)

	select {
	case <-h.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestShutdown_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	h := NewHandler(time.Second, nil)
	h.RegisterFunc("a", 1, func(ctx context.Context) error { return boom })
	h.RegisterFunc("b", 2, func(ctx context.Context) error { return nil })

	err := h.Shutdown()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "a: boom")
}

func TestShutdown_Timeout(t *testing.T) {
	h := NewHandler(10*time.Millisecond, nil)
	ran := false
	h.RegisterFunc("slow", 1, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	h.RegisterFunc("after", 2, func(ctx context.Context) error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, h.Shutdown(), ErrShutdownTimeout)
	assert.False(t, ran)
}

func TestWait(t *testing.T) {
	h := NewHandler(time.Second, nil)
	called := make(chan struct{})
	h.RegisterFunc("hook", 1, func(ctx context.Context) error {
		close(called)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()

	cancel()
	require.NoError(t, <-errCh)
	<-called
}
