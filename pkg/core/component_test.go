package core

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderString(t *testing.T) {
	r := RendererFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>"+SessionIDFromContext(ctx)+"</p>")
		return err
	})

	out, err := RenderString(WithSessionID(context.Background(), "abc"), r)
	require.NoError(t, err)
	assert.Equal(t, "<p>abc</p>", out)

	boom := errors.New("boom")
	_, err = RenderString(context.Background(), RendererFunc(func(context.Context, io.Writer) error { return boom }))
	assert.ErrorIs(t, err, boom)
}

func TestParams(t *testing.T) {
	p := Params{"step": "2"}
	assert.Equal(t, "2", p.Get("step"))

	ctx := WithParams(context.Background(), p)
	assert.Equal(t, p, ParamsFromContext(ctx))
	assert.Nil(t, ParamsFromContext(context.Background()))
}

func TestCSRFToken(t *testing.T) {
	assert.Empty(t, CSRFTokenFromContext(context.Background()))
	ctx := WithCSRFToken(context.Background(), "tok")
	assert.Equal(t, "tok", CSRFTokenFromContext(ctx))
}

func TestSession(t *testing.T) {
	s := Session{"user": "ann", "n": 1}
	assert.Equal(t, "ann", s.GetString("user"))
	assert.Equal(t, "", s.GetString("n"))
}

func TestTerminateReason(t *testing.T) {
	assert.Equal(t, "normal", TerminateNormal.String())
	assert.Equal(t, "shutdown", TerminateShutdown.String())
	assert.Equal(t, "error", TerminateError.String())
	assert.Equal(t, "timeout", TerminateTimeout.String())
	assert.Equal(t, "unknown", TerminateReason(42).String())
}
