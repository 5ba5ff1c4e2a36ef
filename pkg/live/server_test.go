package live_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/golivestepper/internal/examples"
	"github.com/gabrielmiguelok/golivestepper/pkg/core"
	"github.com/gabrielmiguelok/golivestepper/pkg/forms"
	"github.com/gabrielmiguelok/golivestepper/pkg/live"
	"github.com/gabrielmiguelok/golivestepper/pkg/stepper"
	"github.com/gabrielmiguelok/golivestepper/pkg/wizard"
)

type submissions struct {
	mu     sync.Mutex
	values []forms.Values
}

func (s *submissions) submit(ctx context.Context, values forms.Values, h *wizard.Helpers) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, values)
	return nil
}

func (s *submissions) all() []forms.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]forms.Values(nil), s.values...)
}

func newTestServer(t *testing.T, cfg live.Config, onSubmit wizard.SubmitFunc) (*live.Server, *httptest.Server) {
	t.Helper()
	def, err := examples.Wealth()
	require.NoError(t, err)

	srv := live.NewServer(func(ctx context.Context) (core.Component, error) {
		s, err := stepper.New(def, onSubmit)
		if err != nil {
			return nil, err
		}
		return s, nil
	}, cfg)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close(context.Background())
	})
	return srv, ts
}

var sessionAttr = regexp.MustCompile(`data-live-session="([^"]+)"`)

func openPage(t *testing.T, ts *httptest.Server) (string, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	m := sessionAttr.FindStringSubmatch(string(body))
	require.Len(t, m, 2)
	return m[1], string(body)
}

var csrfAttr = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

func tokenIn(t *testing.T, body string) string {
	t.Helper()
	m := csrfAttr.FindStringSubmatch(body)
	require.Len(t, m, 2)
	return m[1]
}

func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postEvent(t *testing.T, ts *httptest.Server, session string, form url.Values) *http.Response {
	t.Helper()
	resp, err := noRedirect().PostForm(ts.URL+"/event?session="+url.QueryEscape(session), form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPage(t *testing.T) {
	srv, ts := newTestServer(t, live.DefaultConfig(), nil)

	id, body := openPage(t, ts)
	assert.Contains(t, body, "<title>golivestepper</title>")
	assert.Contains(t, body, `<script src="/_live/stepper.js" defer></script>`)
	assert.Contains(t, body, `<span class="step-label">Basic Info</span>`)
	assert.Equal(t, 1, srv.Sessions().Len())

	// Reloading with the session keeps it.
	resp, err := http.Get(ts.URL + "/?session=" + id)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 1, srv.Sessions().Len())
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestFormPostFlow(t *testing.T) {
	subs := &submissions{}
	_, ts := newTestServer(t, live.DefaultConfig(), subs.submit)
	id, body := openPage(t, ts)
	token := tokenIn(t, body)

	resp := postEvent(t, ts, id, url.Values{"_event": {"next"}, "_csrf": {token}, "firstName": {"Ann"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?session="+id, resp.Header.Get("Location"))

	page, err := http.Get(ts.URL + resp.Header.Get("Location"))
	require.NoError(t, err)
	reloaded, _ := io.ReadAll(page.Body)
	page.Body.Close()
	assert.Contains(t, string(reloaded), "Last name is required")
	assert.Contains(t, string(reloaded), `value="Ann"`)
	assert.Equal(t, token, tokenIn(t, string(reloaded)))

	steps := []url.Values{
		{"_event": {"next"}, "firstName": {"Ann"}, "lastName": {"Lee"}},
		{"_event": {"next"}, "millionaire": {"true"}, "money": {"2000000"}},
		{"_event": {"next"}, "description": {"Hi"}},
	}
	for _, form := range steps {
		form.Set("_csrf", token)
		resp := postEvent(t, ts, id, form)
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	}

	got := subs.all()
	require.Len(t, got, 1)
	assert.Equal(t, forms.Values{
		"firstName":   "Ann",
		"lastName":    "Lee",
		"millionaire": true,
		"money":       2000000.0,
		"description": "Hi",
	}, got[0])
}

func TestFormPost_Fragment(t *testing.T) {
	_, ts := newTestServer(t, live.DefaultConfig(), nil)
	id, page := openPage(t, ts)
	form := url.Values{"_csrf": {tokenIn(t, page)}, "firstName": {"Ann"}, "lastName": {"Lee"}}

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/event?session="+id, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Live-Fragment", "1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), `<div class="stepper"`))
	assert.Contains(t, string(body), `<li class="step active" aria-current="step"><span class="step-index">2</span>`)
}

func TestFormPost_Errors(t *testing.T) {
	cfg := live.DefaultConfig()
	cfg.EventsPerSecond = 1
	cfg.EventBurst = 1
	_, ts := newTestServer(t, cfg, nil)
	id, body := openPage(t, ts)
	token := tokenIn(t, body)

	resp := postEvent(t, ts, "missing", url.Values{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postEvent(t, ts, id, url.Values{"_event": {"explode"}, "_csrf": {token}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postEvent(t, ts, id, url.Values{"_event": {"back"}, "_csrf": {token}})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestFormPost_CSRF(t *testing.T) {
	_, ts := newTestServer(t, live.DefaultConfig(), nil)
	id, body := openPage(t, ts)
	otherID, otherBody := openPage(t, ts)
	require.NotEqual(t, id, otherID)

	resp := postEvent(t, ts, id, url.Values{"firstName": {"Ann"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A token is only good for the session it was issued to.
	resp = postEvent(t, ts, id, url.Values{"_csrf": {tokenIn(t, otherBody)}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = postEvent(t, ts, id, url.Values{"_csrf": {tokenIn(t, body)}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestMaxSessions(t *testing.T) {
	cfg := live.DefaultConfig()
	cfg.MaxSessions = 1
	_, ts := newTestServer(t, cfg, nil)
	openPage(t, ts)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, health.StatusCode)
}

func TestOperationalEndpoints(t *testing.T) {
	_, ts := newTestServer(t, live.DefaultConfig(), nil)
	openPage(t, ts)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "stepper_sessions_total 1")

	resp, err = http.Get(ts.URL + "/_live/stepper.js")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "golivestepper.json")
}
