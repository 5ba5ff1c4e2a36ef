package reload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielmiguelok/golivestepper/internal/examples"
	"github.com/gabrielmiguelok/golivestepper/pkg/wizard"
)

const oneStep = `title: Renamed
steps:
  - label: Only
    fields:
      - name: name
        rules:
          - required: true
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wizard.yaml")

	writeFile(t, path, string(examples.WealthYAML()))
	def, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Millionaire Survey", def.Title)

	writeFile(t, path, "title: Empty\nsteps: []\n")
	_, err = Load(path)
	var cfgErr *wizard.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestWatcher_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wizard.yaml")
	writeFile(t, path, string(examples.WealthYAML()))

	def, err := Load(path)
	require.NoError(t, err)
	holder := NewHolder(def)

	w, err := NewWatcher(path, holder, nil)
	require.NoError(t, err)
	reloaded := make(chan *wizard.Definition, 4)
	w.OnReload = func(def *wizard.Definition) { reloaded <- def }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Invalid content keeps the previous definition.
	writeFile(t, path, "title: [broken")
	time.Sleep(3 * debounceInterval)
	assert.Equal(t, "Millionaire Survey", holder.Load().Title)

	writeFile(t, path, oneStep)
	select {
	case got := <-reloaded:
		assert.Equal(t, "Renamed", got.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("definition was not reloaded")
	}
	assert.Equal(t, "Renamed", holder.Load().Title)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wizard.yaml")
	writeFile(t, path, string(examples.WealthYAML()))

	def, err := Load(path)
	require.NoError(t, err)
	holder := NewHolder(def)

	w, err := NewWatcher(path, holder, nil)
	require.NoError(t, err)
	reloaded := make(chan struct{}, 1)
	w.OnReload = func(*wizard.Definition) { reloaded <- struct{}{} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeFile(t, filepath.Join(dir, "other.yaml"), oneStep)
	select {
	case <-reloaded:
		t.Fatal("unrelated file triggered a reload")
	case <-time.After(5 * debounceInterval):
	}

	cancel()
	assert.NoError(t, <-done)
}
