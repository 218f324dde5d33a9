package watch

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/flowguide/internal/catalog"
	"github.com/msageha/flowguide/internal/logging"
	"github.com/msageha/flowguide/internal/model"
	"github.com/msageha/flowguide/internal/rules"
	"github.com/msageha/flowguide/internal/selection"
	"github.com/msageha/flowguide/templates"
)

type harness struct {
	store   *selection.Store
	reports chan *rules.Report
	errc    chan error
	cancel  context.CancelFunc
}

func startWatcher(t *testing.T, dir, catalogPath string, logger *logging.Logger) *harness {
	t.Helper()

	loader := catalog.NewLoader(nil)
	cat, err := loader.Load(catalogPath)
	require.NoError(t, err)
	engine, err := rules.NewEngine(cat, model.CacheConfig{}, nil, nil)
	require.NoError(t, err)

	h := &harness{
		store:   selection.NewStore(filepath.Join(dir, "selection.yaml"), nil),
		reports: make(chan *rules.Report, 32),
		errc:    make(chan error, 1),
	}
	render := func(r *rules.Report) error {
		h.reports <- r
		return nil
	}
	w := New(engine, h.store, loader, Options{CatalogPath: catalogPath, Debounce: 10 * time.Millisecond}, render, logger)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.errc <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-h.errc:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return h
}

// waitFor drains reports until one satisfies ok.
func (h *harness) waitFor(t *testing.T, ok func(*rules.Report) bool) *rules.Report {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-h.reports:
			if ok(r) {
				return r
			}
		case err := <-h.errc:
			t.Fatalf("watcher exited: %v", err)
		case <-deadline:
			t.Fatal("timed out waiting for report")
		}
	}
}

func anyReport(*rules.Report) bool { return true }

func hasUnknown(r *rules.Report) bool { return len(r.Credits.Unknown) > 0 }

func toggle(id string) func(selection.State) (selection.State, error) {
	return func(st selection.State) (selection.State, error) {
		return selection.ToggleCourse(st, id), nil
	}
}

func TestWatcher_InitialReport(t *testing.T) {
	h := startWatcher(t, t.TempDir(), "", nil)

	r := h.waitFor(t, anyReport)
	assert.False(t, r.Gate.Valid)
	assert.Empty(t, r.Credits.Unknown)
}

func TestWatcher_ReevaluatesOnSelectionChange(t *testing.T) {
	h := startWatcher(t, t.TempDir(), "", nil)
	h.waitFor(t, anyReport)

	_, err := h.store.Update(context.Background(), toggle("ghost"))
	require.NoError(t, err)

	r := h.waitFor(t, hasUnknown)
	assert.Equal(t, []string{"ghost"}, r.Credits.Unknown)
}

func TestWatcher_ReloadsCatalog(t *testing.T) {
	dir := t.TempDir()
	data, err := fs.ReadFile(templates.FS, "catalog.yaml")
	require.NoError(t, err)
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, data, 0644))

	var logs bytes.Buffer
	h := startWatcher(t, dir, catalogPath, logging.NewWriter(&logs, logging.LogLevelDebug))
	first := h.waitFor(t, anyReport)

	edited := bytes.Replace(data, []byte("name: ECE flows"), []byte("name: ECE flows (revised)"), 1)
	require.NoError(t, os.WriteFile(catalogPath, edited, 0644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(catalogPath, future, future))

	r := h.waitFor(t, func(r *rules.Report) bool { return r.CatalogChecksum != first.CatalogChecksum })
	assert.NotEmpty(t, r.CatalogChecksum)
}

func TestWatcher_KeepsCatalogOnInvalidEdit(t *testing.T) {
	dir := t.TempDir()
	data, err := fs.ReadFile(templates.FS, "catalog.yaml")
	require.NoError(t, err)
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, data, 0644))

	var logs bytes.Buffer
	h := startWatcher(t, dir, catalogPath, logging.NewWriter(&logs, logging.LogLevelDebug))
	first := h.waitFor(t, anyReport)

	require.NoError(t, os.WriteFile(catalogPath, []byte("flows: [\n"), 0644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(catalogPath, future, future))

	_, err = h.store.Update(context.Background(), toggle("ghost"))
	require.NoError(t, err)

	r := h.waitFor(t, hasUnknown)
	assert.Equal(t, first.CatalogChecksum, r.CatalogChecksum)
}

func TestListenMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine, err := rules.NewEngine(mustDefaultCatalog(t), model.CacheConfig{}, nil, rules.NewMetrics(reg))
	require.NoError(t, err)
	engine.Gate(model.Selection{})

	srv, err := ListenMetrics("127.0.0.1:0", reg, nil)
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `flowguide_evaluations_total{mode="gate",outcome="fail"} 1`)

	health, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func mustDefaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.NewLoader(nil).LoadDefault()
	require.NoError(t, err)
	return cat
}
