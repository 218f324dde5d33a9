// Package watch re-evaluates the stored selection whenever it, or the
// catalog it is evaluated against, changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/msageha/flowguide/internal/catalog"
	"github.com/msageha/flowguide/internal/logging"
	"github.com/msageha/flowguide/internal/rules"
	"github.com/msageha/flowguide/internal/selection"
)

// RenderFunc receives every fresh report. An error stops the watcher.
type RenderFunc func(*rules.Report) error

type Options struct {
	// CatalogPath is reloaded on change. Empty means the embedded dataset,
	// which is never watched.
	CatalogPath string
	Debounce    time.Duration
}

type Watcher struct {
	engine *rules.Engine
	store  *selection.Store
	loader *catalog.Loader
	opts   Options
	render RenderFunc
	logger *logging.Logger

	selectionPath string
	catalogPath   string
}

func New(engine *rules.Engine, store *selection.Store, loader *catalog.Loader, opts Options, render RenderFunc, logger *logging.Logger) *Watcher {
	w := &Watcher{
		engine:        engine,
		store:         store,
		loader:        loader,
		opts:          opts,
		render:        render,
		logger:        logger.With("watch"),
		selectionPath: filepath.Clean(store.Path()),
	}
	if opts.CatalogPath != "" {
		w.catalogPath = filepath.Clean(opts.CatalogPath)
	}
	return w
}

// Run renders the current report, then one report per debounced batch of
// changes, until ctx is done. Directories are watched rather than files so
// that atomic renames are observed.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	dirs := map[string]bool{filepath.Dir(w.selectionPath): true}
	if w.catalogPath != "" {
		dirs[filepath.Dir(w.catalogPath)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	if err := w.evaluate(ctx); err != nil {
		return err
	}
	w.logger.Infof("watching %s", w.selectionPath)

	var (
		fire         <-chan time.Time
		catalogDirty bool
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			switch filepath.Clean(event.Name) {
			case w.selectionPath:
			case w.catalogPath:
				catalogDirty = true
			default:
				continue
			}
			w.logger.Debugf("fsnotify event=%s file=%s", event.Op, event.Name)
			fire = time.After(w.opts.Debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Errorf("fsnotify error=%v", err)
		case <-fire:
			fire = nil
			if catalogDirty {
				catalogDirty = false
				w.reloadCatalog()
			}
			if err := w.evaluate(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// reloadCatalog keeps the previous snapshot when the edited file is invalid.
func (w *Watcher) reloadCatalog() {
	cat, changed, err := w.loader.ReloadFile(w.catalogPath)
	if err != nil {
		w.logger.Warnf("catalog reload failed, keeping previous: %v", err)
		return
	}
	if !changed {
		return
	}
	if err := w.engine.SetCatalog(cat); err != nil {
		w.logger.Warnf("catalog swap failed: %v", err)
	}
}

func (w *Watcher) evaluate(ctx context.Context) error {
	st, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load selection: %w", err)
	}
	report, err := w.engine.Status(ctx, st.Selection)
	if err != nil {
		return err
	}
	return w.render(report)
}
