package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/nautwatch/internal/ignore"
	"github.com/fyrsmithlabs/nautwatch/internal/logging"
	"github.com/fyrsmithlabs/nautwatch/internal/metrics"
	"github.com/fyrsmithlabs/nautwatch/internal/pathmap"
	"github.com/fyrsmithlabs/nautwatch/internal/project"
)

const (
	eventBuffer = 256
	errorBuffer = 16
)

// ErrClosed is returned when starting a closed watcher.
var ErrClosed = errors.New("watcher closed")

// Options configures a Watcher.
type Options struct {
	Root    pathmap.Root
	Ignore  *ignore.Matcher // nil uses ignore.DefaultPatterns
	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// Watcher forwards create and write events under the watch root.
type Watcher struct {
	fs      *fsnotify.Watcher
	root    pathmap.Root
	ignore  *ignore.Matcher
	logger  *logging.Logger
	metrics *metrics.Metrics

	events chan string
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	watched map[string]struct{}
	closed  bool
}

// New creates a watcher. Nothing is watched until Start.
func New(opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	matcher := opts.Ignore
	if matcher == nil {
		matcher = ignore.NewMatcher(opts.Root.ContainerPath)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Watcher{
		fs:      fsw,
		root:    opts.Root,
		ignore:  matcher,
		logger:  logger.Named("watcher"),
		metrics: opts.Metrics,
		events:  make(chan string, eventBuffer),
		errors:  make(chan error, errorBuffer),
		done:    make(chan struct{}),
		watched: make(map[string]struct{}),
	}, nil
}

// Events delivers paths of created or written entries. It is closed after
// Close.
func (w *Watcher) Events() <-chan string { return w.events }

// Errors delivers errors reported by the notification layer.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Start watches the root and every existing project and docs directory,
// then begins forwarding events. Failing to watch the root is fatal;
// failures below it are logged.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err := w.add(w.root.ContainerPath); err != nil {
		return fmt.Errorf("watching %s: %w", w.root.ContainerPath, err)
	}

	entries, err := os.ReadDir(w.root.ContainerPath)
	if err != nil {
		return fmt.Errorf("listing %s: %w", w.root.ContainerPath, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(w.root.ContainerPath, e.Name())
		w.watchProject(ctx, dir, false)
	}

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info(ctx, "watching",
		zap.String("root", w.root.ContainerPath),
		zap.Int("directories", len(w.Watched())))
	return nil
}

// Existing lists the project directories currently under the root, for the
// initial scan. Ignored entries are excluded.
func (w *Watcher) Existing() ([]string, error) {
	entries, err := os.ReadDir(w.root.ContainerPath)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", w.root.ContainerPath, err)
	}
	var dirs []string
	for _, e := range entries {
		dir := filepath.Join(w.root.ContainerPath, e.Name())
		if e.IsDir() && !w.ignore.Ignored(dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

// Watched returns the watched directories, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.watched))
	for p := range w.watched {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Close stops the notification handle and waits for the forwarding
// goroutine. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	close(w.events)
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if w.metrics != nil {
				w.metrics.WatchErrors.Inc()
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn(ctx, "watch error dropped", zap.Error(err))
			}
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if w.metrics != nil {
		w.metrics.FSEvents.WithLabelValues(opLabel(ev.Op)).Inc()
	}
	if w.ignore.Ignored(ev.Name) {
		return
	}

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.forget(ev.Name)
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}

	if ev.Has(fsnotify.Create) {
		depth, err := w.root.Depth(ev.Name)
		if err == nil && isDir(ev.Name) {
			switch {
			case depth == 1:
				w.watchProject(ctx, ev.Name, true)
			case depth == 2 && filepath.Base(ev.Name) == project.DocsDir:
				w.watchDocs(ctx, ev.Name, true)
			}
		}
	}

	w.emit(ev.Name)
}

// watchProject adds a project directory and its docs directory, if any.
// announce emits concept files already present in docs.
func (w *Watcher) watchProject(ctx context.Context, dir string, announce bool) {
	if w.ignore.Ignored(dir) {
		return
	}
	if err := w.add(dir); err != nil {
		w.logger.Warn(ctx, "cannot watch project directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	docs := filepath.Join(dir, project.DocsDir)
	if isDir(docs) {
		w.watchDocs(ctx, docs, announce)
	}
}

// watchDocs adds a docs directory. With announce set it also emits concept
// files created before the watch was in place.
func (w *Watcher) watchDocs(ctx context.Context, docs string, announce bool) {
	if err := w.add(docs); err != nil {
		w.logger.Warn(ctx, "cannot watch docs directory", zap.String("dir", docs), zap.Error(err))
		return
	}
	if !announce {
		return
	}
	entries, err := os.ReadDir(docs)
	if err != nil {
		return
	}
	for _, e := range entries {
		p := filepath.Join(docs, e.Name())
		if !e.IsDir() && project.IsConceptFile(p) && !w.ignore.Ignored(p) {
			w.emit(p)
		}
	}
}

func (w *Watcher) add(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watched[dir]; ok {
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.watched[dir] = struct{}{}
	w.updateGauge()
	return nil
}

// forget drops bookkeeping for a removed directory and anything below it.
// fsnotify removes the underlying watches itself.
func (w *Watcher) forget(p string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prefix := p + string(filepath.Separator)
	for dir := range w.watched {
		if dir == p || strings.HasPrefix(dir, prefix) {
			delete(w.watched, dir)
		}
	}
	w.updateGauge()
}

// updateGauge must be called with mu held.
func (w *Watcher) updateGauge() {
	if w.metrics != nil {
		w.metrics.WatchedDirs.Set(float64(len(w.watched)))
	}
}

func (w *Watcher) emit(p string) {
	select {
	case w.events <- p:
	case <-w.done:
	}
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func opLabel(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "chmod"
	}
}
