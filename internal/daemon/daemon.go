// Package daemon runs the watch-and-register loop.
//
// One goroutine owns the dedup store and receives every debounced path. It
// classifies the path, gates the candidate through the store and hands
// accepted candidates to the registrar on their own goroutine. Results come
// back to the loop, which is the only caller of Finalize.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/nautwatch/internal/dedup"
	"github.com/fyrsmithlabs/nautwatch/internal/logging"
	"github.com/fyrsmithlabs/nautwatch/internal/metrics"
	"github.com/fyrsmithlabs/nautwatch/internal/notify"
	"github.com/fyrsmithlabs/nautwatch/internal/pathmap"
	"github.com/fyrsmithlabs/nautwatch/internal/project"
	"github.com/fyrsmithlabs/nautwatch/internal/registrar"
	"github.com/fyrsmithlabs/nautwatch/internal/watcher"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	publishTimeout         = 2 * time.Second
)

// ErrNotRunning is returned by Status when the loop is not running.
var ErrNotRunning = errors.New("daemon is not running")

// Source produces raw filesystem event paths.
type Source interface {
	Start(ctx context.Context) error
	Events() <-chan string
	Errors() <-chan error
	Existing() ([]string, error)
	Close() error
}

// Registrar registers one accepted candidate.
type Registrar interface {
	Register(ctx context.Context, cand project.Candidate) registrar.Result
}

// Options configures a Daemon.
type Options struct {
	Root      pathmap.Root
	Source    Source
	Registrar Registrar
	Notifier  notify.Notifier // nil disables publishing

	Debounce        time.Duration
	IgnoreInitial   bool
	ShutdownTimeout time.Duration

	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// Status is a point-in-time view of the loop's state.
type Status struct {
	WatchRoot     string `json:"watch_root"`
	HostRoot      string `json:"host_root"`
	PendingTimers int    `json:"pending_timers"`
	dedup.Snapshot
}

// Daemon is the event loop. Create with New and run once with Run.
type Daemon struct {
	root       pathmap.Root
	source     Source
	registrar  Registrar
	notifier   notify.Notifier
	classifier *project.Classifier
	store      *dedup.Store
	debouncer  *watcher.Debouncer

	ignoreInitial   bool
	shutdownTimeout time.Duration

	logger  *logging.Logger
	metrics *metrics.Metrics

	fired     chan string
	results   chan registrar.Result
	statusReq chan chan Status
	done      chan struct{} // closed when shutdown starts
	stopped   chan struct{} // closed when Run returns

	inFlight int
}

// New validates opts and creates a Daemon.
func New(opts Options) (*Daemon, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if opts.Registrar == nil {
		return nil, fmt.Errorf("registrar is required")
	}
	if opts.Debounce <= 0 {
		return nil, fmt.Errorf("debounce must be positive, got %s", opts.Debounce)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	d := &Daemon{
		root:            opts.Root,
		source:          opts.Source,
		registrar:       opts.Registrar,
		notifier:        opts.Notifier,
		classifier:      project.NewClassifier(opts.Root),
		store:           dedup.NewStore(),
		ignoreInitial:   opts.IgnoreInitial,
		shutdownTimeout: opts.ShutdownTimeout,
		logger:          opts.Logger.Named("daemon"),
		metrics:         opts.Metrics,
		fired:           make(chan string, 64),
		results:         make(chan registrar.Result, 16),
		statusReq:       make(chan chan Status),
		done:            make(chan struct{}),
		stopped:         make(chan struct{}),
	}
	d.debouncer = watcher.NewDebouncer(opts.Debounce, d.onFire)
	return d, nil
}

// onFire runs on a timer goroutine and hands the path to the loop.
func (d *Daemon) onFire(path string) {
	select {
	case d.fired <- path:
	case <-d.done:
	}
}

// Run starts the source and processes events until ctx is canceled. On
// cancellation it closes the source, stops pending timers and waits up to
// the shutdown timeout for in-flight registrations, whose API calls are
// aborted by the same cancellation.
func (d *Daemon) Run(ctx context.Context) error {
	defer close(d.stopped)

	if err := d.source.Start(ctx); err != nil {
		close(d.done)
		_ = d.source.Close()
		return fmt.Errorf("starting watcher: %w", err)
	}

	if !d.ignoreInitial {
		d.scanExisting(ctx)
	}

	events := d.source.Events()
	errs := d.source.Errors()
	for {
		select {
		case p, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			d.trigger(ctx, p)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			d.logger.Warn(ctx, "watcher error", zap.Error(err))
		case p := <-d.fired:
			d.handleFired(ctx, p)
		case res := <-d.results:
			d.finish(ctx, res)
		case reply := <-d.statusReq:
			reply <- d.status()
		case <-ctx.Done():
			return d.shutdown(ctx)
		}
	}
}

// Status asks the loop for its current state.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	select {
	case d.statusReq <- reply:
	case <-d.stopped:
		return Status{}, ErrNotRunning
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

// scanExisting feeds directories present at startup through the debouncer,
// as if each had just been created.
func (d *Daemon) scanExisting(ctx context.Context) {
	dirs, err := d.source.Existing()
	if err != nil {
		d.logger.Warn(ctx, "initial scan failed", zap.Error(err))
		return
	}
	for _, dir := range dirs {
		d.trigger(ctx, dir)
	}
	d.logger.Info(ctx, "initial scan queued", zap.Int("directories", len(dirs)))
}

func (d *Daemon) trigger(ctx context.Context, p string) {
	replaced := d.debouncer.Trigger(p)
	d.logger.Trace(logging.WithEventPath(ctx, p), "event debounced", zap.Bool("replaced", replaced))
	d.updatePending()
}

func (d *Daemon) handleFired(ctx context.Context, p string) {
	ctx = logging.WithEventPath(ctx, p)
	d.updatePending()
	if d.metrics != nil {
		d.metrics.Debounced.Inc()
	}

	cand, rule, ok := d.classifier.Classify(p)
	if d.metrics != nil {
		d.metrics.Candidates.WithLabelValues(string(rule)).Inc()
	}
	if !ok {
		d.logger.Trace(ctx, "not a project signal")
		return
	}

	ctx = logging.WithProjectDir(ctx, cand.ContainerPath)
	if !d.store.TryAcquire(cand.ContainerPath) {
		if d.metrics != nil {
			d.metrics.DedupRejected.Inc()
		}
		d.logger.Debug(ctx, "already in progress or registered",
			zap.String("state", d.store.State(cand.ContainerPath).String()))
		return
	}

	d.logger.Info(ctx, "processing directory",
		zap.String("project", cand.Name),
		zap.String("rule", string(rule)),
		zap.String("host_path", cand.HostPath))

	d.inFlight++
	if d.metrics != nil {
		d.metrics.InFlight.Inc()
	}
	go func() {
		res := d.registrar.Register(ctx, cand)
		select {
		case d.results <- res:
		case <-d.stopped:
		}
	}()
}

// finish records a registration result. Only the loop calls it.
func (d *Daemon) finish(ctx context.Context, res registrar.Result) {
	d.inFlight--
	if d.metrics != nil {
		d.metrics.InFlight.Dec()
	}
	d.store.Finalize(res.Candidate.ContainerPath, res.Outcome)

	ev := notify.Event{
		Name:          res.Candidate.Name,
		ContainerPath: res.Candidate.ContainerPath,
		HostPath:      res.Candidate.HostPath,
		Outcome:       res.Outcome.String(),
		Reason:        string(res.Reason),
		ProjectID:     res.ProjectID,
		Timestamp:     time.Now().UTC(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := d.notifier.Publish(pubCtx, ev); err != nil {
		if d.metrics != nil {
			d.metrics.NotifyFailures.Inc()
		}
		d.logger.Warn(ctx, "failed to publish registration event", zap.Error(err))
	}
}

func (d *Daemon) status() Status {
	return Status{
		WatchRoot:     d.root.ContainerPath,
		HostRoot:      d.root.HostPath,
		PendingTimers: d.debouncer.Pending(),
		Snapshot:      d.store.Snapshot(),
	}
}

func (d *Daemon) updatePending() {
	if d.metrics != nil {
		d.metrics.PendingTimers.Set(float64(d.debouncer.Pending()))
	}
}

func (d *Daemon) shutdown(ctx context.Context) error {
	d.logger.Info(ctx, "shutting down watcher")
	close(d.done)
	d.debouncer.Stop()
	d.updatePending()
	if err := d.source.Close(); err != nil {
		d.logger.Warn(ctx, "closing watcher", zap.Error(err))
	}

	if d.inFlight > 0 {
		d.logger.Info(ctx, "waiting for in-flight registrations",
			zap.Int("in_flight", d.inFlight),
			zap.Duration("timeout", d.shutdownTimeout))
	}

	deadline := time.NewTimer(d.shutdownTimeout)
	defer deadline.Stop()
	for d.inFlight > 0 {
		select {
		case res := <-d.results:
			d.finish(ctx, res)
		case <-deadline.C:
			d.logger.Warn(ctx, "shutdown timeout with registrations in flight", zap.Int("in_flight", d.inFlight))
			return nil
		}
	}

	d.logger.Info(ctx, "watcher stopped")
	return nil
}
