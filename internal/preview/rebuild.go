package preview

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
	"git.home.luguber.info/inful/guidebuilder/internal/metrics"
)

// Rebuild triggers, used as the metrics label.
const (
	triggerInitial  = "initial"
	triggerWatch    = "watch"
	triggerInterval = "interval"
)

// buildStatus tracks the current build state for error display.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool // true if at least one successful build exists
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

func (bs *buildStatus) getStatus() (err error, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.hasGoodBuild
}

// debouncer delivers one signal on C after delay has passed without a
// further Trigger call.
type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	out   chan struct{}
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, out: make(chan struct{}, 1)}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.out <- struct{}{}:
		default:
		}
	})
}

func (d *debouncer) C() <-chan struct{} { return d.out }

// Stop cancels a pending signal.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// rebuilder runs builds one at a time. Requests that arrive while a
// build runs collapse into a single follow-up build.
type rebuilder struct {
	build    func(ctx context.Context) error
	status   *buildStatus
	recorder metrics.Recorder
	reqs     chan string
	done     chan struct{}
}

func newRebuilder(build func(ctx context.Context) error, status *buildStatus, rec metrics.Recorder) *rebuilder {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &rebuilder{
		build:    build,
		status:   status,
		recorder: rec,
		reqs:     make(chan string, 1),
		done:     make(chan struct{}),
	}
}

// Request queues a rebuild unless one is already pending.
func (r *rebuilder) Request(trigger string) {
	select {
	case r.reqs <- trigger:
	default:
	}
}

// Run processes requests until ctx is canceled.
func (r *rebuilder) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-r.reqs:
			r.rebuild(ctx, trigger)
		}
	}
}

// Done is closed when Run has returned.
func (r *rebuilder) Done() <-chan struct{} { return r.done }

func (r *rebuilder) rebuild(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	slog.Info("Rebuilding site", slog.String("trigger", trigger))
	r.recorder.IncRebuild(trigger)
	if err := r.build(ctx); err != nil {
		slog.Warn("Rebuild failed", logfields.Error(err))
		r.status.setError(err)
		return
	}
	r.status.setSuccess()
}
