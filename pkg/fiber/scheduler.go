package fiber

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/patch"
	"github.com/vango-dev/fibre/pkg/transition"
	"github.com/vango-dev/fibre/pkg/vdom"
)

// Default tracer name for scheduler spans.
const defaultTracerName = "github.com/vango-dev/fibre/pkg/fiber"

// Scheduler runs renders and commits for the component trees mounted in one
// document. All DOM access happens on its loop goroutine.
type Scheduler struct {
	doc         *dom.Document
	patcher     *patch.Patcher
	transitions *transition.Interceptor
	logger      *slog.Logger
	metrics     *Metrics
	tracer      trace.Tracer

	ctx  context.Context
	stop context.CancelFunc

	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}

	// Loop-owned state.
	nextID      uint64
	roots       []*Instance
	pending     map[*fiber]struct{} // Root fibers not yet committed
	transActive int
}

// Option configures a Scheduler.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	frames    transition.Frames
	durations map[string]time.Duration
	metrics   *Metrics
	tracer    trace.Tracer
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFrames sets the frame driver of transitions. Without one, transition
// classes are never applied and removals take effect immediately.
func WithFrames(f transition.Frames) Option {
	return func(c *config) {
		c.frames = f
	}
}

// WithDurations sets fallback durations per transition name, used when no
// transitionend event arrives.
func WithDurations(d map[string]time.Duration) Option {
	return func(c *config) {
		c.durations = d
	}
}

// WithMetrics records scheduler metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithTracer sets the tracer for render and commit spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewScheduler creates a scheduler for doc and starts its loop.
func NewScheduler(doc *dom.Document, opts ...Option) *Scheduler {
	cfg := config{
		logger: slog.Default(),
		tracer: otel.Tracer(defaultTracerName),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		doc:     doc,
		logger:  cfg.logger,
		metrics: cfg.metrics,
		tracer:  cfg.tracer,
		ctx:     ctx,
		stop:    cancel,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		pending: make(map[*fiber]struct{}),
	}

	topts := []transition.Option{
		transition.WithPost(func(fn func()) { s.Dispatch(fn) }),
		transition.WithDurations(cfg.durations),
		transition.WithLogger(cfg.logger),
	}
	if cfg.frames != nil {
		topts = append(topts, transition.WithFrames(cfg.frames))
	}
	s.transitions = transition.New(doc, topts...)
	s.patcher = patch.New(doc, patch.WithOps(s.transitions), patch.WithLogger(cfg.logger))

	go s.run()
	return s
}

// Document returns the document the scheduler renders into.
func (s *Scheduler) Document() *dom.Document {
	return s.doc
}

// Transitions returns the interceptor animating inserts and removals.
func (s *Scheduler) Transitions() *transition.Interceptor {
	return s.transitions
}

// Dispatch queues fn to run on the loop. It never blocks and returns false
// once the scheduler is closed. Safe from any goroutine, including the loop.
func (s *Scheduler) Dispatch(fn func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to return. It must not be called
// from the loop.
func (s *Scheduler) Do(fn func()) error {
	done := make(chan struct{})
	if !s.Dispatch(func() {
		defer close(done)
		fn()
	}) {
		return ErrSchedulerClosed
	}
	<-done
	return nil
}

// Sync waits until every task queued before the call has run.
func (s *Scheduler) Sync() error {
	return s.Do(func() {})
}

// Settle waits until no render is pending. Renders waiting on a WillStart
// or WillUpdateProps hook count as pending. It must not be called from the
// loop.
func (s *Scheduler) Settle(ctx context.Context) error {
	for {
		var n int
		if err := s.Do(func() { n = len(s.pending) }); err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

// Close stops accepting work, runs what is already queued and stops the
// loop. Renders that have not committed by then are resolved with
// ErrSchedulerClosed. It must not be called from the loop.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.stop()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.done
	return nil
}

func (s *Scheduler) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.mu.Unlock()
			<-s.wake
			s.mu.Lock()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			s.shutdown()
			return
		}
		task := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		if len(s.queue) == 0 {
			s.queue = nil
		}
		s.mu.Unlock()

		s.safeCall(task, "task")
		s.observeTransitions()
	}
}

func (s *Scheduler) shutdown() {
	for f := range s.pending {
		resolveAll(f.waiters, ErrSchedulerClosed)
		f.waiters = nil
	}
	s.pending = nil
	s.logger.Debug("scheduler stopped", "roots", len(s.roots))
}

// safeCall runs fn, logging a panic instead of letting it stop the loop.
func (s *Scheduler) safeCall(fn func(), what string, attrs ...any) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			s.logger.Error(what+" panic", append(attrs, "panic", r, "stack", string(stack))...)
		}
	}()
	fn()
}

// post queues loop-internal work. Work posted after Close is dropped; the
// renders it belonged to are resolved by shutdown.
func (s *Scheduler) post(fn func()) {
	s.Dispatch(fn)
}

// Mount creates an instance of c with props and renders it into target,
// after any existing children. The notification resolves once the first
// commit is done. Safe from any goroutine.
func (s *Scheduler) Mount(c Component, props vdom.Props, target *dom.Node) (*Instance, *Notification) {
	inst := &Instance{s: s, comp: c, props: props, target: target, async: isAsync(c)}
	note := newNotification()
	ok := s.Dispatch(func() {
		s.setup(inst)
		s.roots = append(s.roots, inst)

		f := s.newFiber(inst, nil, props, false)
		f.waiters = append(f.waiters, note)
		s.trace(inst, note, "fibre.mount", false)
		s.schedule(f)
	})
	if !ok {
		note.resolve(ErrSchedulerClosed)
	}
	return inst, note
}

// Unmount removes a root mounted with Mount. The notification resolves once
// its nodes have left the document, leave transitions aside. Safe from any
// goroutine.
func (s *Scheduler) Unmount(inst *Instance) *Notification {
	note := newNotification()
	if !s.Dispatch(func() { note.resolve(s.unmountRoot(inst)) }) {
		note.resolve(ErrSchedulerClosed)
	}
	return note
}

// Roots returns the instances mounted with Mount and not yet unmounted.
// Must be called on the loop.
func (s *Scheduler) Roots() []*Instance {
	return append([]*Instance(nil), s.roots...)
}

func (s *Scheduler) unmountRoot(inst *Instance) error {
	if inst.status == StatusDestroyed {
		return nil
	}
	for i, r := range s.roots {
		if r == inst {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			break
		}
	}

	h := &commitHost{s: s}
	p := s.patcher.WithHost(h)
	var err error
	s.doc.Batch(func() {
		m := inst.mounted
		h.UnmountChild(p, inst)
		err = p.Unmount(m)
	})
	h.flushUnmounted()
	if err != nil {
		s.logger.Error("unmount failed", "component", inst.Name(), "error", err)
		return err
	}
	s.logger.Debug("root unmounted", "component", inst.Name(), "instance", inst.id)
	return nil
}

// setup assigns an id and runs the Setup hook of a new instance.
func (s *Scheduler) setup(inst *Instance) {
	s.nextID++
	inst.id = s.nextID
	if su, ok := inst.comp.(Setuper); ok {
		s.safeCall(func() { su.Setup(inst) }, "setup", "component", inst.Name())
	}
}

func (s *Scheduler) newInstance(c Component, parent *Instance, props vdom.Props) *Instance {
	inst := &Instance{s: s, comp: c, parent: parent, props: props, async: isAsync(c)}
	s.setup(inst)
	return inst
}

func (s *Scheduler) newFiber(inst *Instance, parent *fiber, props vdom.Props, force bool) *fiber {
	s.nextID++
	f := &fiber{id: s.nextID, inst: inst, parent: parent, props: props, force: force}
	if parent == nil {
		f.root = f
		f.started = time.Now()
		s.pending[f] = struct{}{}
	} else {
		f.root = parent.root
	}
	inst.fiber = f
	s.metrics.fiberCreated()
	return f
}

func (s *Scheduler) schedule(f *fiber) {
	s.post(func() { s.renderFiber(f) })
}

func (s *Scheduler) observeTransitions() {
	n := s.transitions.Active()
	if n != s.transActive {
		s.metrics.transitionsChanged(n - s.transActive)
		s.transActive = n
	}
}
