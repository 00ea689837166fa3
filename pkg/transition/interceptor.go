package transition

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/patch"
)

// Phase is the state of a tracked node.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseEntering
	PhaseLeaving
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEntering:
		return "entering"
	case PhaseLeaving:
		return "leaving"
	default:
		return "unknown"
	}
}

// Class names for a transition name.
func EnterClass(name string) string       { return name + "-enter" }
func EnterActiveClass(name string) string { return name + "-enter-active" }
func EnterToClass(name string) string     { return name + "-enter-to" }
func LeaveClass(name string) string       { return name + "-leave" }
func LeaveActiveClass(name string) string { return name + "-leave-active" }
func LeaveToClass(name string) string     { return name + "-leave-to" }

func allClasses(name string) []string {
	return []string{
		EnterClass(name), EnterActiveClass(name), EnterToClass(name),
		LeaveClass(name), LeaveActiveClass(name), LeaveToClass(name),
	}
}

// record is the transition state of one node.
type record struct {
	node     *dom.Node
	parent   *dom.Node
	target   patch.Target
	mounted  *patch.Mounted
	phase    Phase
	gen      uint64
	unlisten []func()
	timer    *time.Timer
}

// Interceptor implements patch.Ops with enter and leave transitions.
//
// All methods must be called from the goroutine that owns the document.
// Frame callbacks and duration timers are handed to the post function so
// they run there too.
type Interceptor struct {
	doc       *dom.Document
	frames    Frames
	post      func(func())
	durations map[string]time.Duration
	logger    *slog.Logger

	records map[*dom.Node]*record
	active  atomic.Int64
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithFrames sets the frame driver. Without one the interceptor is headless.
func WithFrames(f Frames) Option {
	return func(i *Interceptor) {
		i.frames = f
	}
}

// WithPost sets the function used to run frame callbacks and timers on the
// document's goroutine. The default runs them inline.
func WithPost(post func(func())) Option {
	return func(i *Interceptor) {
		if post != nil {
			i.post = post
		}
	}
}

// WithDurations declares known transition durations. A zero duration
// finishes the transition right after its first frame; a positive one
// finishes it after that long if no transitionend arrived. Names that are
// not listed wait for transitionend.
func WithDurations(d map[string]time.Duration) Option {
	return func(i *Interceptor) {
		i.durations = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interceptor) {
		if l != nil {
			i.logger = l
		}
	}
}

// New creates an Interceptor for doc.
func New(doc *dom.Document, opts ...Option) *Interceptor {
	i := &Interceptor{
		doc:     doc,
		post:    func(fn func()) { fn() },
		logger:  slog.Default(),
		records: make(map[*dom.Node]*record),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Headless reports whether the interceptor has no frame driver.
func (i *Interceptor) Headless() bool {
	return i.frames == nil
}

// Active returns the number of nodes currently entering or leaving. It is
// safe to call from any goroutine.
func (i *Interceptor) Active() int {
	return int(i.active.Load())
}

// PhaseOf returns the phase of node.
func (i *Interceptor) PhaseOf(node *dom.Node) Phase {
	if rec, ok := i.records[node]; ok {
		return rec.phase
	}
	return PhaseIdle
}

// Insert implements patch.Ops.
func (i *Interceptor) Insert(parent, node, before *dom.Node, t patch.Target) error {
	if t.Transition != "" && t.Component {
		i.dropStaleComponent(parent, t)
	}
	if err := i.doc.InsertBefore(parent, node, before); err != nil {
		return err
	}
	if t.Transition == "" || i.Headless() || node.Type != dom.ElementNode {
		return nil
	}
	i.enter(i.track(node, t))
	return nil
}

// Remove implements patch.Ops. Nodes with a transition stay attached until
// their leave transition ends.
func (i *Interceptor) Remove(node *dom.Node, t patch.Target, m *patch.Mounted) error {
	if t.Transition == "" || i.Headless() || node.Type != dom.ElementNode {
		if rec, ok := i.records[node]; ok {
			i.drop(rec)
		}
		return i.detach(node)
	}
	rec := i.track(node, t)
	if rec.phase == PhaseLeaving {
		return nil
	}
	rec.mounted = m
	rec.parent = node.Parent
	i.leave(rec)
	return nil
}

// Move implements patch.Ops.
func (i *Interceptor) Move(parent, node, before *dom.Node, _ patch.Target) error {
	return i.doc.Move(parent, node, before)
}

// Reclaim implements patch.Ops. It returns a leaving node under parent with
// the same key, tag and transition and makes it enter again.
func (i *Interceptor) Reclaim(parent *dom.Node, t patch.Target) *patch.Mounted {
	if t.Transition == "" || t.Component || len(i.records) == 0 {
		return nil
	}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		rec, ok := i.records[c]
		if !ok || rec.phase != PhaseLeaving || rec.mounted == nil || rec.target.Component {
			continue
		}
		if rec.target.Key != t.Key || rec.target.Tag != t.Tag || rec.target.Transition != t.Transition {
			continue
		}
		m := rec.mounted
		rec.mounted = nil
		i.logger.Debug("transition interrupted", "transition", t.Transition, "key", t.Key)
		i.enter(rec)
		return m
	}
	return nil
}

// KeptClasses implements patch.ClassKeeper.
func (i *Interceptor) KeptClasses(node *dom.Node) []string {
	rec, ok := i.records[node]
	if !ok {
		return nil
	}
	var out []string
	for _, c := range allClasses(rec.target.Transition) {
		if dom.HasClass(node, c) {
			out = append(out, c)
		}
	}
	return out
}

// Finish completes the transition of node as if transitionend had fired.
func (i *Interceptor) Finish(node *dom.Node) {
	if rec, ok := i.records[node]; ok {
		i.finish(rec)
	}
}

// FinishAll completes every running transition.
func (i *Interceptor) FinishAll() {
	for len(i.records) > 0 {
		for _, rec := range i.records {
			i.finish(rec)
			break
		}
	}
}

func (i *Interceptor) track(node *dom.Node, t patch.Target) *record {
	if rec, ok := i.records[node]; ok {
		rec.target = t
		return rec
	}
	rec := &record{node: node, target: t}
	end := func(e *dom.Event) {
		// transitionend bubbles from descendants with their own transitions.
		if e.Target != node {
			return
		}
		if cur, ok := i.records[node]; ok && cur == rec {
			i.finish(rec)
		}
	}
	rec.unlisten = []func(){
		i.doc.AddEventListener(node, "transitionend", end),
		i.doc.AddEventListener(node, "transitioncancel", end),
	}
	i.records[node] = rec
	i.active.Add(1)
	return rec
}

func (i *Interceptor) drop(rec *record) {
	if cur, ok := i.records[rec.node]; !ok || cur != rec {
		return
	}
	rec.gen++
	rec.phase = PhaseIdle
	rec.mounted = nil
	if rec.timer != nil {
		rec.timer.Stop()
		rec.timer = nil
	}
	for _, fn := range rec.unlisten {
		fn()
	}
	delete(i.records, rec.node)
	i.active.Add(-1)
}

func (i *Interceptor) enter(rec *record) {
	name := rec.target.Transition
	rec.gen++
	rec.phase = PhaseEntering
	i.doc.RemoveClass(rec.node, LeaveClass(name), LeaveActiveClass(name), LeaveToClass(name), EnterToClass(name))
	i.doc.AddClass(rec.node, EnterClass(name), EnterActiveClass(name))

	gen := rec.gen
	i.nextFrame(func() {
		if rec.gen != gen {
			return
		}
		i.doc.RemoveClass(rec.node, EnterClass(name))
		i.doc.AddClass(rec.node, EnterToClass(name))
		i.settle(rec, gen)
	})
}

func (i *Interceptor) leave(rec *record) {
	name := rec.target.Transition
	rec.gen++
	rec.phase = PhaseLeaving
	i.doc.RemoveClass(rec.node, EnterClass(name), EnterActiveClass(name), EnterToClass(name), LeaveToClass(name))
	i.doc.AddClass(rec.node, LeaveClass(name), LeaveActiveClass(name))

	gen := rec.gen
	i.nextFrame(func() {
		if rec.gen != gen {
			return
		}
		i.doc.RemoveClass(rec.node, LeaveClass(name))
		i.doc.AddClass(rec.node, LeaveToClass(name))
		i.settle(rec, gen)
	})
}

// settle finishes the phase early when its duration is known.
func (i *Interceptor) settle(rec *record, gen uint64) {
	d, ok := i.durations[rec.target.Transition]
	if !ok {
		return
	}
	if d <= 0 {
		i.finish(rec)
		return
	}
	if rec.timer != nil {
		rec.timer.Stop()
	}
	rec.timer = time.AfterFunc(d, func() {
		i.post(func() {
			if rec.gen == gen {
				i.finish(rec)
			}
		})
	})
}

func (i *Interceptor) nextFrame(fn func()) {
	i.frames.RequestFrame(func() {
		i.post(fn)
	})
}

func (i *Interceptor) finish(rec *record) {
	name := rec.target.Transition
	switch rec.phase {
	case PhaseEntering:
		i.doc.RemoveClass(rec.node, EnterClass(name), EnterActiveClass(name), EnterToClass(name))
		i.drop(rec)
	case PhaseLeaving:
		i.doc.RemoveClass(rec.node, LeaveClass(name), LeaveActiveClass(name), LeaveToClass(name))
		i.drop(rec)
		if err := i.detach(rec.node); err != nil {
			i.logger.Warn("transition detach failed", "transition", name, "error", err)
		}
	default:
		i.drop(rec)
	}
}

func (i *Interceptor) detach(node *dom.Node) error {
	if node.Parent == nil {
		return nil
	}
	if err := i.doc.Remove(node); err != nil {
		return err
	}
	i.sweep()
	return nil
}

// sweep drops records of nodes that left the document with an ancestor.
func (i *Interceptor) sweep() {
	for _, rec := range i.records {
		if !i.doc.Contains(rec.node) {
			i.drop(rec)
		}
	}
}

// dropStaleComponent detaches a leaving component root in the slot a new
// instance is being inserted into.
func (i *Interceptor) dropStaleComponent(parent *dom.Node, t patch.Target) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		rec, ok := i.records[c]
		if ok && rec.phase == PhaseLeaving && rec.target.Component &&
			rec.target.Key == t.Key && rec.target.Transition == t.Transition {
			i.finish(rec)
		}
		c = next
	}
}
