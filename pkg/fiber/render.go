package fiber

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/vango-dev/fibre/pkg/vdom"
)

// requestRender handles a render request on the loop.
//
// A request on an instance whose fiber has not rendered yet joins that
// fiber. A request on an instance whose fiber has rendered but not committed
// supersedes it. A request on an instance below an ancestor whose fiber has
// not rendered yet joins the ancestor's render. Anything else starts a new
// root fiber.
func (s *Scheduler) requestRender(inst *Instance, force bool, note *Notification) {
	switch {
	case inst.status == StatusDestroyed:
		note.resolve(ErrDestroyed)
		return
	case inst.status == StatusCreated && inst.fiber == nil:
		// Never rendered and not scheduled: the first render picks up
		// whatever changed.
		note.resolve(nil)
		return
	}

	s.trace(inst, note, "fibre.render", force)
	inst.dirty = true
	if force {
		inst.forceNext = true
	}

	if f := inst.fiber; f != nil {
		if !f.rendered {
			f.keep = false
			f.force = f.force || force
			f.root.waiters = append(f.root.waiters, note)
			return
		}
		nf := s.supersede(f)
		nf.root.waiters = append(nf.root.waiters, note)
		return
	}

	if a := coveringFiber(inst); a != nil {
		a.root.waiters = append(a.root.waiters, note)
		return
	}

	f := s.newFiber(inst, nil, inst.props, force)
	f.waiters = append(f.waiters, note)
	s.schedule(f)
}

// coveringFiber returns the fiber of the nearest ancestor that has not
// rendered yet. Its render reaches inst because inst is dirty. The search
// stops at async boundaries.
func coveringFiber(inst *Instance) *fiber {
	for c := inst; c.parent != nil && !c.async; c = c.parent {
		if f := c.parent.fiber; f != nil && !f.rendered {
			return f
		}
	}
	return nil
}

// supersede cancels a rendered fiber and schedules a forced replacement in
// its place. The replacement inherits the waiters of a root, or the slot of
// a child in its parent.
func (s *Scheduler) supersede(old *fiber) *fiber {
	parent := old.parent
	wasComplete := old.complete
	s.cancel(old)

	nf := s.newFiber(old.inst, parent, old.props, true)
	nf.prepared = old.prepared
	if parent == nil {
		nf.waiters, old.waiters = old.waiters, nil
		nf.caught = old.caught
		nf.started = old.started
	} else {
		for i, c := range parent.children {
			if c == old {
				parent.children[i] = nf
				break
			}
		}
		if wasComplete {
			parent.remaining++
			s.reopen(parent)
		}
	}
	s.metrics.fiberSuperseded()
	s.logger.Debug("render superseded", "component", old.inst.Name(), "instance", old.inst.id, "fiber", old.id)
	s.schedule(nf)
	return nf
}

// cancel marks f and its descendants as superseded. Their renders are never
// committed.
func (s *Scheduler) cancel(f *fiber) {
	if f.superseded || f.committed {
		return
	}
	f.superseded = true
	if f.inst.fiber == f {
		f.inst.fiber = nil
	}
	if f.rendered && !f.keep && f.inst.status != StatusDestroyed {
		// The instance's tree was rendered but will not be applied.
		f.inst.dirty = true
	}
	if f.parent == nil {
		delete(s.pending, f)
	}
	for _, c := range f.children {
		s.cancel(c)
	}
}

// reopen marks f and its complete ancestors incomplete again after a
// finished child was replaced.
func (s *Scheduler) reopen(f *fiber) {
	for f != nil && f.complete {
		f.complete = false
		if f.parent == nil {
			return
		}
		f.parent.remaining++
		f = f.parent
	}
}

// completeFiber propagates completion up the tree and posts the commit once
// the root is complete.
func (s *Scheduler) completeFiber(f *fiber) {
	for f != nil && !f.superseded && f.rendered && f.remaining == 0 && !f.complete {
		f.complete = true
		if f.parent == nil {
			root := f
			s.post(func() { s.commit(root) })
			return
		}
		f.parent.remaining--
		f = f.parent
	}
}

func (s *Scheduler) renderFiber(f *fiber) {
	if f.superseded || f.rendered {
		return
	}
	inst := f.inst
	if inst.status == StatusDestroyed {
		f.keep = true
		f.rendered = true
		s.completeFiber(f)
		return
	}

	if !f.prepared {
		f.prepared = true
		if hook := s.prepareHook(f); hook != nil {
			s.runHook(f, hook)
			return
		}
	}

	if f.keep {
		f.vnode, f.slots = inst.vnode, inst.slots
	} else {
		if f.parent != nil {
			inst.props = f.props
		}
		v, err := s.callRender(f)
		if err != nil {
			s.fail(f, err)
			return
		}
		f.vnode = v
		if err := s.bind(f); err != nil {
			s.fail(f, err)
			return
		}
		inst.dirty = false
		inst.forceNext = false
	}
	f.rendered = true

	s.spawnChildren(f)
	s.completeFiber(f)
}

// prepareHook returns the asynchronous hook to run before rendering f, nil
// when there is none.
func (s *Scheduler) prepareHook(f *fiber) func(context.Context) error {
	inst := f.inst
	if f.keep {
		return nil
	}
	switch {
	case inst.status == StatusCreated && !inst.started:
		if ws, ok := inst.comp.(WillStarter); ok {
			return func(ctx context.Context) error { return ws.WillStart(ctx, inst) }
		}
	case inst.status == StatusMounted && f.parent != nil && !propsEqual(inst.props, f.props):
		if wu, ok := inst.comp.(WillUpdater); ok {
			next := f.props
			return func(ctx context.Context) error { return wu.WillUpdateProps(ctx, inst, next) }
		}
	}
	return nil
}

// runHook runs hook off the loop and resumes the render of f with its
// result.
func (s *Scheduler) runHook(f *fiber, hook func(context.Context) error) {
	go func() {
		err := s.callHook(f.inst, hook)
		s.post(func() {
			if f.superseded {
				return
			}
			if err != nil {
				s.fail(f, err)
				return
			}
			if f.inst.status == StatusCreated {
				f.inst.started = true
			}
			s.renderFiber(f)
		})
	}()
}

func (s *Scheduler) callHook(inst *Instance, hook func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Component: inst.Name(), Panic: r, Stack: debug.Stack(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return hook(s.ctx)
}

func (s *Scheduler) callRender(f *fiber) (v *vdom.VNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RenderError{Component: f.inst.Name(), Panic: r, Stack: debug.Stack(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return f.inst.comp.Render(f.inst), nil
}

// bind pairs the placeholders of a fresh render with instances. A
// placeholder keeps the instance committed at the same position when it
// names the same component; otherwise it gets a new instance.
func (s *Scheduler) bind(f *fiber) error {
	inst := f.inst
	prev := make(map[string]*Instance, len(inst.slots))
	for _, sl := range inst.slots {
		if _, dup := prev[sl.id]; !dup {
			prev[sl.id] = sl.inst
		}
	}

	f.slots = placeholders(f.vnode)
	used := make(map[*Instance]bool, len(f.slots))
	for i := range f.slots {
		sl := &f.slots[i]
		comp, ok := sl.node.Comp.(Component)
		if !ok {
			return fmt.Errorf("%w: %T", ErrNotComponent, sl.node.Comp)
		}
		child := prev[sl.id]
		if child == nil || used[child] || child.status == StatusDestroyed || !sameComponent(child.comp, comp) {
			child = s.newInstance(comp, inst, sl.node.Props)
		}
		used[child] = true
		sl.inst = child
	}
	return nil
}

// spawnChildren decides which children of f render as part of its request.
func (s *Scheduler) spawnChildren(f *fiber) {
	for _, sl := range f.slots {
		child, props := sl.inst, sl.node.Props
		switch {
		case child.status == StatusDestroyed:
		case child.status == StatusCreated:
			s.spawn(f, child, props, f.force, false)
		case child.async:
			if f.force || !propsEqual(child.props, props) {
				child.props = props
				s.requestRender(child, f.force, newNotification())
			}
		case f.force || child.dirty || child.forceNext || !propsEqual(child.props, props):
			s.spawn(f, child, props, f.force || child.forceNext, false)
		case child.hasDirtyDescendant():
			s.spawn(f, child, child.props, false, true)
		}
	}
}

// spawn schedules a child fiber of parent for child. A pending render of
// child started on its own is folded into the parent's request.
func (s *Scheduler) spawn(parent *fiber, child *Instance, props vdom.Props, force, keep bool) {
	if old := child.fiber; old != nil {
		if old.parent == nil {
			parent.root.waiters = append(parent.root.waiters, old.waiters...)
			old.waiters = nil
		}
		s.cancel(old)
	}
	nf := s.newFiber(child, parent, props, force)
	nf.keep = keep
	parent.children = append(parent.children, nf)
	parent.remaining++
	s.schedule(nf)
}

// fail handles a render failure of f. The nearest error boundary above f
// that has not handled an error of this request yet gets to handle it and
// is rendered again. Without one, the request is aborted and its waiters
// get the error.
func (s *Scheduler) fail(f *fiber, err error) {
	rerr := renderError(f.inst, err)
	root := f.root
	s.metrics.renderFailed()

	attrs := []any{"component", rerr.Component, "instance", f.inst.id, "error", rerr}
	if rerr.Stack != nil {
		attrs = append(attrs, "stack", string(rerr.Stack))
	}
	s.logger.Error("render failed", attrs...)

	for b := boundaryOf(f.inst); b != nil; b = boundaryOf(b) {
		if root.caught[b] {
			continue
		}
		bf := b.fiber
		inRoot := bf != nil && bf.root == root && bf.rendered
		if !inRoot && b.status != StatusMounted {
			continue
		}
		if root.caught == nil {
			root.caught = make(map[*Instance]bool)
		}
		root.caught[b] = true

		eb := b.comp.(ErrorBoundary)
		s.safeCall(func() { eb.CatchError(b, rerr) }, "catch error", "component", b.Name())
		if inRoot {
			s.supersede(bf)
			return
		}
		waiters := s.abort(root)
		note := newNotification()
		note.onResolve(func(err error) { resolveAll(waiters, err) })
		s.requestRender(b, true, note)
		return
	}

	resolveAll(s.abort(root), rerr)
}

// abort cancels a root fiber and hands back its waiters.
func (s *Scheduler) abort(root *fiber) []*Notification {
	waiters := root.waiters
	root.waiters = nil
	s.cancel(root)
	s.metrics.commitDone(statusAborted, 0)
	return waiters
}

func boundaryOf(inst *Instance) *Instance {
	for b := inst.parent; b != nil; b = b.parent {
		if b.status == StatusDestroyed {
			continue
		}
		if _, ok := b.comp.(ErrorBoundary); ok {
			return b
		}
	}
	return nil
}
