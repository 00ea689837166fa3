package fiber

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/patch"
	"github.com/vango-dev/fibre/pkg/vdom"
)

// commit applies a complete root fiber to the document.
//
// The DOM changes of the whole fiber tree happen inside one batch, so
// observers see a single notification. Before-hooks run top-down ahead of
// the batch; mounted and updated hooks run bottom-up after it.
func (s *Scheduler) commit(root *fiber) {
	if root.superseded || root.committed || !root.complete {
		return
	}
	inst := root.inst
	delete(s.pending, root)

	_, span := s.tracer.Start(s.ctx, "fibre.commit", trace.WithAttributes(
		attribute.String("fibre.component", inst.Name()),
		attribute.Int64("fibre.instance", int64(inst.id)),
		attribute.Int("fibre.waiters", len(root.waiters)),
	))
	defer span.End()

	if inst.status == StatusDestroyed {
		// Unmounted while the render was in flight.
		root.walk(func(f *fiber) {
			f.committed = true
			if f.inst.fiber == f {
				f.inst.fiber = nil
			}
		})
		resolveAll(root.waiters, nil)
		root.waiters = nil
		s.metrics.commitDone(statusDropped, 0)
		span.SetAttributes(attribute.String("fibre.status", statusDropped))
		return
	}

	h := &commitHost{s: s, root: root, bindings: make(map[*vdom.VNode]*Instance)}
	root.walk(func(f *fiber) {
		for _, sl := range f.slots {
			h.bindings[sl.node] = sl.inst
		}
	})
	p := s.patcher.WithHost(h)

	root.walk(func(f *fiber) {
		if f.keep {
			return
		}
		if f.inst.status == StatusMounted {
			f.inst.run(f.inst.hooks.beforeUpdate, "beforeUpdate")
		} else {
			f.inst.run(f.inst.hooks.beforeMount, "beforeMount")
		}
	})

	start := time.Now()
	var err error
	s.doc.Batch(func() {
		err = s.patchRoot(p, root)
	})
	h.flushUnmounted()

	if err != nil {
		s.logger.Error("commit failed", "component", inst.Name(), "instance", inst.id, "fiber", root.id, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		waiters := root.waiters
		root.waiters = nil
		s.cancel(root)
		resolveAll(waiters, err)
		s.metrics.commitDone(statusError, time.Since(start))
		return
	}

	var after []func()
	root.walkUp(func(f *fiber) {
		f.committed = true
		if f.inst.fiber == f {
			f.inst.fiber = nil
		}
		in := f.inst
		if f.keep || in.status == StatusDestroyed {
			return
		}
		in.vnode = f.vnode
		in.slots = f.slots
		in.children = make([]*Instance, 0, len(f.slots))
		for _, sl := range f.slots {
			in.children = append(in.children, sl.inst)
		}
		if in.status == StatusCreated {
			in.status = StatusMounted
			after = append(after, func() { in.run(in.hooks.mounted, "mounted") })
		} else {
			after = append(after, func() { in.run(in.hooks.updated, "updated") })
		}
	})
	for _, fn := range after {
		fn()
	}

	d := time.Since(start)
	s.metrics.commitDone(statusOK, d)
	span.SetAttributes(attribute.String("fibre.status", statusOK))
	s.logger.Debug("committed",
		"component", inst.Name(),
		"instance", inst.id,
		"fiber", root.id,
		"waiters", len(root.waiters),
		"render_duration", start.Sub(root.started),
		"commit_duration", d,
	)
	waiters := root.waiters
	root.waiters = nil
	resolveAll(waiters, nil)
}

func (s *Scheduler) patchRoot(p *patch.Patcher, root *fiber) error {
	inst := root.inst
	if inst.mounted == nil {
		if inst.target == nil {
			return fmt.Errorf("fiber: %s has no mount target", inst.Name())
		}
		m, err := p.Mount(inst.target, nil, root.vnode)
		if err != nil {
			return err
		}
		inst.mounted = m
		return nil
	}
	m, err := p.Patch(inst.mounted, root.vnode)
	if err != nil {
		return err
	}
	inst.mounted = m
	return nil
}

// commitHost resolves placeholders for the patcher during one commit.
type commitHost struct {
	s         *Scheduler
	root      *fiber
	bindings  map[*vdom.VNode]*Instance
	unmounted []*Instance
}

func (h *commitHost) Resolve(v *vdom.VNode) (patch.Child, error) {
	inst, ok := h.bindings[v]
	if !ok {
		return nil, ErrUnbound
	}
	return inst, nil
}

func (h *commitHost) MountChild(p *patch.Patcher, c patch.Child, parent, before *dom.Node, as patch.Target) error {
	inst := c.(*Instance)
	f := inst.fiber
	if f == nil || f.root != h.root {
		return fmt.Errorf("fiber: %s mounted without a render", inst.Name())
	}
	m, err := p.MountAs(parent, before, f.vnode, as)
	if err != nil {
		return err
	}
	inst.mounted = m
	return nil
}

func (h *commitHost) UpdateChild(p *patch.Patcher, c patch.Child) error {
	inst := c.(*Instance)
	f := inst.fiber
	if f == nil || f.root != h.root || inst.status == StatusDestroyed {
		// Not part of this request; its DOM is current.
		return nil
	}
	m, err := p.Patch(inst.mounted, f.vnode)
	if err != nil {
		return err
	}
	inst.mounted = m
	return nil
}

func (h *commitHost) UnmountChild(p *patch.Patcher, c patch.Child) {
	inst := c.(*Instance)
	if inst.status == StatusDestroyed {
		return
	}
	wasMounted := inst.status == StatusMounted
	if wasMounted {
		inst.run(inst.hooks.beforeUnmount, "beforeUnmount")
	}
	inst.status = StatusDestroyed
	p.Teardown(inst.mounted)

	if f := inst.fiber; f != nil && f.parent == nil {
		// A pending render of its own is dropped silently.
		waiters := f.waiters
		f.waiters = nil
		h.s.cancel(f)
		resolveAll(waiters, nil)
	}
	inst.dirty = false
	if wasMounted {
		h.unmounted = append(h.unmounted, inst)
	}
}

// flushUnmounted runs the unmounted hooks of the instances removed by the
// commit, children first.
func (h *commitHost) flushUnmounted() {
	for _, inst := range h.unmounted {
		inst.run(inst.hooks.unmounted, "unmounted")
	}
	h.unmounted = nil
}
