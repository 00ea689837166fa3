package fiber

import (
	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/patch"
	"github.com/vango-dev/fibre/pkg/vdom"
)

// Status is the lifecycle stage of an instance.
type Status uint8

const (
	StatusCreated   Status = iota // Not yet committed
	StatusMounted                 // In the document
	StatusDestroyed               // Unmounted; renders are refused
)

// String returns the string representation of the Status.
func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusMounted:
		return "mounted"
	case StatusDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Instance is a live component: its props, state and committed tree.
//
// Unless noted otherwise, methods must be called on the scheduler loop,
// which is where Render, hooks, event handlers and Scheduler.Do callbacks
// run.
type Instance struct {
	// State is free for the component to use.
	State any

	id     uint64
	s      *Scheduler
	comp   Component
	parent *Instance
	async  bool

	props    vdom.Props
	status   Status
	started  bool // WillStart has succeeded
	children []*Instance
	slots    []slot
	vnode    *vdom.VNode
	mounted  *patch.Mounted
	target   *dom.Node // Mount container of roots

	fiber     *fiber
	dirty     bool
	forceNext bool

	hooks hooks
}

type hooks struct {
	beforeMount   []func()
	mounted       []func()
	beforeUpdate  []func()
	updated       []func()
	beforeUnmount []func()
	unmounted     []func()
}

// ID returns an identifier unique within the scheduler.
func (i *Instance) ID() uint64 {
	return i.id
}

// Name returns the component name used in logs.
func (i *Instance) Name() string {
	return componentName(i.comp)
}

// Component returns the component the instance renders.
func (i *Instance) Component() Component {
	return i.comp
}

// Scheduler returns the scheduler that owns the instance. Safe from any
// goroutine.
func (i *Instance) Scheduler() *Scheduler {
	return i.s
}

// Props returns the props of the current render.
func (i *Instance) Props() vdom.Props {
	return i.props
}

// Parent returns the parent instance, nil for roots.
func (i *Instance) Parent() *Instance {
	return i.parent
}

// Children returns the committed child instances in document order.
func (i *Instance) Children() []*Instance {
	return append([]*Instance(nil), i.children...)
}

// Status returns the lifecycle stage.
func (i *Instance) Status() Status {
	return i.status
}

// Root returns the mounted tree of the instance, nil before the first
// commit. It implements patch.Child.
func (i *Instance) Root() *patch.Mounted {
	return i.mounted
}

// Nodes returns the top-level DOM nodes of the instance.
func (i *Instance) Nodes() []*dom.Node {
	return i.mounted.Nodes()
}

// Element returns the root element of the instance, nil when the instance
// renders text or a fragment.
func (i *Instance) Element() *dom.Node {
	return i.mounted.Element()
}

// Render requests a render of the instance. With force set, children are
// rendered too even when their props did not change. Safe from any
// goroutine.
func (i *Instance) Render(force bool) *Notification {
	note := newNotification()
	if !i.s.Dispatch(func() { i.s.requestRender(i, force, note) }) {
		note.resolve(ErrSchedulerClosed)
	}
	return note
}

// Update runs fn on the loop, then requests a render. Safe from any
// goroutine.
//
//	inst.Update(func() { state.count++ })
func (i *Instance) Update(fn func()) *Notification {
	note := newNotification()
	ok := i.s.Dispatch(func() {
		if i.status != StatusDestroyed {
			fn()
		}
		i.s.requestRender(i, false, note)
	})
	if !ok {
		note.resolve(ErrSchedulerClosed)
	}
	return note
}

// Lifecycle hooks. Before-hooks run top-down before the DOM batch of a
// commit, mounted and updated hooks run bottom-up once the batch is applied.
// Unmount hooks run for every instance removed by a commit.

// OnBeforeMount registers fn to run before the first commit.
func (i *Instance) OnBeforeMount(fn func()) { i.hooks.beforeMount = append(i.hooks.beforeMount, fn) }

// OnMounted registers fn to run after the first commit.
func (i *Instance) OnMounted(fn func()) { i.hooks.mounted = append(i.hooks.mounted, fn) }

// OnBeforeUpdate registers fn to run before each later commit.
func (i *Instance) OnBeforeUpdate(fn func()) { i.hooks.beforeUpdate = append(i.hooks.beforeUpdate, fn) }

// OnUpdated registers fn to run after each later commit.
func (i *Instance) OnUpdated(fn func()) { i.hooks.updated = append(i.hooks.updated, fn) }

// OnBeforeUnmount registers fn to run while the instance is still in the
// document, before its nodes are removed.
func (i *Instance) OnBeforeUnmount(fn func()) {
	i.hooks.beforeUnmount = append(i.hooks.beforeUnmount, fn)
}

// OnUnmounted registers fn to run once the instance has left the document.
func (i *Instance) OnUnmounted(fn func()) { i.hooks.unmounted = append(i.hooks.unmounted, fn) }

func (i *Instance) run(hooks []func(), stage string) {
	for _, fn := range hooks {
		i.s.safeCall(func() { fn() }, "hook", "stage", stage, "component", i.Name())
	}
}

// hasDirtyDescendant reports whether a committed descendant waits for a
// render.
func (i *Instance) hasDirtyDescendant() bool {
	for _, c := range i.children {
		if c.status == StatusDestroyed || c.async {
			continue
		}
		if c.dirty || c.hasDirtyDescendant() {
			return true
		}
	}
	return false
}
