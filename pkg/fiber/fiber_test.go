package fiber

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/transition"
	"github.com/vango-dev/fibre/pkg/vdom"
)

// testComp is a component assembled from functions.
type testComp struct {
	render func(inst *Instance) *vdom.VNode
	setup  func(inst *Instance)
}

func (c *testComp) Render(inst *Instance) *vdom.VNode { return c.render(inst) }

func (c *testComp) Setup(inst *Instance) {
	if c.setup != nil {
		c.setup(inst)
	}
}

// gatedChild waits for gate before accepting new props.
type gatedChild struct {
	gate    chan struct{}
	updated int
}

func (c *gatedChild) Render(inst *Instance) *vdom.VNode {
	return vdom.Span(vdom.Textf("%v", inst.Props()["n"]))
}

func (c *gatedChild) Setup(inst *Instance) {
	inst.OnUpdated(func() { c.updated++ })
}

func (c *gatedChild) WillUpdateProps(ctx context.Context, _ *Instance, _ vdom.Props) error {
	select {
	case <-c.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// slowStart waits for gate before its first render.
type slowStart struct {
	gate chan struct{}
}

func (c *slowStart) Render(*Instance) *vdom.VNode { return vdom.Span("slow") }

func (c *slowStart) WillStart(ctx context.Context, _ *Instance) error {
	select {
	case <-c.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// boundary renders a fallback once it caught an error.
type boundary struct {
	child  Component
	caught []error
}

func (b *boundary) Render(inst *Instance) *vdom.VNode {
	if inst.State != nil {
		return vdom.P("failed")
	}
	return vdom.Div(vdom.Comp(b.child))
}

func (b *boundary) CatchError(inst *Instance, err error) {
	b.caught = append(b.caught, err)
	inst.State = err
}

func newTestScheduler(t *testing.T, opts ...Option) (*Scheduler, *dom.Document) {
	t.Helper()
	doc := dom.NewDocument()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewScheduler(doc, append([]Option{WithLogger(logger)}, opts...)...)
	t.Cleanup(func() { s.Close() })
	return s, doc
}

func wait(t *testing.T, n *Notification) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := n.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("notification did not resolve")
	}
	return err
}

func mustWait(t *testing.T, n *Notification) {
	t.Helper()
	if err := wait(t, n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func onLoop(t *testing.T, s *Scheduler, fn func()) {
	t.Helper()
	if err := s.Do(fn); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func innerHTML(t *testing.T, s *Scheduler, n *dom.Node) string {
	t.Helper()
	var out string
	onLoop(t, s, func() { out = dom.InnerHTML(n) })
	return out
}

func eventually(t *testing.T, s *Scheduler, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var ok bool
		onLoop(t, s, func() { ok = cond() })
		if ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func counter() *testComp {
	return &testComp{
		setup: func(inst *Instance) { inst.State = 0 },
		render: func(inst *Instance) *vdom.VNode {
			return vdom.P(vdom.Textf("%d", inst.State.(int)))
		},
	}
}

func TestMountRendersIntoTarget(t *testing.T) {
	s, doc := newTestScheduler(t)

	inst, note := s.Mount(counter(), nil, doc.Body())
	mustWait(t, note)

	if got := innerHTML(t, s, doc.Body()); got != "<p>0</p>" {
		t.Errorf("body = %q, want %q", got, "<p>0</p>")
	}
	var status Status
	onLoop(t, s, func() { status = inst.Status() })
	if status != StatusMounted {
		t.Errorf("status = %v, want mounted", status)
	}

	mustWait(t, inst.Update(func() { inst.State = inst.State.(int) + 1 }))
	if got := innerHTML(t, s, doc.Body()); got != "<p>1</p>" {
		t.Errorf("body = %q, want %q", got, "<p>1</p>")
	}
}

func TestSupersededRendersNeverCommit(t *testing.T) {
	s, doc := newTestScheduler(t)

	gate := make(chan struct{})
	child := &gatedChild{gate: gate}
	n := 0
	parentUpdated := 0
	app := &testComp{
		setup: func(inst *Instance) { inst.OnUpdated(func() { parentUpdated++ }) },
		render: func(*Instance) *vdom.VNode {
			return vdom.Div(vdom.Comp(child, vdom.AttrOf("n", n)))
		},
	}

	inst, note := s.Mount(app, nil, doc.Body())
	mustWait(t, note)

	batches := 0
	onLoop(t, s, func() {
		doc.Observe(func([]dom.MutationRecord) { batches++ })
	})

	var notes []*Notification
	for i := 1; i <= 5; i++ {
		notes = append(notes, inst.Update(func() { n = i }))
	}
	if err := s.Sync(); err != nil {
		t.Fatal(err)
	}
	close(gate)
	for _, note := range notes {
		mustWait(t, note)
	}

	if got, want := innerHTML(t, s, doc.Body()), "<div><span>5</span></div>"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	onLoop(t, s, func() {
		if batches != 1 {
			t.Errorf("mutation batches = %d, want 1", batches)
		}
		if parentUpdated != 1 || child.updated != 1 {
			t.Errorf("updated hooks parent=%d child=%d, want 1 each", parentUpdated, child.updated)
		}
	})
}

func TestCommitIsOneBatchParentFirst(t *testing.T) {
	s, doc := newTestScheduler(t)

	var log []string
	hooks := func(name string) func(inst *Instance) {
		return func(inst *Instance) {
			inst.OnBeforeMount(func() { log = append(log, name+" beforeMount") })
			inst.OnMounted(func() { log = append(log, name+" mounted") })
		}
	}
	child := &testComp{setup: hooks("child"), render: func(*Instance) *vdom.VNode { return vdom.Span("child") }}
	app := &testComp{setup: hooks("parent"), render: func(*Instance) *vdom.VNode {
		return vdom.Div(vdom.Comp(child), vdom.Comp(child))
	}}

	var batches [][]dom.MutationRecord
	onLoop(t, s, func() {
		doc.Observe(func(r []dom.MutationRecord) { batches = append(batches, r) })
	})

	_, note := s.Mount(app, nil, doc.Body())
	mustWait(t, note)

	onLoop(t, s, func() {
		if len(batches) != 1 {
			t.Fatalf("mutation batches = %d, want 1", len(batches))
		}
		first := batches[0][0]
		if first.Kind != dom.MutationInsert || first.Node.Data != "div" {
			t.Errorf("first record = %v %s, want Insert div", first.Kind, first.Node.Data)
		}
		want := []string{
			"parent beforeMount",
			"child beforeMount",
			"child beforeMount",
			"child mounted",
			"child mounted",
			"parent mounted",
		}
		if diff := cmp.Diff(want, log); diff != "" {
			t.Errorf("hook order mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestUnmountBeforeCommitDropsRender(t *testing.T) {
	s, doc := newTestScheduler(t)

	gate := make(chan struct{})
	mounted := 0
	app := &testComp{
		setup:  func(inst *Instance) { inst.OnMounted(func() { mounted++ }) },
		render: func(*Instance) *vdom.VNode { return vdom.Div(vdom.Comp(&slowStart{gate: gate})) },
	}

	inst, note := s.Mount(app, nil, doc.Body())
	if err := s.Sync(); err != nil {
		t.Fatal(err)
	}
	mustWait(t, s.Unmount(inst))
	mustWait(t, note)

	close(gate)
	for i := 0; i < 3; i++ {
		if err := s.Sync(); err != nil {
			t.Fatal(err)
		}
	}

	if got := innerHTML(t, s, doc.Body()); got != "" {
		t.Errorf("body = %q, want empty", got)
	}
	onLoop(t, s, func() {
		if mounted != 0 {
			t.Errorf("mounted hooks = %d, want 0", mounted)
		}
		if inst.Status() != StatusDestroyed {
			t.Errorf("status = %v, want destroyed", inst.Status())
		}
	})
	if err := wait(t, inst.Render(false)); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Render after unmount = %v, want ErrDestroyed", err)
	}
}

func TestUnmountRunsHooks(t *testing.T) {
	s, doc := newTestScheduler(t)

	var log []string
	hooks := func(name string) func(inst *Instance) {
		return func(inst *Instance) {
			inst.OnBeforeUnmount(func() { log = append(log, name+" beforeUnmount") })
			inst.OnUnmounted(func() { log = append(log, name+" unmounted") })
		}
	}
	child := &testComp{setup: hooks("child"), render: func(*Instance) *vdom.VNode { return vdom.Span("c") }}
	app := &testComp{setup: hooks("parent"), render: func(*Instance) *vdom.VNode { return vdom.Div(vdom.Comp(child)) }}

	inst, note := s.Mount(app, nil, doc.Body())
	mustWait(t, note)
	mustWait(t, s.Unmount(inst))

	if got := innerHTML(t, s, doc.Body()); got != "" {
		t.Errorf("body = %q, want empty", got)
	}
	want := []string{"parent beforeUnmount", "child beforeUnmount", "child unmounted", "parent unmounted"}
	onLoop(t, s, func() {
		if diff := cmp.Diff(want, log); diff != "" {
			t.Errorf("hook order mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRenderPanicFailsRequest(t *testing.T) {
	s, doc := newTestScheduler(t)

	boom := &testComp{render: func(*Instance) *vdom.VNode { panic("boom") }}
	_, note := s.Mount(boom, nil, doc.Body())

	err := wait(t, note)
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RenderError", err)
	}
	if re.Panic != "boom" || len(re.Stack) == 0 {
		t.Errorf("RenderError = %+v, want panic boom with stack", re)
	}
	if got := innerHTML(t, s, doc.Body()); got != "" {
		t.Errorf("body = %q, want empty", got)
	}
}

func TestRenderErrorLeavesDocument(t *testing.T) {
	s, doc := newTestScheduler(t)

	fail := false
	app := &testComp{render: func(*Instance) *vdom.VNode {
		if fail {
			panic(errors.New("bad state"))
		}
		return vdom.P("ok")
	}}
	inst, note := s.Mount(app, nil, doc.Body())
	mustWait(t, note)

	err := wait(t, inst.Update(func() { fail = true }))
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RenderError", err)
	}
	if got := innerHTML(t, s, doc.Body()); got != "<p>ok</p>" {
		t.Errorf("body = %q, want %q", got, "<p>ok</p>")
	}
}

func TestErrorBoundaryCatchesChildError(t *testing.T) {
	s, doc := newTestScheduler(t)

	boom := &testComp{render: func(*Instance) *vdom.VNode { panic("child broke") }}
	b := &boundary{child: boom}
	_, note := s.Mount(b, nil, doc.Body())
	mustWait(t, note)

	if got := innerHTML(t, s, doc.Body()); got != "<p>failed</p>" {
		t.Errorf("body = %q, want fallback", got)
	}
	onLoop(t, s, func() {
		if len(b.caught) != 1 {
			t.Fatalf("caught %d errors, want 1", len(b.caught))
		}
		var re *RenderError
		if !errors.As(b.caught[0], &re) || re.Panic != "child broke" {
			t.Errorf("caught %v, want RenderError for child broke", b.caught[0])
		}
	})
}

func TestWillStartErrorFailsMount(t *testing.T) {
	s, doc := newTestScheduler(t)

	want := errors.New("load failed")
	comp := &failingStart{err: want}
	_, note := s.Mount(comp, nil, doc.Body())

	err := wait(t, note)
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

type failingStart struct{ err error }

func (c *failingStart) Render(*Instance) *vdom.VNode { return vdom.P("never") }

func (c *failingStart) WillStart(context.Context, *Instance) error { return c.err }

func TestRenderIsIdempotent(t *testing.T) {
	s, doc := newTestScheduler(t)

	inst, note := s.Mount(counter(), nil, doc.Body())
	mustWait(t, note)

	var before, after uint64
	onLoop(t, s, func() { before = doc.MutationCount() })
	mustWait(t, inst.Render(false))
	mustWait(t, inst.Render(true))
	onLoop(t, s, func() { after = doc.MutationCount() })

	if before != after {
		t.Errorf("re-render applied %d mutations, want 0", after-before)
	}
}

func TestChildRendersWhenPropsChange(t *testing.T) {
	s, doc := newTestScheduler(t)

	childRenders := 0
	child := &testComp{render: func(inst *Instance) *vdom.VNode {
		childRenders++
		return vdom.Span(vdom.Textf("%v", inst.Props()["label"]))
	}}
	label, other := "a", 0
	app := &testComp{render: func(*Instance) *vdom.VNode {
		return vdom.Div(vdom.Textf("%d", other), vdom.Comp(child, vdom.AttrOf("label", label)))
	}}

	inst, note := s.Mount(app, nil, doc.Body())
	mustWait(t, note)

	steps := []struct {
		name   string
		update func()
		force  bool
		want   int
	}{
		{name: "same props", update: func() { other++ }, want: 1},
		{name: "new props", update: func() { label = "b" }, want: 2},
		{name: "forced", force: true, want: 3},
	}
	for _, step := range steps {
		if step.force {
			mustWait(t, inst.Render(true))
		} else {
			mustWait(t, inst.Update(step.update))
		}
		var got int
		onLoop(t, s, func() { got = childRenders })
		if got != step.want {
			t.Errorf("%s: child renders = %d, want %d", step.name, got, step.want)
		}
	}
	if got, want := innerHTML(t, s, doc.Body()), "<div>1<span>b</span></div>"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestChildRequestJoinsPendingParent(t *testing.T) {
	s, doc := newTestScheduler(t)

	parentRenders, childRenders := 0, 0
	var childInst *Instance
	child := &testComp{
		setup: func(inst *Instance) { childInst = inst },
		render: func(*Instance) *vdom.VNode {
			childRenders++
			return vdom.Span(vdom.Textf("%d", childRenders))
		},
	}
	app := &testComp{render: func(*Instance) *vdom.VNode {
		parentRenders++
		return vdom.Div(vdom.Textf("%d", parentRenders), vdom.Comp(child))
	}}

	inst, note := s.Mount(app, nil, doc.Body())
	mustWait(t, note)

	batches := 0
	var n1, n2 *Notification
	onLoop(t, s, func() {
		doc.Observe(func([]dom.MutationRecord) { batches++ })
		n1 = inst.Render(false)
		n2 = childInst.Render(false)
	})
	mustWait(t, n1)
	mustWait(t, n2)

	onLoop(t, s, func() {
		if batches != 1 {
			t.Errorf("mutation batches = %d, want 1", batches)
		}
		if parentRenders != 2 || childRenders != 2 {
			t.Errorf("renders parent=%d child=%d, want 2 each", parentRenders, childRenders)
		}
	})
	if got, want := innerHTML(t, s, doc.Body()), "<div>2<span>2</span></div>"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestDirtyGrandchildRendersThroughCleanChild(t *testing.T) {
	s, doc := newTestScheduler(t)

	var leaf *Instance
	leafComp := &testComp{
		setup: func(inst *Instance) {
			leaf = inst
			inst.State = "x"
		},
		render: func(inst *Instance) *vdom.VNode { return vdom.I(inst.State.(string)) },
	}
	middleRenders := 0
	middle := &testComp{render: func(*Instance) *vdom.VNode {
		middleRenders++
		return vdom.Span(vdom.Comp(leafComp))
	}}
	app := &testComp{render: func(*Instance) *vdom.VNode { return vdom.Div(vdom.Comp(middle)) }}

	inst, note := s.Mount(app, nil, doc.Body())
	mustWait(t, note)

	var n1, n2 *Notification
	onLoop(t, s, func() {
		n1 = inst.Render(false)
		n2 = leaf.Update(func() { leaf.State = "y" })
	})
	mustWait(t, n1)
	mustWait(t, n2)

	if got, want := innerHTML(t, s, doc.Body()), "<div><span><i>y</i></span></div>"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	onLoop(t, s, func() {
		if middleRenders != 1 {
			t.Errorf("middle renders = %d, want 1", middleRenders)
		}
	})
}

func TestKeyedChildrenKeepInstances(t *testing.T) {
	s, doc := newTestScheduler(t)

	setups, unmounted := 0, 0
	item := &testComp{
		setup: func(inst *Instance) {
			setups++
			inst.OnUnmounted(func() { unmounted++ })
		},
		render: func(inst *Instance) *vdom.VNode { return vdom.Li(vdom.Textf("%v", inst.Props()["name"])) },
	}
	items := []string{"a", "b", "c"}
	app := &testComp{render: func(*Instance) *vdom.VNode {
		return vdom.Ul(vdom.Range(items, func(it string, _ int) *vdom.VNode {
			return vdom.Comp(item, vdom.Key(it), vdom.AttrOf("name", it))
		}))
	}}

	inst, note := s.Mount(app, nil, doc.Body())
	mustWait(t, note)

	ids := func() map[string]uint64 {
		out := make(map[string]uint64)
		onLoop(t, s, func() {
			for _, c := range inst.Children() {
				out[c.Props()["name"].(string)] = c.ID()
			}
		})
		return out
	}
	before := ids()

	mustWait(t, inst.Update(func() { items = []string{"c", "a", "b"} }))
	if got, want := innerHTML(t, s, doc.Body()), "<ul><li>c</li><li>a</li><li>b</li></ul>"; got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
	if diff := cmp.Diff(before, ids()); diff != "" {
		t.Errorf("instances changed on reorder (-before +after):\n%s", diff)
	}

	mustWait(t, inst.Update(func() { items = []string{"c", "b"} }))
	onLoop(t, s, func() {
		if setups != 3 || unmounted != 1 {
			t.Errorf("setups=%d unmounted=%d, want 3 and 1", setups, unmounted)
		}
	})
}

func TestAsyncRootDoesNotHoldParent(t *testing.T) {
	s, doc := newTestScheduler(t)

	gate := make(chan struct{})
	slow := &gatedChild{gate: gate}
	n := 0
	app := &testComp{render: func(*Instance) *vdom.VNode {
		return vdom.Div(vdom.P(vdom.Textf("%d", n)), Async(vdom.Comp(slow, vdom.AttrOf("n", n))))
	}}

	inst, note := s.Mount(app, nil, doc.Body())
	mustWait(t, note)
	if got, want := innerHTML(t, s, doc.Body()), "<div><p>0</p><span>0</span></div>"; got != want {
		t.Fatalf("body = %q, want %q", got, want)
	}

	mustWait(t, inst.Update(func() { n = 1 }))
	if got, want := innerHTML(t, s, doc.Body()), "<div><p>1</p><span>0</span></div>"; got != want {
		t.Errorf("body before async commit = %q, want %q", got, want)
	}

	close(gate)
	eventually(t, s, func() bool {
		return dom.InnerHTML(doc.Body()) == "<div><p>1</p><span>1</span></div>"
	})
}

func TestPlaceholderTransition(t *testing.T) {
	frames := &transition.ManualFrames{}
	s, doc := newTestScheduler(t, WithFrames(frames))

	show := true
	panel := &testComp{render: func(*Instance) *vdom.VNode { return vdom.Div(vdom.Class("panel"), "hi") }}
	app := &testComp{render: func(*Instance) *vdom.VNode {
		return vdom.Section(vdom.If(show, vdom.Comp(panel, vdom.Transition("fade"))))
	}}

	inst, note := s.Mount(app, nil, doc.Body())
	mustWait(t, note)

	var el *dom.Node
	onLoop(t, s, func() {
		el = inst.Children()[0].Element()
		if !dom.HasClass(el, "fade-enter") || !dom.HasClass(el, "fade-enter-active") {
			t.Errorf("class = %q, want enter classes", dom.ClassName(el))
		}
		doc.DispatchEvent(el, "transitionend")
		if got := dom.ClassName(el); got != "panel" {
			t.Errorf("class after enter = %q, want panel", got)
		}
	})

	mustWait(t, inst.Update(func() { show = false }))
	onLoop(t, s, func() {
		if !doc.Contains(el) {
			t.Fatal("leaving element detached before its transition ended")
		}
		if !dom.HasClass(el, "fade-leave-active") {
			t.Errorf("class = %q, want leave classes", dom.ClassName(el))
		}
	})

	frames.Flush()
	if err := s.Sync(); err != nil {
		t.Fatal(err)
	}
	onLoop(t, s, func() {
		if !dom.HasClass(el, "fade-leave-to") {
			t.Errorf("class = %q, want fade-leave-to", dom.ClassName(el))
		}
		doc.DispatchEvent(el, "transitionend")
	})
	if got := innerHTML(t, s, doc.Body()); got != "<section></section>" {
		t.Errorf("body = %q, want empty section", got)
	}
}

func TestCloseResolvesPendingRenders(t *testing.T) {
	s, doc := newTestScheduler(t)

	inst, note := s.Mount(&slowStart{gate: make(chan struct{})}, nil, doc.Body())
	if err := s.Sync(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if err := wait(t, note); !errors.Is(err, ErrSchedulerClosed) {
		t.Errorf("mount = %v, want ErrSchedulerClosed", err)
	}
	if err := wait(t, inst.Render(false)); !errors.Is(err, ErrSchedulerClosed) {
		t.Errorf("render after close = %v, want ErrSchedulerClosed", err)
	}
	if err := s.Do(func() {}); !errors.Is(err, ErrSchedulerClosed) {
		t.Errorf("Do after close = %v, want ErrSchedulerClosed", err)
	}
}

// watchStart blocks its WillStart until the scheduler context ends.
type watchStart struct {
	started chan struct{}
	stopped chan struct{}
}

func (c *watchStart) Render(*Instance) *vdom.VNode { return vdom.Span("never") }

func (c *watchStart) WillStart(ctx context.Context, _ *Instance) error {
	close(c.started)
	<-ctx.Done()
	close(c.stopped)
	return ctx.Err()
}

func TestCloseCancelsHookContext(t *testing.T) {
	s, doc := newTestScheduler(t)

	c := &watchStart{started: make(chan struct{}), stopped: make(chan struct{})}
	s.Mount(c, nil, doc.Body())
	select {
	case <-c.started:
	case <-time.After(5 * time.Second):
		t.Fatal("WillStart did not run")
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-c.stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not cancel the hook context")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestLoopSurvivesHandlerPanic(t *testing.T) {
	s, _ := newTestScheduler(t)

	s.Dispatch(func() { panic("handler") })
	ran := false
	onLoop(t, s, func() { ran = true })
	if !ran {
		t.Error("loop stopped after a panicking task")
	}
}

func TestSettleWaitsForHooks(t *testing.T) {
	s, doc := newTestScheduler(t)
	gate := make(chan struct{})
	s.Mount(&slowStart{gate: gate}, nil, doc.Body())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Settle(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Settle with a blocked hook = %v, want DeadlineExceeded", err)
	}

	close(gate)
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Settle(ctx); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if got := innerHTML(t, s, doc.Body()); got != "<span>slow</span>" {
		t.Errorf("body = %q", got)
	}
}
