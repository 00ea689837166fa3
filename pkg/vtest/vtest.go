package vtest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/fiber"
	"github.com/vango-dev/fibre/pkg/transition"
	"github.com/vango-dev/fibre/pkg/vdom"
)

// Timeout bounds every wait of a Harness.
var Timeout = 5 * time.Second

type options struct {
	props vdom.Props
	sched []fiber.Option
}

// Option configures Mount.
type Option func(*options)

// WithProps sets the props of the mounted component.
func WithProps(p vdom.Props) Option {
	return func(o *options) {
		o.props = p
	}
}

// WithFrames drives transitions with frames.
func WithFrames(f transition.Frames) Option {
	return func(o *options) {
		o.sched = append(o.sched, fiber.WithFrames(f))
	}
}

// WithSchedulerOptions passes options to the scheduler.
func WithSchedulerOptions(opts ...fiber.Option) Option {
	return func(o *options) {
		o.sched = append(o.sched, opts...)
	}
}

// Harness is a component mounted on its own scheduler.
type Harness struct {
	t        testing.TB
	Sched    *fiber.Scheduler
	Doc      *dom.Document
	Instance *fiber.Instance
}

// Mount renders c into the body of a fresh document and waits for the
// first commit and any render it triggered. The scheduler is closed when
// the test ends.
//
// Example:
//
//	h := vtest.Mount(t, &TodoList{}, vtest.WithProps(vdom.Props{"title": "Today"}))
func Mount(t testing.TB, c fiber.Component, opts ...Option) *Harness {
	t.Helper()
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	doc := dom.NewDocument()
	sched := fiber.NewScheduler(doc, append([]fiber.Option{fiber.WithLogger(logger)}, o.sched...)...)
	t.Cleanup(func() { sched.Close() })

	h := &Harness{t: t, Sched: sched, Doc: doc}
	inst, note := sched.Mount(c, o.props, doc.Body())
	h.Instance = inst
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	if err := note.Wait(ctx); err != nil {
		t.Fatalf("mount %s: %v", inst.Name(), err)
	}
	h.Settle()
	return h
}

// Settle waits until no render is pending.
func (h *Harness) Settle() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	if err := h.Sched.Settle(ctx); err != nil {
		h.t.Fatalf("settle: %v", err)
	}
}

// Do runs fn on the scheduler loop.
func (h *Harness) Do(fn func()) {
	h.t.Helper()
	if err := h.Sched.Do(fn); err != nil {
		h.t.Fatalf("do: %v", err)
	}
}

// Find returns the first node matching the XPath expression, or nil. The
// node must only be read on the loop.
func (h *Harness) Find(expr string) *dom.Node {
	h.t.Helper()
	var (
		n   *dom.Node
		err error
	)
	h.Do(func() { n, err = dom.Query(h.Doc.Body(), expr) })
	if err != nil {
		h.t.Fatalf("query %s: %v", expr, err)
	}
	return n
}

// Dispatch fires an event of type typ with value at the first node
// matching expr, then waits for the renders it caused.
func (h *Harness) Dispatch(expr, typ, value string) {
	h.t.Helper()
	n := h.Find(expr)
	if n == nil {
		h.t.Fatalf("no node matches %s", expr)
	}
	h.Do(func() { h.Doc.DispatchEventValue(n, typ, value) })
	h.Settle()
}

// Click dispatches a click.
func (h *Harness) Click(expr string) {
	h.t.Helper()
	h.Dispatch(expr, "click", "")
}

// Input dispatches an input event carrying value.
func (h *Harness) Input(expr, value string) {
	h.t.Helper()
	h.Dispatch(expr, "input", value)
}

// Submit dispatches a submit event.
func (h *Harness) Submit(expr string) {
	h.t.Helper()
	h.Dispatch(expr, "submit", "")
}

// HTML returns the serialized body.
func (h *Harness) HTML() string {
	h.t.Helper()
	var out string
	h.Do(func() { out = dom.InnerHTML(h.Doc.Body()) })
	return out
}

// Texts returns the text content of every node matching expr.
func (h *Harness) Texts(expr string) []string {
	h.t.Helper()
	var (
		out []string
		err error
	)
	h.Do(func() {
		var nodes []*dom.Node
		nodes, err = dom.QueryAll(h.Doc.Body(), expr)
		for _, n := range nodes {
			out = append(out, dom.TextContent(n))
		}
	})
	if err != nil {
		h.t.Fatalf("query %s: %v", expr, err)
	}
	return out
}

// ExpectClass asserts the class attribute of the first node matching expr.
func (h *Harness) ExpectClass(expr, want string) {
	h.t.Helper()
	n := h.Find(expr)
	if n == nil {
		h.t.Errorf("no node matches %s", expr)
		return
	}
	var got string
	h.Do(func() { got = dom.ClassName(n) })
	if got != want {
		h.t.Errorf("class of %s = %q, want %q", expr, got, want)
	}
}

// ExpectContains asserts that the body contains expected.
//
// Example:
//
//	h.ExpectContains("Welcome Admin")
func (h *Harness) ExpectContains(expected string) {
	h.t.Helper()
	if html := h.HTML(); !strings.Contains(html, expected) {
		h.t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the body does not contain unexpected.
func (h *Harness) ExpectNotContains(unexpected string) {
	h.t.Helper()
	if html := h.HTML(); strings.Contains(html, unexpected) {
		h.t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that the body contains a tag.
func (h *Harness) ExpectElement(tag string) {
	h.t.Helper()
	if html := h.HTML(); !strings.Contains(html, "<"+tag) {
		h.t.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that the body contains an attribute value.
func (h *Harness) ExpectAttribute(attr, value string) {
	h.t.Helper()
	needle := attr + `="` + value + `"`
	if html := h.HTML(); !strings.Contains(html, needle) {
		h.t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

// RenderToString mounts c into a fresh document and returns the body once
// every render has settled.
func RenderToString(ctx context.Context, c fiber.Component, props vdom.Props) (string, error) {
	doc := dom.NewDocument()
	sched := fiber.NewScheduler(doc, fiber.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer sched.Close()

	_, note := sched.Mount(c, props, doc.Body())
	if err := note.Wait(ctx); err != nil {
		return "", err
	}
	if err := sched.Settle(ctx); err != nil {
		return "", err
	}
	var html string
	err := sched.Do(func() { html = dom.InnerHTML(doc.Body()) })
	return html, err
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
