package fiber

import (
	"context"
	"reflect"
	"runtime"
	"strings"

	"github.com/vango-dev/fibre/pkg/vdom"
)

// Component renders a virtual tree from the state of an instance.
//
// Render runs on the scheduler loop. It must not block: work that waits on
// I/O belongs in WillStart or WillUpdateProps, which run on their own
// goroutine.
type Component interface {
	Render(inst *Instance) *vdom.VNode
}

// Func adapts a plain function to Component.
type Func func(inst *Instance) *vdom.VNode

// Render calls f.
func (f Func) Render(inst *Instance) *vdom.VNode {
	return f(inst)
}

// Setuper is implemented by components that prepare an instance once, when
// it is created. Setup is the place to register hooks and initial State.
type Setuper interface {
	Setup(inst *Instance)
}

// WillStarter is implemented by components that load data before their
// first render. The render waits for WillStart to return; an error fails it.
type WillStarter interface {
	WillStart(ctx context.Context, inst *Instance) error
}

// WillUpdater is implemented by components that react to new props before
// a parent-driven render. next holds the props about to be applied.
type WillUpdater interface {
	WillUpdateProps(ctx context.Context, inst *Instance, next vdom.Props) error
}

// ErrorBoundary is implemented by components that handle render failures of
// their descendants. CatchError runs on the loop; the boundary is rendered
// again right after it returns, usually showing a fallback.
type ErrorBoundary interface {
	CatchError(inst *Instance, err error)
}

// asyncRoot renders its content prop. It owns its render schedule: parents
// never wait for it after the first mount.
type asyncRoot struct{}

func (asyncRoot) Render(inst *Instance) *vdom.VNode {
	v, _ := inst.Props()["content"].(*vdom.VNode)
	return v
}

// Async wraps content in a component that renders independently of its
// parent. After it has been mounted, a parent render requests a render of
// the wrapper and commits without waiting for it, so slow subtrees do not
// hold back the rest of the page. Extra arguments are passed to vdom.Comp.
func Async(content *vdom.VNode, args ...any) *vdom.VNode {
	return vdom.Comp(asyncRoot{}, append([]any{vdom.AttrOf("content", content)}, args...)...)
}

func isAsync(c Component) bool {
	_, ok := c.(asyncRoot)
	return ok
}

// sameComponent reports whether a and b render with the same code. Func
// values compare by function pointer, everything else by dynamic type.
func sameComponent(a, b Component) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	return true
}

// componentName returns a short readable name for logs and errors.
func componentName(c Component) string {
	t := reflect.TypeOf(c)
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Func {
		if fn := runtime.FuncForPC(reflect.ValueOf(c).Pointer()); fn != nil {
			name := fn.Name()
			if i := strings.LastIndex(name, "/"); i >= 0 {
				name = name[i+1:]
			}
			return name
		}
	}
	if isAsync(c) {
		return "Async"
	}
	return strings.TrimPrefix(t.String(), "*")
}
