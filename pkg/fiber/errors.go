package fiber

import (
	"errors"
	"fmt"
)

var (
	// ErrDestroyed is reported when a render is requested on an unmounted
	// instance.
	ErrDestroyed = errors.New("fiber: instance destroyed")

	// ErrSchedulerClosed is reported for work submitted after Close, and for
	// renders still pending when the scheduler stops.
	ErrSchedulerClosed = errors.New("fiber: scheduler closed")

	// ErrNotComponent is reported when a placeholder holds a value that does
	// not implement Component.
	ErrNotComponent = errors.New("fiber: placeholder is not a component")

	// ErrUnbound is reported when the patcher meets a placeholder the render
	// did not bind to an instance.
	ErrUnbound = errors.New("fiber: unbound placeholder")
)

// RenderError wraps a failure raised while rendering or preparing a
// component: a recovered panic or an error returned by a WillStart or
// WillUpdateProps hook.
type RenderError struct {
	Component string
	Panic     any    // Recovered value; nil for returned errors
	Stack     []byte // Stack of the recovered panic
	Err       error
}

func (e *RenderError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("fiber: render %s: panic: %v", e.Component, e.Panic)
	}
	return fmt.Sprintf("fiber: render %s: %v", e.Component, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// renderError wraps err for inst unless it already is a RenderError.
func renderError(inst *Instance, err error) *RenderError {
	var re *RenderError
	if errors.As(err, &re) {
		return re
	}
	return &RenderError{Component: inst.Name(), Err: err}
}
