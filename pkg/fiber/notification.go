package fiber

import "context"

// Notification reports the outcome of a render request. It resolves once
// the render that satisfies the request has been committed, or with the
// error that prevented it.
type Notification struct {
	done     chan struct{}
	err      error
	resolved bool
	then     []func(error)
}

func newNotification() *Notification {
	return &Notification{done: make(chan struct{})}
}

func resolved(err error) *Notification {
	n := newNotification()
	n.resolve(err)
	return n
}

// Done returns a channel closed when the notification resolves.
func (n *Notification) Done() <-chan struct{} {
	return n.done
}

// Err returns the outcome once Done is closed, nil before.
func (n *Notification) Err() error {
	select {
	case <-n.done:
		return n.err
	default:
		return nil
	}
}

// Wait blocks until the notification resolves or ctx ends. It must not be
// called from the scheduler loop.
func (n *Notification) Wait(ctx context.Context) error {
	select {
	case <-n.done:
		return n.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolve settles the notification once. Later calls are ignored.
func (n *Notification) resolve(err error) {
	if n.resolved {
		return
	}
	n.resolved = true
	n.err = err
	close(n.done)
	then := n.then
	n.then = nil
	for _, fn := range then {
		fn(err)
	}
}

// onResolve runs fn when the notification resolves, or right away if it
// already has.
func (n *Notification) onResolve(fn func(error)) {
	if n.resolved {
		fn(n.err)
		return
	}
	n.then = append(n.then, fn)
}

func resolveAll(notes []*Notification, err error) {
	for _, n := range notes {
		n.resolve(err)
	}
}
