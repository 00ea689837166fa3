package dom

// Event is a DOM event being dispatched.
type Event struct {
	Type          string
	Target        *Node
	CurrentTarget *Node

	// Value carries an optional payload (input value, key name, ...).
	Value string

	stopped bool
}

// StopPropagation prevents the event from reaching further ancestors.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// Stopped reports whether StopPropagation was called.
func (e *Event) Stopped() bool {
	return e.stopped
}

// Listener handles an event.
type Listener func(e *Event)

type listener struct {
	typ     string
	fn      Listener
	removed bool
}

// AddEventListener registers fn for events of type typ on n. The returned
// function removes the listener; calling it more than once is harmless.
func (d *Document) AddEventListener(n *Node, typ string, fn Listener) (remove func()) {
	l := &listener{typ: typ, fn: fn}
	d.listeners[n] = append(d.listeners[n], l)
	return func() {
		if l.removed {
			return
		}
		l.removed = true
		list := d.listeners[n]
		for i, x := range list {
			if x == l {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(d.listeners, n)
		} else {
			d.listeners[n] = list
		}
	}
}

// DispatchEvent dispatches an event of type typ at target. Listeners on the
// target run first, then the event bubbles to ancestors.
func (d *Document) DispatchEvent(target *Node, typ string) *Event {
	return d.DispatchEventValue(target, typ, "")
}

// DispatchEventValue is DispatchEvent with a payload value.
func (d *Document) DispatchEventValue(target *Node, typ, value string) *Event {
	ev := &Event{Type: typ, Target: target, Value: value}
	for n := target; n != nil; n = n.Parent {
		list := d.listeners[n]
		if len(list) == 0 {
			continue
		}
		ev.CurrentTarget = n
		// Listeners added during dispatch do not run for this event.
		snapshot := append([]*listener(nil), list...)
		for _, l := range snapshot {
			if l.removed || l.typ != typ {
				continue
			}
			l.fn(ev)
		}
		if ev.stopped {
			break
		}
	}
	return ev
}

// ListenerCount returns the number of listeners registered on n, or on the
// whole document when n is nil.
func (d *Document) ListenerCount(n *Node) int {
	if n != nil {
		return len(d.listeners[n])
	}
	total := 0
	for _, list := range d.listeners {
		total += len(list)
	}
	return total
}

func (d *Document) dropListeners(n *Node) {
	if len(d.listeners) == 0 {
		return
	}
	if list, ok := d.listeners[n]; ok {
		for _, l := range list {
			l.removed = true
		}
		delete(d.listeners, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.dropListeners(c)
	}
}
