package vdom

// On binds handler to events of type name. The handler is stored in the
// "on"+name prop and is never rendered as an attribute.
//
// Handlers are func() or func(*dom.Event).
func On(name string, handler any) EventHandler {
	return EventHandler{Event: "on" + name, Handler: handler}
}

func OnClick(handler any) EventHandler  { return On("click", handler) }
func OnInput(handler any) EventHandler  { return On("input", handler) }
func OnSubmit(handler any) EventHandler { return On("submit", handler) }

// OnTransitionEnd fires once a CSS transition on the node completes.
func OnTransitionEnd(handler any) EventHandler { return On("transitionend", handler) }
