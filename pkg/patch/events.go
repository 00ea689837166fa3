package patch

import (
	"slices"

	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/vdom"
)

// binding is the slot behind the single DOM listener a node has for one
// event type. Changing the handler only swaps the slot.
type binding struct {
	handler any
	remove  func()
}

func (b *binding) dispatch(e *dom.Event) {
	switch h := b.handler.(type) {
	case func():
		h()
	case func(*dom.Event):
		h(e)
	case dom.Listener:
		h(e)
	}
}

func (p *Patcher) bindEvents(m *Mounted, v *vdom.VNode) {
	handlers := v.Handlers()

	for _, typ := range sortedKeys(m.bindings) {
		if _, ok := handlers[typ]; !ok {
			m.bindings[typ].remove()
			delete(m.bindings, typ)
		}
	}

	for _, typ := range sortedKeys(handlers) {
		if b, ok := m.bindings[typ]; ok {
			b.handler = handlers[typ]
			continue
		}
		if m.bindings == nil {
			m.bindings = make(map[string]*binding)
		}
		b := &binding{handler: handlers[typ]}
		b.remove = p.doc.AddEventListener(m.Node, typ, b.dispatch)
		m.bindings[typ] = b
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
