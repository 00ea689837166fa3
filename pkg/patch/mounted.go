package patch

import (
	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/vdom"
)

// Mounted records a virtual node rendered into the DOM.
//
// Element and text records own one node. A fragment owns its children plus
// an empty text node that marks its end. A component placeholder owns
// whatever its Child has mounted.
type Mounted struct {
	VNode    *vdom.VNode
	Node     *dom.Node  // Element or text node; fragment end anchor
	Children []*Mounted // Element and fragment children
	Child    Child      // Component placeholders only

	bindings map[string]*binding
}

// Child is a component instance mounted at a placeholder.
type Child interface {
	// Root returns the mounted tree of the component, nil before mount.
	Root() *Mounted
}

// Host binds component placeholders to component instances.
type Host interface {
	// Resolve returns the instance the current render bound to placeholder v.
	Resolve(v *vdom.VNode) (Child, error)

	// MountChild renders c under parent before the reference node. as
	// describes the placeholder (key, transition).
	MountChild(p *Patcher, c Child, parent, before *dom.Node, as Target) error

	// UpdateChild brings a reused child up to date. It must not move the
	// child's nodes.
	UpdateChild(p *Patcher, c Child) error

	// UnmountChild runs the teardown of c and its descendants. The patcher
	// removes c's nodes afterwards. Calling it twice for the same child
	// must be harmless.
	UnmountChild(p *Patcher, c Child)
}

// Nodes returns the top-level DOM nodes owned by m, in document order.
func (m *Mounted) Nodes() []*dom.Node {
	if m == nil {
		return nil
	}
	switch m.VNode.Kind {
	case vdom.KindFragment:
		var out []*dom.Node
		for _, c := range m.Children {
			out = append(out, c.Nodes()...)
		}
		if m.Node != nil {
			out = append(out, m.Node)
		}
		return out
	case vdom.KindComponent:
		if m.Child == nil {
			return nil
		}
		return m.Child.Root().Nodes()
	default:
		if m.Node == nil {
			return nil
		}
		return []*dom.Node{m.Node}
	}
}

// First returns the first DOM node owned by m.
func (m *Mounted) First() *dom.Node {
	if m == nil {
		return nil
	}
	switch m.VNode.Kind {
	case vdom.KindFragment:
		for _, c := range m.Children {
			if n := c.First(); n != nil {
				return n
			}
		}
		return m.Node
	case vdom.KindComponent:
		if m.Child == nil {
			return nil
		}
		return m.Child.Root().First()
	default:
		return m.Node
	}
}

// Element returns the element of the record, or of the component root for
// placeholders. It returns nil for text nodes and fragments.
func (m *Mounted) Element() *dom.Node {
	for m != nil {
		switch m.VNode.Kind {
		case vdom.KindElement:
			return m.Node
		case vdom.KindComponent:
			if m.Child == nil {
				return nil
			}
			m = m.Child.Root()
		default:
			return nil
		}
	}
	return nil
}

func targetOf(v *vdom.VNode) Target {
	return Target{Key: v.Key, Tag: v.Tag, Transition: v.Transition}
}
