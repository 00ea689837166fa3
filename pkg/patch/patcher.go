package patch

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/vdom"
)

// Patcher applies virtual trees to a document.
type Patcher struct {
	doc    *dom.Document
	ops    Ops
	host   Host
	logger *slog.Logger
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithOps routes structural operations through ops instead of applying them
// to the document directly.
func WithOps(ops Ops) Option {
	return func(p *Patcher) {
		if ops != nil {
			p.ops = ops
		}
	}
}

// WithHost sets the host that resolves component placeholders.
func WithHost(h Host) Option {
	return func(p *Patcher) {
		p.host = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Patcher) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Patcher writing to doc.
func New(doc *dom.Document, opts ...Option) *Patcher {
	p := &Patcher{
		doc:    doc,
		ops:    DirectOps{Doc: doc},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Document returns the document the patcher writes to.
func (p *Patcher) Document() *dom.Document {
	return p.doc
}

// WithHost returns a copy of p that resolves placeholders through h.
func (p *Patcher) WithHost(h Host) *Patcher {
	cp := *p
	cp.host = h
	return &cp
}

// Apply moves the contents of container from the tree recorded by old to v.
// A nil old mounts v; a nil v unmounts old.
func (p *Patcher) Apply(container *dom.Node, old *Mounted, v *vdom.VNode) (*Mounted, error) {
	switch {
	case old == nil && v == nil:
		return nil, nil
	case old == nil:
		return p.Mount(container, nil, v)
	case v == nil:
		return nil, p.Unmount(old)
	default:
		return p.Patch(old, v)
	}
}

// Mount renders v under parent before the reference node (nil = append).
// A nil v mounts an empty fragment.
func (p *Patcher) Mount(parent, before *dom.Node, v *vdom.VNode) (*Mounted, error) {
	return p.mount(parent, before, orEmpty(v), nil)
}

// MountAs is Mount for the root of a component placeholder. A transition on
// the placeholder applies to the root node.
func (p *Patcher) MountAs(parent, before *dom.Node, v *vdom.VNode, as Target) (*Mounted, error) {
	as.Component = true
	return p.mount(parent, before, orEmpty(v), &as)
}

// Patch updates the DOM recorded by m to match v. It returns the record to
// use from now on, which differs from m when the node had to be replaced.
func (p *Patcher) Patch(m *Mounted, v *vdom.VNode) (*Mounted, error) {
	v = orEmpty(v)
	if m == nil {
		return nil, opError("patch", targetOf(v), ErrMissingNode)
	}
	same, err := p.sameType(m, v)
	if err != nil {
		return nil, err
	}
	if !same {
		return p.replace(m, v)
	}
	if err := p.update(m, v); err != nil {
		return nil, err
	}
	return m, nil
}

// Unmount tears down the components inside m and removes its nodes.
func (p *Patcher) Unmount(m *Mounted) error {
	if m == nil {
		return nil
	}
	p.Teardown(m)
	return p.detach(m, nil)
}

// Teardown unmounts every component placeholder inside m without touching
// the DOM.
func (p *Patcher) Teardown(m *Mounted) {
	if m == nil {
		return
	}
	if m.VNode.Kind == vdom.KindComponent {
		if p.host != nil && m.Child != nil {
			p.host.UnmountChild(p, m.Child)
		}
		return
	}
	for _, c := range m.Children {
		p.Teardown(c)
	}
}

func (p *Patcher) mount(parent, before *dom.Node, v *vdom.VNode, as *Target) (*Mounted, error) {
	t := placed(targetOf(v), as)

	switch v.Kind {
	case vdom.KindText:
		m := &Mounted{VNode: v, Node: p.doc.CreateText(v.Text)}
		if err := p.ops.Insert(parent, m.Node, before, t); err != nil {
			return nil, opError("insert", t, err)
		}
		return m, nil

	case vdom.KindElement:
		if t.Transition != "" && !t.Component {
			if m := p.ops.Reclaim(parent, t); m != nil {
				return p.reuse(m, parent, before, v, t)
			}
		}
		m := &Mounted{VNode: v, Node: p.doc.CreateElement(v.Tag)}
		p.patchAttrs(m.Node, nil, v)
		p.bindEvents(m, v)
		if err := p.ops.Insert(parent, m.Node, before, t); err != nil {
			return nil, opError("insert", t, err)
		}
		for _, c := range v.Children {
			if c == nil {
				continue
			}
			cm, err := p.mount(m.Node, nil, c, nil)
			if err != nil {
				return nil, err
			}
			m.Children = append(m.Children, cm)
		}
		return m, nil

	case vdom.KindFragment:
		m := &Mounted{VNode: v, Node: p.doc.CreateText("")}
		if err := p.ops.Insert(parent, m.Node, before, Target{}); err != nil {
			return nil, opError("insert", t, err)
		}
		for _, c := range v.Children {
			if c == nil {
				continue
			}
			cm, err := p.mount(parent, m.Node, c, nil)
			if err != nil {
				return nil, err
			}
			m.Children = append(m.Children, cm)
		}
		return m, nil

	case vdom.KindComponent:
		if p.host == nil {
			return nil, opError("mount", t, ErrNoHost)
		}
		c, err := p.host.Resolve(v)
		if err != nil {
			return nil, opError("mount", t, err)
		}
		slot := Target{Key: v.Key, Transition: v.Transition, Component: true}
		if err := p.host.MountChild(p, c, parent, before, slot); err != nil {
			return nil, err
		}
		return &Mounted{VNode: v, Child: c}, nil
	}

	return nil, opError("mount", t, fmt.Errorf("unknown node kind %v", v.Kind))
}

// reuse puts a reclaimed leaving node back in place and patches it to v.
func (p *Patcher) reuse(m *Mounted, parent, before *dom.Node, v *vdom.VNode, t Target) (*Mounted, error) {
	if err := p.ops.Move(parent, m.Node, before, t); err != nil {
		return nil, opError("move", t, err)
	}
	if err := p.patchElement(m, v); err != nil {
		return nil, err
	}
	p.logger.Debug("reclaimed leaving node", "tag", v.Tag, "key", v.Key, "transition", t.Transition)
	return m, nil
}

func (p *Patcher) replace(m *Mounted, v *vdom.VNode) (*Mounted, error) {
	first := m.First()
	if first == nil || first.Parent == nil {
		return nil, opError("patch", targetOf(m.VNode), ErrMissingNode)
	}
	nm, err := p.mount(first.Parent, first, v, nil)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("replaced node",
		"from", m.VNode.Kind.String(), "from_tag", m.VNode.Tag,
		"to", v.Kind.String(), "to_tag", v.Tag)
	if err := p.Unmount(m); err != nil {
		return nil, err
	}
	return nm, nil
}

func (p *Patcher) sameType(m *Mounted, v *vdom.VNode) (bool, error) {
	if m.VNode.Kind != v.Kind {
		return false, nil
	}
	switch v.Kind {
	case vdom.KindElement:
		return m.VNode.Tag == v.Tag, nil
	case vdom.KindComponent:
		if p.host == nil {
			return false, opError("patch", targetOf(v), ErrNoHost)
		}
		c, err := p.host.Resolve(v)
		if err != nil {
			return false, opError("patch", targetOf(v), err)
		}
		return c == m.Child, nil
	}
	return true, nil
}

// update patches m in place; m and v have the same type.
func (p *Patcher) update(m *Mounted, v *vdom.VNode) error {
	switch v.Kind {
	case vdom.KindText:
		if m.Node == nil {
			return opError("patch", targetOf(v), ErrMissingNode)
		}
		if m.VNode.Text != v.Text {
			p.doc.SetText(m.Node, v.Text)
		}
		m.VNode = v
		return nil

	case vdom.KindElement:
		return p.patchElement(m, v)

	case vdom.KindFragment:
		if m.Node == nil || m.Node.Parent == nil {
			return opError("patch", targetOf(v), ErrMissingNode)
		}
		kids, err := p.patchChildren(m.Node.Parent, m.Node, m.Children, v.Children)
		if err != nil {
			return err
		}
		m.Children = kids
		m.VNode = v
		return nil

	case vdom.KindComponent:
		m.VNode = v
		return p.host.UpdateChild(p, m.Child)
	}
	return nil
}

func (p *Patcher) patchElement(m *Mounted, v *vdom.VNode) error {
	if m.Node == nil {
		return opError("patch", targetOf(v), ErrMissingNode)
	}
	p.patchAttrs(m.Node, m.VNode, v)
	p.bindEvents(m, v)
	kids, err := p.patchChildren(m.Node, nil, m.Children, v.Children)
	if err != nil {
		return err
	}
	m.Children = kids
	m.VNode = v
	return nil
}

// detach removes the nodes of m. as describes the enclosing placeholder
// when m is a component root.
func (p *Patcher) detach(m *Mounted, as *Target) error {
	switch m.VNode.Kind {
	case vdom.KindFragment:
		for _, c := range m.Children {
			if err := p.detach(c, nil); err != nil {
				return err
			}
		}
		if m.Node != nil && m.Node.Parent != nil {
			if err := p.ops.Remove(m.Node, Target{}, nil); err != nil {
				return opError("remove", Target{}, err)
			}
		}
		return nil

	case vdom.KindComponent:
		if m.Child == nil || m.Child.Root() == nil {
			return nil
		}
		return p.detach(m.Child.Root(), &Target{Key: m.VNode.Key, Transition: m.VNode.Transition})

	default:
		if m.Node == nil || m.Node.Parent == nil {
			return nil
		}
		t := placed(targetOf(m.VNode), as)
		if err := p.ops.Remove(m.Node, t, m); err != nil {
			return opError("remove", t, err)
		}
		return nil
	}
}

func (p *Patcher) patchAttrs(n *dom.Node, old, next *vdom.VNode) {
	prev := attrValues(old)
	cur := attrValues(next)

	for _, k := range sortedKeys(prev) {
		if _, ok := cur[k]; ok {
			continue
		}
		if k == "class" {
			if kept := p.keptClasses(n); len(kept) > 0 {
				p.doc.SetAttr(n, "class", strings.Join(kept, " "))
				continue
			}
		}
		p.doc.RemoveAttr(n, k)
	}

	for _, k := range sortedKeys(cur) {
		val := cur[k]
		if pv, ok := prev[k]; ok && pv == val {
			continue
		}
		if k == "class" {
			val = p.withKeptClasses(n, val)
		}
		p.doc.SetAttr(n, k, val)
	}
}

func (p *Patcher) keptClasses(n *dom.Node) []string {
	if ck, ok := p.ops.(ClassKeeper); ok {
		return ck.KeptClasses(n)
	}
	return nil
}

func (p *Patcher) withKeptClasses(n *dom.Node, class string) string {
	kept := p.keptClasses(n)
	if len(kept) == 0 {
		return class
	}
	tokens := strings.Fields(class)
	for _, k := range kept {
		if !slices.Contains(tokens, k) {
			tokens = append(tokens, k)
		}
	}
	return strings.Join(tokens, " ")
}

func attrValues(v *vdom.VNode) map[string]string {
	if v == nil {
		return nil
	}
	out := make(map[string]string, len(v.Props))
	for k, val := range v.Props {
		if vdom.IsEventKey(k) {
			continue
		}
		if s, ok := vdom.AttrString(val); ok {
			out[k] = s
		}
	}
	return out
}

// placed applies the placeholder description as to t.
func placed(t Target, as *Target) Target {
	if as == nil {
		return t
	}
	t.Key = as.Key
	t.Component = true
	if as.Transition != "" {
		t.Transition = as.Transition
	}
	return t
}

func orEmpty(v *vdom.VNode) *vdom.VNode {
	if v == nil {
		return &vdom.VNode{Kind: vdom.KindFragment}
	}
	return v
}
