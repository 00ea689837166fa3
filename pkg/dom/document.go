package dom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is a DOM node.
type Node = html.Node

// Node types used by callers that only import this package.
const (
	ElementNode = html.ElementNode
	TextNode    = html.TextNode
)

// DOM errors.
var (
	// ErrHierarchy is returned when an operation would produce an invalid tree
	// (inserting an attached node, a reference node under another parent, ...).
	ErrHierarchy = errors.New("dom: hierarchy request error")

	// ErrNotAttached is returned when a node expected to have a parent has none.
	ErrNotAttached = errors.New("dom: node is not attached")
)

// Document owns a node tree rooted at a body element and records every
// change made through it.
type Document struct {
	root *Node
	body *Node

	listeners map[*Node][]*listener

	observers     map[int]Observer
	observerOrder []int
	nextObserver  int
	batchDepth    int
	pending       []MutationRecord
	mutations     uint64
}

// NewDocument creates an empty document with an html/body skeleton.
func NewDocument() *Document {
	root := &Node{Type: html.DocumentNode}
	htmlEl := newElement("html")
	body := newElement("body")
	root.AppendChild(htmlEl)
	htmlEl.AppendChild(body)

	return &Document{
		root:      root,
		body:      body,
		listeners: make(map[*Node][]*listener),
		observers: make(map[int]Observer),
	}
}

// Body returns the body element.
func (d *Document) Body() *Node {
	return d.body
}

func newElement(tag string) *Node {
	return &Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) *Node {
	return newElement(strings.ToLower(tag))
}

// CreateText creates a detached text node.
func (d *Document) CreateText(text string) *Node {
	return &Node{Type: html.TextNode, Data: text}
}

// Contains reports whether n is attached to this document.
func (d *Document) Contains(n *Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// AppendChild appends node to parent.
func (d *Document) AppendChild(parent, node *Node) error {
	return d.InsertBefore(parent, node, nil)
}

// InsertBefore inserts a detached node into parent before the reference
// node, or at the end when before is nil.
func (d *Document) InsertBefore(parent, node, before *Node) error {
	if parent == nil || node == nil {
		return fmt.Errorf("%w: nil parent or node", ErrHierarchy)
	}
	if node.Parent != nil || node.PrevSibling != nil || node.NextSibling != nil {
		return fmt.Errorf("%w: node is already attached", ErrHierarchy)
	}
	if before != nil && before.Parent != parent {
		return fmt.Errorf("%w: reference node is not a child of parent", ErrHierarchy)
	}
	if isAncestor(node, parent) {
		return fmt.Errorf("%w: node is an ancestor of parent", ErrHierarchy)
	}

	parent.InsertBefore(node, before)

	rec := MutationRecord{Kind: MutationInsert, Node: node, Parent: parent, Before: before}
	if d.observing() {
		rec.ParentPath = d.Path(parent)
		rec.Index = childIndex(node)
		rec.HTML = OuterHTML(node)
		rec.Snapshot = Clone(node)
	}
	d.record(rec)
	return nil
}

// Move repositions an attached node under parent before the reference node.
// Listeners and descendants are preserved. Moving a node to the position it
// already occupies records nothing.
func (d *Document) Move(parent, node, before *Node) error {
	if parent == nil || node == nil {
		return fmt.Errorf("%w: nil parent or node", ErrHierarchy)
	}
	if node.Parent == nil {
		return ErrNotAttached
	}
	if before == node {
		return nil
	}
	if before != nil && before.Parent != parent {
		return fmt.Errorf("%w: reference node is not a child of parent", ErrHierarchy)
	}
	if isAncestor(node, parent) {
		return fmt.Errorf("%w: node is an ancestor of parent", ErrHierarchy)
	}
	if node.Parent == parent && node.NextSibling == before {
		return nil
	}

	var from []int
	if d.observing() {
		from = d.Path(node)
	}

	node.Parent.RemoveChild(node)
	parent.InsertBefore(node, before)

	rec := MutationRecord{Kind: MutationMove, Node: node, Parent: parent, Before: before}
	if d.observing() {
		rec.Path = from
		rec.ParentPath = d.Path(parent)
		rec.Index = childIndex(node)
	}
	d.record(rec)
	return nil
}

// Remove detaches node from its parent and drops every listener registered
// on it or its descendants.
func (d *Document) Remove(node *Node) error {
	if node == nil {
		return fmt.Errorf("%w: nil node", ErrHierarchy)
	}
	parent := node.Parent
	if parent == nil {
		return ErrNotAttached
	}

	var path []int
	if d.observing() {
		path = d.Path(node)
	}

	parent.RemoveChild(node)
	d.dropListeners(node)

	d.record(MutationRecord{Kind: MutationRemove, Node: node, Parent: parent, Path: path})
	return nil
}

// SetAttr sets an attribute on an element. Setting an attribute to its
// current value records nothing.
func (d *Document) SetAttr(n *Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			if n.Attr[i].Val == value {
				return
			}
			n.Attr[i].Val = value
			d.recordAttr(MutationSetAttr, n, key, value)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
	d.recordAttr(MutationSetAttr, n, key, value)
}

// RemoveAttr removes an attribute. Removing a missing attribute records
// nothing.
func (d *Document) RemoveAttr(n *Node, key string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			d.recordAttr(MutationRemoveAttr, n, key, "")
			return
		}
	}
}

// SetText replaces the content of a text node.
func (d *Document) SetText(n *Node, text string) {
	if n.Data == text {
		return
	}
	n.Data = text
	rec := MutationRecord{Kind: MutationSetText, Node: n, Value: text}
	if d.observing() {
		rec.Path = d.Path(n)
	}
	d.record(rec)
}

func (d *Document) recordAttr(kind MutationKind, n *Node, key, value string) {
	rec := MutationRecord{Kind: kind, Node: n, Attr: key, Value: value}
	if d.observing() {
		rec.Path = d.Path(n)
	}
	d.record(rec)
}

// Attr returns the value of an attribute.
func Attr(n *Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Path returns the child indices leading from the body to n. It returns nil
// for nodes outside the body.
func (d *Document) Path(n *Node) []int {
	var rev []int
	for p := n; p != d.body; p = p.Parent {
		if p == nil || p.Parent == nil {
			return nil
		}
		rev = append(rev, childIndex(p))
	}
	path := make([]int, len(rev))
	for i, idx := range rev {
		path[len(rev)-1-i] = idx
	}
	return path
}

// NodeAt resolves a path produced by Path.
func (d *Document) NodeAt(path []int) *Node {
	n := d.body
	for _, idx := range path {
		c := n.FirstChild
		for i := 0; c != nil && i < idx; i++ {
			c = c.NextSibling
		}
		if c == nil {
			return nil
		}
		n = c
	}
	return n
}

func childIndex(n *Node) int {
	i := 0
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		i++
	}
	return i
}

// isAncestor reports whether a is p or an ancestor of p.
func isAncestor(a, p *Node) bool {
	for n := p; n != nil; n = n.Parent {
		if n == a {
			return true
		}
	}
	return false
}

// Clone returns a detached deep copy of n. Listeners are not copied.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// Children returns the child nodes of n.
func Children(n *Node) []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ElementChildren returns the element children of n.
func ElementChildren(n *Node) []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}
