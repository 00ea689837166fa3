package patch

import "github.com/vango-dev/fibre/pkg/dom"

// Target describes the virtual node behind a structural operation.
type Target struct {
	Key        string
	Tag        string // Element tag; "" for text nodes and anchors
	Transition string // Transition name; "" = none
	Component  bool   // Node is the root of a component placeholder
}

// Ops performs the structural DOM operations of a patch.
type Ops interface {
	// Insert attaches a detached node under parent before the reference
	// node (nil = append).
	Insert(parent, node, before *dom.Node, t Target) error

	// Remove detaches node. Implementations may keep it attached for a
	// while; m is the mounted record the node belonged to.
	Remove(node *dom.Node, t Target, m *Mounted) error

	// Move repositions an attached node.
	Move(parent, node, before *dom.Node, t Target) error

	// Reclaim returns the record of a node passed to Remove that is still
	// attached under parent and matches t, cancelling its removal. It
	// returns nil when there is none.
	Reclaim(parent *dom.Node, t Target) *Mounted
}

// ClassKeeper is implemented by Ops that add classes of their own to nodes.
// When the patcher rewrites a class attribute it preserves these classes.
type ClassKeeper interface {
	KeptClasses(node *dom.Node) []string
}

// DirectOps applies every operation to the document immediately.
type DirectOps struct {
	Doc *dom.Document
}

func (o DirectOps) Insert(parent, node, before *dom.Node, _ Target) error {
	return o.Doc.InsertBefore(parent, node, before)
}

func (o DirectOps) Remove(node *dom.Node, _ Target, _ *Mounted) error {
	return o.Doc.Remove(node)
}

func (o DirectOps) Move(parent, node, before *dom.Node, _ Target) error {
	return o.Doc.Move(parent, node, before)
}

func (o DirectOps) Reclaim(*dom.Node, Target) *Mounted {
	return nil
}
