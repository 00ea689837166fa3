package protocol

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/fibre/pkg/dom"
)

// Mutation errors.
var (
	ErrInvalidMutation = errors.New("protocol: invalid mutation")
	ErrPathNotFound    = errors.New("protocol: path does not resolve")
)

// Node tree tags.
const (
	treeElement byte = 0x01
	treeText    byte = 0x02
)

// Mutation is the wire form of a dom.MutationRecord.
//
// Paths are relative to the body element. Node is set for inserts only and
// holds a detached copy of the inserted subtree.
type Mutation struct {
	Kind       dom.MutationKind
	Path       []int
	ParentPath []int
	Index      int
	Attr       string
	Value      string
	Node       *dom.Node
}

// MutationsFrame is one batch of mutations, in the order they were made.
type MutationsFrame struct {
	Seq       uint64
	Mutations []Mutation
}

// FromRecords converts observed records to mutations. Records must come
// from an observer, which fills their paths.
func FromRecords(records []dom.MutationRecord) []Mutation {
	out := make([]Mutation, 0, len(records))
	for _, rec := range records {
		m := Mutation{
			Kind:       rec.Kind,
			Path:       rec.Path,
			ParentPath: rec.ParentPath,
			Index:      rec.Index,
			Attr:       rec.Attr,
			Value:      rec.Value,
		}
		if rec.Kind == dom.MutationInsert {
			m.Node = rec.Snapshot
		}
		out = append(out, m)
	}
	return out
}

// EncodeMutations encodes a batch into one or more frames. Batches that do
// not fit in a single payload are split between mutations; every frame but
// the last carries FlagContinued and all of them share the batch's Seq.
func EncodeMutations(mf *MutationsFrame) ([]*Frame, error) {
	// seq varint plus a count of at most three varint bytes
	overhead := uvarintLen(mf.Seq) + 3

	var (
		frames []*Frame
		group  [][]byte
		size   int
	)
	flush := func() {
		e := NewEncoder()
		e.WriteUvarint(mf.Seq)
		e.WriteUvarint(uint64(len(group)))
		for _, b := range group {
			e.buf = append(e.buf, b...)
		}
		frames = append(frames, NewFrame(FrameMutations, e.Bytes()))
		group, size = nil, 0
	}

	for i := range mf.Mutations {
		e := NewEncoder()
		if err := encodeMutation(e, &mf.Mutations[i]); err != nil {
			return nil, err
		}
		b := e.Bytes()
		if len(b)+overhead > MaxPayloadSize {
			return nil, fmt.Errorf("%w: %s mutation is %d bytes", ErrFrameTooLarge, mf.Mutations[i].Kind, len(b))
		}
		if size+len(b)+overhead > MaxPayloadSize {
			flush()
		}
		group = append(group, b)
		size += len(b)
	}
	if len(group) > 0 || len(frames) == 0 {
		flush()
	}
	for _, f := range frames[:len(frames)-1] {
		f.Flags |= FlagContinued
	}
	return frames, nil
}

// DecodeMutations decodes the payload of a mutations frame.
func DecodeMutations(data []byte) (*MutationsFrame, error) {
	d := NewDecoder(data)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCount()
	if err != nil {
		return nil, err
	}
	mf := &MutationsFrame{Seq: seq, Mutations: make([]Mutation, count)}
	for i := range mf.Mutations {
		if err := decodeMutation(d, &mf.Mutations[i]); err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
	}
	return mf, nil
}

func encodeMutation(e *Encoder, m *Mutation) error {
	e.WriteByte(byte(m.Kind))
	switch m.Kind {
	case dom.MutationInsert:
		if m.Node == nil {
			return fmt.Errorf("%w: insert without node", ErrInvalidMutation)
		}
		e.WritePath(m.ParentPath)
		e.WriteUvarint(uint64(m.Index))
		return encodeTree(e, m.Node, 0)
	case dom.MutationMove:
		e.WritePath(m.Path)
		e.WritePath(m.ParentPath)
		e.WriteUvarint(uint64(m.Index))
	case dom.MutationRemove:
		e.WritePath(m.Path)
	case dom.MutationSetAttr:
		e.WritePath(m.Path)
		e.WriteString(m.Attr)
		e.WriteString(m.Value)
	case dom.MutationRemoveAttr:
		e.WritePath(m.Path)
		e.WriteString(m.Attr)
	case dom.MutationSetText:
		e.WritePath(m.Path)
		e.WriteString(m.Value)
	default:
		return fmt.Errorf("%w: kind 0x%02x", ErrInvalidMutation, byte(m.Kind))
	}
	return nil
}

func decodeMutation(d *Decoder, m *Mutation) error {
	kind, err := d.ReadByte()
	if err != nil {
		return err
	}
	m.Kind = dom.MutationKind(kind)
	switch m.Kind {
	case dom.MutationInsert:
		if m.ParentPath, err = d.ReadPath(); err != nil {
			return err
		}
		if m.Index, err = readIndex(d); err != nil {
			return err
		}
		m.Node, err = decodeTree(d, 0)
		return err
	case dom.MutationMove:
		if m.Path, err = d.ReadPath(); err != nil {
			return err
		}
		if m.ParentPath, err = d.ReadPath(); err != nil {
			return err
		}
		m.Index, err = readIndex(d)
		return err
	case dom.MutationRemove:
		m.Path, err = d.ReadPath()
		return err
	case dom.MutationSetAttr:
		if m.Path, err = d.ReadPath(); err != nil {
			return err
		}
		if m.Attr, err = d.ReadString(); err != nil {
			return err
		}
		m.Value, err = d.ReadString()
		return err
	case dom.MutationRemoveAttr:
		if m.Path, err = d.ReadPath(); err != nil {
			return err
		}
		m.Attr, err = d.ReadString()
		return err
	case dom.MutationSetText:
		if m.Path, err = d.ReadPath(); err != nil {
			return err
		}
		m.Value, err = d.ReadString()
		return err
	default:
		return fmt.Errorf("%w: kind 0x%02x", ErrInvalidMutation, kind)
	}
}

func readIndex(d *Decoder) (int, error) {
	idx, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if idx > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	return int(idx), nil
}

func encodeTree(e *Encoder, n *dom.Node, depth int) error {
	if depth > MaxPathDepth {
		return ErrMaxDepthExceeded
	}
	switch n.Type {
	case dom.TextNode:
		e.WriteByte(treeText)
		e.WriteString(n.Data)
		return nil
	case dom.ElementNode:
		e.WriteByte(treeElement)
		e.WriteString(n.Data)
		e.WriteUvarint(uint64(len(n.Attr)))
		for _, a := range n.Attr {
			e.WriteString(a.Key)
			e.WriteString(a.Val)
		}
		children := dom.Children(n)
		e.WriteUvarint(uint64(len(children)))
		for _, c := range children {
			if err := encodeTree(e, c, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported node type %d", ErrInvalidMutation, n.Type)
	}
}

func decodeTree(d *Decoder, depth int) (*dom.Node, error) {
	if depth > MaxPathDepth {
		return nil, ErrMaxDepthExceeded
	}
	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case treeText:
		text, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return &dom.Node{Type: html.TextNode, Data: text}, nil
	case treeElement:
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		name = strings.ToLower(name)
		n := &dom.Node{Type: html.ElementNode, Data: name, DataAtom: atom.Lookup([]byte(name))}
		attrs, err := d.ReadCount()
		if err != nil {
			return nil, err
		}
		for i := 0; i < attrs; i++ {
			key, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			val, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
		}
		children, err := d.ReadCount()
		if err != nil {
			return nil, err
		}
		for i := 0; i < children; i++ {
			c, err := decodeTree(d, depth+1)
			if err != nil {
				return nil, err
			}
			n.AppendChild(c)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%w: node tag 0x%02x", ErrInvalidMutation, tag)
	}
}

// Apply replays mutations on doc in order. The document must be in the
// state the source document had before the batch, which holds for a mirror
// that has applied every earlier batch. Apply stops at the first mutation
// that does not resolve.
func Apply(doc *dom.Document, ms []Mutation) error {
	for i := range ms {
		if err := apply(doc, &ms[i]); err != nil {
			return fmt.Errorf("apply %s mutation %d: %w", ms[i].Kind, i, err)
		}
	}
	return nil
}

func apply(doc *dom.Document, m *Mutation) error {
	switch m.Kind {
	case dom.MutationInsert:
		parent := doc.NodeAt(m.ParentPath)
		if parent == nil {
			return fmt.Errorf("%w: parent %v", ErrPathNotFound, m.ParentPath)
		}
		if m.Node == nil {
			return fmt.Errorf("%w: insert without node", ErrInvalidMutation)
		}
		return doc.InsertBefore(parent, dom.Clone(m.Node), childAt(parent, m.Index))

	case dom.MutationMove:
		node, err := resolve(doc, m.Path)
		if err != nil {
			return err
		}
		// ParentPath and Index describe the tree after the move, so they
		// are resolved with the node taken out.
		oldParent, oldNext := node.Parent, node.NextSibling
		if oldParent == nil {
			return fmt.Errorf("%w: %v is the body", ErrInvalidMutation, m.Path)
		}
		oldParent.RemoveChild(node)
		parent := doc.NodeAt(m.ParentPath)
		var before *dom.Node
		if parent != nil {
			before = childAt(parent, m.Index)
		}
		oldParent.InsertBefore(node, oldNext)
		if parent == nil {
			return fmt.Errorf("%w: parent %v", ErrPathNotFound, m.ParentPath)
		}
		return doc.Move(parent, node, before)

	case dom.MutationRemove:
		node, err := resolve(doc, m.Path)
		if err != nil {
			return err
		}
		return doc.Remove(node)

	case dom.MutationSetAttr:
		node, err := resolve(doc, m.Path)
		if err != nil {
			return err
		}
		doc.SetAttr(node, m.Attr, m.Value)

	case dom.MutationRemoveAttr:
		node, err := resolve(doc, m.Path)
		if err != nil {
			return err
		}
		doc.RemoveAttr(node, m.Attr)

	case dom.MutationSetText:
		node, err := resolve(doc, m.Path)
		if err != nil {
			return err
		}
		if node.Type != dom.TextNode {
			return fmt.Errorf("%w: %v is not a text node", ErrInvalidMutation, m.Path)
		}
		doc.SetText(node, m.Value)

	default:
		return fmt.Errorf("%w: kind 0x%02x", ErrInvalidMutation, byte(m.Kind))
	}
	return nil
}

func resolve(doc *dom.Document, path []int) (*dom.Node, error) {
	n := doc.NodeAt(path)
	if n == nil {
		return nil, fmt.Errorf("%w: %v", ErrPathNotFound, path)
	}
	return n, nil
}

func childAt(parent *dom.Node, index int) *dom.Node {
	c := parent.FirstChild
	for i := 0; c != nil && i < index; i++ {
		c = c.NextSibling
	}
	return c
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
