package protocol

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/patch"
	"github.com/vango-dev/fibre/pkg/vdom"
)

// dump renders the structure of n, including the empty text nodes that
// HTML serialization drops.
func dump(n *dom.Node) string {
	var sb strings.Builder
	var walk func(*dom.Node)
	walk = func(n *dom.Node) {
		switch n.Type {
		case dom.TextNode:
			fmt.Fprintf(&sb, "%q", n.Data)
		case dom.ElementNode:
			sb.WriteString("<" + n.Data)
			for _, a := range n.Attr {
				fmt.Fprintf(&sb, " %s=%q", a.Key, a.Val)
			}
			sb.WriteString(">")
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
			sb.WriteString("</" + n.Data + ">")
		}
	}
	walk(n)
	return sb.String()
}

// mirror replays every batch of src onto a fresh document through the
// wire format.
type mirror struct {
	t       *testing.T
	doc     *dom.Document
	seq     uint64
	batches int
}

func newMirror(t *testing.T, src *dom.Document) *mirror {
	t.Helper()
	m := &mirror{t: t, doc: dom.NewDocument()}
	cancel := src.Observe(m.replay)
	t.Cleanup(cancel)
	return m
}

func (m *mirror) replay(records []dom.MutationRecord) {
	m.t.Helper()
	m.seq++
	m.batches++
	frames, err := EncodeMutations(&MutationsFrame{Seq: m.seq, Mutations: FromRecords(records)})
	if err != nil {
		m.t.Fatalf("EncodeMutations() error = %v", err)
	}
	for _, f := range frames {
		wire, err := DecodeFrame(f.Encode())
		if err != nil {
			m.t.Fatalf("DecodeFrame() error = %v", err)
		}
		mf, err := DecodeMutations(wire.Payload)
		if err != nil {
			m.t.Fatalf("DecodeMutations() error = %v", err)
		}
		if mf.Seq != m.seq {
			m.t.Errorf("seq = %d, want %d", mf.Seq, m.seq)
		}
		if err := Apply(m.doc, mf.Mutations); err != nil {
			m.t.Fatalf("Apply() error = %v", err)
		}
	}
}

func keyedList(keys ...string) *vdom.VNode {
	items := make([]*vdom.VNode, 0, len(keys))
	for _, k := range keys {
		items = append(items, vdom.Li(vdom.Key(k), vdom.Class("item-"+k), k))
	}
	return vdom.Ul(items)
}

func TestApplyMirrorsPatches(t *testing.T) {
	src := dom.NewDocument()
	mir := newMirror(t, src)
	p := patch.New(src)

	steps := []*vdom.VNode{
		vdom.Div(vdom.ID("app"),
			vdom.H1("Todos"),
			keyedList("a", "b", "c"),
			vdom.Fragment(vdom.Span("x"), vdom.Text("")),
		),
		vdom.Div(vdom.ID("app"), vdom.Class("busy"),
			vdom.H1("Todos (3)"),
			keyedList("c", "a", "d", "b"),
			vdom.Fragment(vdom.Span("y")),
		),
		vdom.Div(vdom.ID("app"),
			vdom.P("empty"),
			keyedList("d"),
		),
		vdom.Section(vdom.Fragment()),
	}

	var mounted *patch.Mounted
	for i, v := range steps {
		var err error
		src.Batch(func() {
			mounted, err = p.Apply(src.Body(), mounted, v)
		})
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if diff := cmp.Diff(dump(src.Body()), dump(mir.doc.Body())); diff != "" {
			t.Fatalf("step %d: mirror differs (-source +mirror):\n%s", i, diff)
		}
	}
	if mir.batches != len(steps) {
		t.Errorf("batches = %d, want %d", mir.batches, len(steps))
	}
}

func TestApplyKeepsNestedInsertsOrdered(t *testing.T) {
	src := dom.NewDocument()
	mir := newMirror(t, src)

	src.Batch(func() {
		div := src.CreateElement("div")
		_ = src.AppendChild(src.Body(), div)
		// Inserted after its parent was: replayed on top of the snapshot.
		_ = src.AppendChild(div, src.CreateText(""))
		_ = src.AppendChild(div, src.CreateText("tail"))
		src.SetAttr(div, "data-n", "2")
	})

	if diff := cmp.Diff(dump(src.Body()), dump(mir.doc.Body())); diff != "" {
		t.Errorf("mirror differs (-source +mirror):\n%s", diff)
	}
}

func TestEncodeMutationsSplits(t *testing.T) {
	value := strings.Repeat("v", 1000)
	ms := make([]Mutation, 150)
	for i := range ms {
		ms[i] = Mutation{Kind: dom.MutationSetAttr, Path: []int{0, i}, Attr: "data-x", Value: value}
	}

	frames, err := EncodeMutations(&MutationsFrame{Seq: 7, Mutations: ms})
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) < 3 {
		t.Fatalf("frames = %d, want at least 3", len(frames))
	}

	var got []Mutation
	for i, f := range frames {
		if len(f.Payload) > MaxPayloadSize {
			t.Errorf("frame %d payload = %d bytes", i, len(f.Payload))
		}
		last := i == len(frames)-1
		if f.Flags.Has(FlagContinued) == last {
			t.Errorf("frame %d continued = %v, want %v", i, !last, !last)
		}
		mf, err := DecodeMutations(f.Payload)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if mf.Seq != 7 {
			t.Errorf("frame %d seq = %d, want 7", i, mf.Seq)
		}
		got = append(got, mf.Mutations...)
	}
	if diff := cmp.Diff(ms, got); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeMutationsEmptyBatch(t *testing.T) {
	frames, err := EncodeMutations(&MutationsFrame{Seq: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 || frames[0].Flags.Has(FlagContinued) {
		t.Fatalf("frames = %d, want a single final frame", len(frames))
	}
	mf, err := DecodeMutations(frames[0].Payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(mf.Mutations) != 0 {
		t.Errorf("mutations = %d, want 0", len(mf.Mutations))
	}
}

func TestEncodeMutationsTooLarge(t *testing.T) {
	ms := []Mutation{{Kind: dom.MutationSetText, Path: []int{0}, Value: strings.Repeat("x", MaxPayloadSize)}}
	if _, err := EncodeMutations(&MutationsFrame{Mutations: ms}); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("error = %v, want ErrFrameTooLarge", err)
	}
}

func TestApplyUnresolvedPath(t *testing.T) {
	doc := dom.NewDocument()
	err := Apply(doc, []Mutation{{Kind: dom.MutationRemove, Path: []int{4}}})
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("error = %v, want ErrPathNotFound", err)
	}
}

func TestDecodeMutationsRejectsUnknownKind(t *testing.T) {
	if _, err := DecodeMutations([]byte{0x01, 0x01, 0x7F}); !errors.Is(err, ErrInvalidMutation) {
		t.Errorf("error = %v, want ErrInvalidMutation", err)
	}
}
