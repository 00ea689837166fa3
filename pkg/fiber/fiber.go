package fiber

import (
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/fibre/pkg/vdom"
)

// fiber is one pending render of an instance.
//
// Fibers form a tree mirroring the component tree of a render request. The
// root fiber carries the waiters of the request and is committed once every
// fiber below it has rendered.
type fiber struct {
	id       uint64
	inst     *Instance
	parent   *fiber
	root     *fiber
	children []*fiber

	props vdom.Props
	force bool
	keep  bool // Reuse the committed tree, only descend into children

	vnode *vdom.VNode
	slots []slot

	prepared   bool
	rendered   bool
	complete   bool
	superseded bool
	committed  bool
	remaining  int // Children not yet complete

	// Root fibers only.
	waiters []*Notification
	caught  map[*Instance]bool // Boundaries that handled an error of this request
	started time.Time
}

// slot binds a placeholder of a rendered tree to an instance.
type slot struct {
	id   string
	node *vdom.VNode
	inst *Instance
}

// walk visits f and its descendants, parents first.
func (f *fiber) walk(fn func(*fiber)) {
	fn(f)
	for _, c := range f.children {
		c.walk(fn)
	}
}

// walkUp visits the descendants of f and then f, children first.
func (f *fiber) walkUp(fn func(*fiber)) {
	for _, c := range f.children {
		c.walkUp(fn)
	}
	fn(f)
}

// placeholders lists the component placeholders of v in document order,
// each with an id describing its position. Two renders give the same id to
// placeholders the patcher pairs with each other: keyed siblings match by
// key, unkeyed siblings by their rank among unkeyed siblings, and the node
// kinds along the path must agree.
func placeholders(v *vdom.VNode) []slot {
	if v == nil {
		return nil
	}
	var out []slot
	var walk func(v *vdom.VNode, path string)
	walk = func(v *vdom.VNode, path string) {
		if v.Kind == vdom.KindComponent {
			out = append(out, slot{id: path, node: v})
			return
		}
		rank := 0
		for _, c := range v.Children {
			if c == nil {
				continue
			}
			var b strings.Builder
			b.WriteString(path)
			b.WriteByte('/')
			if c.Key != "" {
				b.WriteString(strconv.Quote(c.Key))
			} else {
				b.WriteByte('#')
				b.WriteString(strconv.Itoa(rank))
				rank++
			}
			b.WriteString(kindTag(c))
			walk(c, b.String())
		}
	}
	walk(v, kindTag(v))
	return out
}

func kindTag(v *vdom.VNode) string {
	switch v.Kind {
	case vdom.KindElement:
		return "<" + v.Tag + ">"
	case vdom.KindFragment:
		return "[]"
	case vdom.KindComponent:
		return "{}"
	default:
		return "''"
	}
}
