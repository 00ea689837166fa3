package patch

import (
	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/vdom"
)

// patchChildren reconciles the children of one parent. end is the node the
// children sit before (a fragment anchor), nil for element children.
func (p *Patcher) patchChildren(parent, end *dom.Node, old []*Mounted, next []*vdom.VNode) ([]*Mounted, error) {
	next = compact(next)

	if len(old) == 0 {
		out := make([]*Mounted, 0, len(next))
		for _, v := range next {
			m, err := p.mount(parent, end, v, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return out, nil
	}

	if len(next) == 0 {
		for _, m := range old {
			if err := p.Unmount(m); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	sources, err := p.matchChildren(old, next)
	if err != nil {
		return nil, err
	}

	used := make([]bool, len(old))
	for _, j := range sources {
		if j >= 0 {
			used[j] = true
		}
	}
	for j, m := range old {
		if !used[j] {
			if err := p.Unmount(m); err != nil {
				return nil, err
			}
		}
	}

	stable := longestIncreasing(sources)

	// refs[i] is the first node of the nearest stable sibling after i.
	refs := make([]*dom.Node, len(next))
	ref := end
	for i := len(next) - 1; i >= 0; i-- {
		refs[i] = ref
		if stable[i] {
			if n := old[sources[i]].First(); n != nil {
				ref = n
			}
		}
	}

	out := make([]*Mounted, len(next))
	for i, v := range next {
		j := sources[i]
		if j < 0 {
			m, err := p.mount(parent, refs[i], v, nil)
			if err != nil {
				return nil, err
			}
			out[i] = m
			continue
		}

		m := old[j]
		if err := p.update(m, v); err != nil {
			return nil, err
		}
		if !stable[i] {
			if err := p.move(parent, m, refs[i]); err != nil {
				return nil, err
			}
		}
		out[i] = m
	}
	return out, nil
}

// matchChildren returns, for every new child, the index of the old child it
// reuses or -1. Keyed children match by key; unkeyed children match the
// unkeyed old children in order. A match of a different type is dropped so
// the old child is removed and the new one created.
func (p *Patcher) matchChildren(old []*Mounted, next []*vdom.VNode) ([]int, error) {
	keyed := make(map[string]int)
	var positional []int
	for j, m := range old {
		k := m.VNode.Key
		if k == "" {
			positional = append(positional, j)
			continue
		}
		if _, dup := keyed[k]; !dup {
			keyed[k] = j
		}
	}

	sources := make([]int, len(next))
	taken := make([]bool, len(old))
	u := 0
	for i, v := range next {
		sources[i] = -1

		j := -1
		if v.Key != "" {
			if k, ok := keyed[v.Key]; ok && !taken[k] {
				j = k
			}
		} else if u < len(positional) {
			j = positional[u]
			u++
		}
		if j < 0 {
			continue
		}

		same, err := p.sameType(old[j], v)
		if err != nil {
			return nil, err
		}
		if same {
			sources[i] = j
			taken[j] = true
		}
	}
	return sources, nil
}

func (p *Patcher) move(parent *dom.Node, m *Mounted, before *dom.Node) error {
	t := targetOf(m.VNode)
	for _, n := range m.Nodes() {
		if err := p.ops.Move(parent, n, before, t); err != nil {
			return opError("move", t, err)
		}
	}
	return nil
}

// longestIncreasing marks the entries of seq that form its longest strictly
// increasing subsequence. Negative entries are skipped.
func longestIncreasing(seq []int) []bool {
	stable := make([]bool, len(seq))
	prev := make([]int, len(seq))
	var tails []int // indices into seq

	for i, v := range seq {
		if v < 0 {
			continue
		}
		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if seq[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		prev[i] = -1
		if lo > 0 {
			prev[i] = tails[lo-1]
		}
		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}

	if len(tails) == 0 {
		return stable
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		stable[i] = true
	}
	return stable
}

func compact(nodes []*vdom.VNode) []*vdom.VNode {
	for _, n := range nodes {
		if n == nil {
			out := make([]*vdom.VNode, 0, len(nodes))
			for _, n := range nodes {
				if n != nil {
					out = append(out, n)
				}
			}
			return out
		}
	}
	return nodes
}
