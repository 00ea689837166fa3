package dom

import "strings"

// ClassName returns the class attribute of n, or "" when it is not set.
func ClassName(n *Node) string {
	v, _ := Attr(n, "class")
	return v
}

// HasClass reports whether n carries the class token.
func HasClass(n *Node, class string) bool {
	for _, tok := range strings.Fields(ClassName(n)) {
		if tok == class {
			return true
		}
	}
	return false
}

// AddClass appends class tokens that n does not carry yet, keeping the
// existing token order.
func (d *Document) AddClass(n *Node, classes ...string) {
	tokens := strings.Fields(ClassName(n))
	changed := false
	for _, c := range classes {
		if c == "" || contains(tokens, c) {
			continue
		}
		tokens = append(tokens, c)
		changed = true
	}
	if !changed {
		return
	}
	d.SetAttr(n, "class", strings.Join(tokens, " "))
}

// RemoveClass removes class tokens from n. The class attribute stays present
// (possibly empty) once it exists.
func (d *Document) RemoveClass(n *Node, classes ...string) {
	current, had := Attr(n, "class")
	if !had {
		return
	}
	tokens := strings.Fields(current)
	kept := tokens[:0:0]
	for _, tok := range tokens {
		if !contains(classes, tok) {
			kept = append(kept, tok)
		}
	}
	d.SetAttr(n, "class", strings.Join(kept, " "))
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
