package vdom

import (
	"fmt"
	"strconv"
	"strings"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement   VKind = iota // <div>, <button>, etc.
	KindText                   // Plain text node
	KindFragment               // Grouping without wrapper
	KindComponent              // Nested component placeholder
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// VNode is the virtual DOM node.
type VNode struct {
	Kind       VKind    // Node type
	Tag        string   // Element tag name (e.g., "div")
	Props      Props    // Attributes and event handlers; component props
	Children   []*VNode // Child nodes
	Key        string   // Reconciliation key
	Text       string   // For KindText
	Comp       any      // For KindComponent: the component to instantiate
	Transition string   // Transition name ("" = none)
}

// Props holds attributes and event handlers. For component placeholders it
// holds the props passed to the child component.
type Props map[string]any

// IsInteractive returns true if this node has event handlers.
func (v *VNode) IsInteractive() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	for key := range v.Props {
		if IsEventKey(key) {
			return true
		}
	}
	return false
}

// Attrs returns the attribute props of an element, without event handlers.
func (v *VNode) Attrs() map[string]any {
	out := make(map[string]any, len(v.Props))
	for k, val := range v.Props {
		if !IsEventKey(k) {
			out[k] = val
		}
	}
	return out
}

// Handlers returns the event handlers of an element keyed by event type
// ("click", not "onclick").
func (v *VNode) Handlers() map[string]any {
	var out map[string]any
	for k, val := range v.Props {
		if IsEventKey(k) {
			if out == nil {
				out = make(map[string]any)
			}
			out[strings.ToLower(k[2:])] = val
		}
	}
	return out
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// EventHandler represents an event handler.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler any    // func() or func(*dom.Event)
}

// Reserved attribute keys routed to VNode fields instead of Props.
const (
	keyAttr        = "key"
	transitionAttr = "t-transition"
)

// IsEventKey returns true if the prop key is an event handler (starts with
// "on", case-insensitive).
func IsEventKey(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// AttrString converts an attribute value to its DOM string form. The second
// result is false when the attribute should be absent (nil or false).
func AttrString(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case bool:
		// Boolean attributes are present with an empty value.
		return "", val
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}
