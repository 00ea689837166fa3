package vdom

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// attr creates an Attr with the given key and value.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// AttrOf creates an arbitrary attribute.
func AttrOf(key string, value any) Attr { return attr(key, value) }

// Reconciliation attributes

// Key sets the reconciliation key. The key is converted to a string using
// fmt.Sprintf.
func Key(key any) Attr {
	return attr(keyAttr, fmt.Sprintf("%v", key))
}

// KeyInt sets a numeric reconciliation key.
func KeyInt(key int) Attr {
	return attr(keyAttr, strconv.Itoa(key))
}

// Transition tags the node with a transition name. Its insertion and
// removal are animated with the {name}-enter-* and {name}-leave-* classes.
func Transition(name string) Attr {
	return attr(transitionAttr, name)
}

// Identity attributes

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// StyleAttr sets the style attribute (named to avoid conflict with Style element).
func StyleAttr(style string) Attr { return attr("style", style) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Accessibility attributes

// Role sets the role attribute.
func Role(role string) Attr { return attr("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return attr("aria-label", label) }

// AriaHidden sets the aria-hidden attribute.
func AriaHidden(hidden bool) Attr { return attr("aria-hidden", strconv.FormatBool(hidden)) }

// Visibility attributes

// Hidden sets the hidden attribute.
func Hidden() Attr { return attr("hidden", true) }

// TitleAttr sets the title attribute.
func TitleAttr(title string) Attr { return attr("title", title) }

// TabIndex sets the tabindex attribute.
func TabIndex(index int) Attr { return attr("tabindex", index) }

// Link and form attributes

// Href sets the href attribute.
func Href(url string) Attr { return attr("href", url) }

// Name sets the name attribute.
func Name(name string) Attr { return attr("name", name) }

// Value sets the value attribute.
func Value(value string) Attr { return attr("value", value) }

// Type sets the type attribute.
func Type(t string) Attr { return attr("type", t) }

// Placeholder sets the placeholder attribute.
func Placeholder(text string) Attr { return attr("placeholder", text) }

// Disabled sets or clears the disabled attribute.
func Disabled(disabled bool) Attr { return attr("disabled", disabled) }

// Checked sets or clears the checked attribute.
func Checked(checked bool) Attr { return attr("checked", checked) }

// For sets the for attribute on labels.
func For(id string) Attr { return attr("for", id) }

// Src sets the src attribute.
func Src(url string) Attr { return attr("src", url) }

// Alt sets the alt attribute.
func Alt(text string) Attr { return attr("alt", text) }

// ClassIf returns the class attribute when condition is true.
func ClassIf(condition bool, classes ...string) Attr {
	if !condition {
		return Attr{}
	}
	return Class(classes...)
}

// Classes joins the names whose condition is true.
//
//	Classes(map[string]bool{"active": isActive, "done": item.Done})
//
// Names are sorted so the result is stable across renders.
func Classes(m map[string]bool) Attr {
	names := make([]string, 0, len(m))
	for name, on := range m {
		if on {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return Class(names...)
}
