// Package vdom provides the virtual node trees that Fibre components render.
//
// A VNode describes an element, a text node, a fragment (several roots
// without a wrapper) or a component placeholder. Trees are produced by render
// functions and are immutable once returned: every render builds a new tree,
// and the patch package reconciles it against the previous one.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    Span(Transition("fade"), "Content"),
//	    OnClick(handler),
//	)
//
// # Keys
//
// Children carrying a Key are matched by key across renders; unkeyed
// children are matched by position.
//
// # Transitions
//
// Transition(name) tags a node so that its insertion and removal are
// animated with the {name}-enter and {name}-leave class protocol.
package vdom
