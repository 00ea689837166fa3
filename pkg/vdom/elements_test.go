package vdom

import "testing"

func TestCreateElementArgs(t *testing.T) {
	handler := func() {}
	var nilNode *VNode
	node := Div(
		nil,
		ID("main"),
		[]Attr{Class("a", "b"), Data("id", "7")},
		Key("row-1"),
		Transition("fade"),
		OnClick(handler),
		"hello",
		Span(),
		nilNode,
		[]*VNode{P(), nil, Em()},
	)

	if node.Kind != KindElement || node.Tag != "div" {
		t.Fatalf("node = %v %q", node.Kind, node.Tag)
	}
	if node.Key != "row-1" {
		t.Errorf("Key = %q, want row-1", node.Key)
	}
	if node.Transition != "fade" {
		t.Errorf("Transition = %q, want fade", node.Transition)
	}
	if _, ok := node.Props["key"]; ok {
		t.Error("key must not be stored as a prop")
	}
	if _, ok := node.Props["t-transition"]; ok {
		t.Error("transition must not be stored as a prop")
	}
	if node.Props["class"] != "a b" || node.Props["id"] != "main" || node.Props["data-id"] != "7" {
		t.Errorf("Props = %v", node.Props)
	}
	if node.Props["onclick"] == nil {
		t.Error("missing onclick handler")
	}
	if len(node.Children) != 4 {
		t.Fatalf("children = %d, want 4", len(node.Children))
	}
	if node.Children[0].Kind != KindText || node.Children[0].Text != "hello" {
		t.Errorf("first child = %+v", node.Children[0])
	}
	if node.Children[3].Tag != "em" {
		t.Errorf("last child tag = %q, want em", node.Children[3].Tag)
	}
}

func TestVoidElementDropsChildren(t *testing.T) {
	node := Input(Type("text"), "ignored")
	if len(node.Children) != 0 {
		t.Errorf("void element has %d children", len(node.Children))
	}
	if !IsVoidElement("br") || IsVoidElement("div") {
		t.Error("IsVoidElement mismatch")
	}
}

func TestKeyHelpers(t *testing.T) {
	if Div(KeyInt(3)).Key != "3" {
		t.Error("KeyInt")
	}
	if Div(Key(4.5)).Key != "4.5" {
		t.Error("Key with float")
	}
}

func TestClassHelpers(t *testing.T) {
	if a := ClassIf(false, "x"); !a.IsEmpty() {
		t.Errorf("ClassIf(false) = %+v", a)
	}
	if a := ClassIf(true, "x", "y"); a.Value != "x y" {
		t.Errorf("ClassIf(true) = %+v", a)
	}
	a := Classes(map[string]bool{"zeta": true, "alpha": true, "off": false})
	if a.Value != "alpha zeta" {
		t.Errorf("Classes = %q, want %q", a.Value, "alpha zeta")
	}
}

func TestEventHelpers(t *testing.T) {
	handler := func() {}
	tests := []struct {
		name     string
		handler  EventHandler
		expected string
	}{
		{"OnClick", OnClick(handler), "onclick"},
		{"OnInput", OnInput(handler), "oninput"},
		{"OnSubmit", OnSubmit(handler), "onsubmit"},
		{"OnTransitionEnd", OnTransitionEnd(handler), "ontransitionend"},
		{"On", On("transitioncancel", handler), "ontransitioncancel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.handler.Event != tt.expected {
				t.Errorf("Event = %q, want %q", tt.handler.Event, tt.expected)
			}
		})
	}
}
