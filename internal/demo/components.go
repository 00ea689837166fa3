package demo

import (
	"strings"

	"github.com/vango-dev/fibre/pkg/dom"
	"github.com/vango-dev/fibre/pkg/fiber"
	"github.com/vango-dev/fibre/pkg/vdom"
)

// Counter renders a button counting its clicks.
type Counter struct {
	Clicks int
}

func (c *Counter) Render(inst *fiber.Instance) *vdom.VNode {
	return vdom.Button(
		vdom.Class("counter"),
		vdom.OnClick(func() {
			inst.Update(func() { c.Clicks++ })
		}),
		vdom.Textf("%d", c.Clicks),
	)
}

// Todo is an item of the Todos list.
type Todo struct {
	ID   int
	Text string
	Done bool
}

// Todos is a keyed list. Items fade in when added and fade out when removed.
type Todos struct {
	Items []Todo
	Draft string
	next  int
}

// NewTodos returns a list holding texts.
func NewTodos(texts ...string) *Todos {
	t := &Todos{}
	for _, text := range texts {
		t.add(text)
	}
	return t
}

func (t *Todos) add(text string) {
	t.next++
	t.Items = append(t.Items, Todo{ID: t.next, Text: text})
}

func (t *Todos) remove(id int) {
	for i, item := range t.Items {
		if item.ID == id {
			t.Items = append(t.Items[:i], t.Items[i+1:]...)
			return
		}
	}
}

func (t *Todos) toggle(id int) {
	for i := range t.Items {
		if t.Items[i].ID == id {
			t.Items[i].Done = !t.Items[i].Done
			return
		}
	}
}

func (t *Todos) Render(inst *fiber.Instance) *vdom.VNode {
	items := vdom.Range(t.Items, func(item Todo, _ int) *vdom.VNode {
		id := item.ID
		return vdom.Comp(todoItem{},
			vdom.Key(id),
			vdom.Transition("fade"),
			vdom.AttrOf("text", item.Text),
			vdom.AttrOf("done", item.Done),
			vdom.AttrOf("onToggle", func() { inst.Update(func() { t.toggle(id) }) }),
			vdom.AttrOf("onRemove", func() { inst.Update(func() { t.remove(id) }) }),
		)
	})

	return vdom.Div(vdom.Class("todos"),
		vdom.Form(
			vdom.OnSubmit(func() {
				inst.Update(func() {
					if text := strings.TrimSpace(t.Draft); text != "" {
						t.add(text)
					}
					t.Draft = ""
				})
			}),
			vdom.Input(
				vdom.Name("draft"),
				vdom.Value(t.Draft),
				vdom.Placeholder("What needs doing?"),
				vdom.OnInput(func(e *dom.Event) {
					inst.Update(func() { t.Draft = e.Value })
				}),
			),
			vdom.Button(vdom.Type("submit"), "Add"),
		),
		vdom.Ul(items),
		vdom.If(len(t.Items) == 0, vdom.P(vdom.Class("empty"), "Nothing to do")),
	)
}

type todoItemProps struct {
	Text     string `prop:"text"`
	Done     bool   `prop:"done"`
	OnToggle func() `prop:"onToggle"`
	OnRemove func() `prop:"onRemove"`
}

// todoItem renders one row of Todos from its props.
type todoItem struct{}

func (todoItem) Render(inst *fiber.Instance) *vdom.VNode {
	var p todoItemProps
	if err := fiber.DecodeProps(inst.Props(), &p); err != nil {
		panic(err)
	}
	return vdom.Li(
		vdom.Classes(map[string]bool{"item": true, "done": p.Done}),
		vdom.Span(vdom.OnClick(p.OnToggle), p.Text),
		vdom.Button(vdom.Class("remove"), vdom.OnClick(p.OnRemove), "×"),
	)
}

// Toggle shows a panel that slides in and out.
type Toggle struct {
	Open bool
}

func (t *Toggle) Render(inst *fiber.Instance) *vdom.VNode {
	label := "Show"
	if t.Open {
		label = "Hide"
	}
	return vdom.Div(vdom.Class("toggle"),
		vdom.Button(
			vdom.OnClick(func() { inst.Update(func() { t.Open = !t.Open }) }),
			label,
		),
		vdom.If(t.Open, vdom.Div(vdom.Class("panel"), vdom.Transition("slide"), "Hello")),
	)
}

// Dashboard renders two counters, the second inside an async root that
// renders on its own schedule.
type Dashboard struct{}

func (Dashboard) Render(*fiber.Instance) *vdom.VNode {
	return vdom.Main(
		vdom.Section(vdom.H2("Sync"), vdom.Comp(&Counter{})),
		vdom.Section(vdom.H2("Async"), fiber.Async(vdom.Comp(&Counter{}))),
	)
}
