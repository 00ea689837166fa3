package demo

import (
	"slices"
	"strings"

	"github.com/vango-dev/fibre/pkg/fiber"
)

// Demo describes a runnable application.
type Demo struct {
	Name        string
	Description string

	// New returns a fresh root component.
	New func() fiber.Component
}

var demos = []Demo{
	{
		Name:        "counter",
		Description: "A button counting its clicks",
		New:         func() fiber.Component { return &Counter{} },
	},
	{
		Name:        "todos",
		Description: "A keyed todo list with fade transitions",
		New:         func() fiber.Component { return NewTodos("Write the patcher", "Test transitions") },
	},
	{
		Name:        "toggle",
		Description: "A panel sliding in and out",
		New:         func() fiber.Component { return &Toggle{} },
	},
	{
		Name:        "dashboard",
		Description: "Two counters, one rendered as an async root",
		New:         func() fiber.Component { return &Dashboard{} },
	},
}

// All returns every demo sorted by name.
func All() []Demo {
	out := slices.Clone(demos)
	slices.SortFunc(out, func(a, b Demo) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Lookup returns the demo with the given name.
func Lookup(name string) (Demo, bool) {
	for _, d := range demos {
		if d.Name == name {
			return d, true
		}
	}
	return Demo{}, false
}

// Names returns the demo names sorted.
func Names() []string {
	var names []string
	for _, d := range All() {
		names = append(names, d.Name)
	}
	return names
}
