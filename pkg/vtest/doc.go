// Package vtest provides testing helpers for fibre components.
//
// A Harness mounts a component into a fresh document on its own scheduler,
// dispatches DOM events by XPath and waits for the renders they cause, so
// tests read as a sequence of user actions and assertions.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.Mount(t, &Counter{})
//	    h.Click("//button")
//	    h.ExpectContains("<button>1</button>")
//	}
//
// # Transitions
//
// Without frames, transitions are skipped: inserts and removals take effect
// at once. Pass WithFrames to drive them by hand:
//
//	frames := &transition.ManualFrames{}
//	h := vtest.Mount(t, &Toggle{}, vtest.WithFrames(frames))
//	h.Click("//button")
//	h.ExpectClass(`//div[@id="panel"]`, "slide-enter slide-enter-active")
//	h.Do(func() { frames.Flush() })
//
// # Assertions
//
// Assertions run against the serialized body:
//
//	h.ExpectContains("Welcome")
//	h.ExpectNotContains("Error")
//	h.ExpectElement("button")
//	h.ExpectAttribute("class", "btn-primary")
package vtest
