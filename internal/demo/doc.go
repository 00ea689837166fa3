// Package demo provides small applications built on the fiber scheduler.
//
// The fibre CLI renders them with `fibre render` and serves them through the
// inspector with `fibre serve`. They double as end-to-end fixtures: each one
// exercises keyed lists, transitions, child props or async roots.
package demo
