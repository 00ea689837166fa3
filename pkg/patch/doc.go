// Package patch reconciles virtual node trees against the live DOM.
//
// A Patcher turns the difference between the previously rendered tree of a
// component and its new tree into DOM operations. Children are matched by key
// first and by position second; matched keyed children that changed order
// are moved, never removed and reinserted, and the set of moves is minimal
// (nodes on the longest increasing run of old positions stay in place).
//
// For a given pair of trees the sequence of operations is deterministic:
//
//  1. Unmatched old children are removed, in old order.
//  2. New children are visited left to right. Matched children are patched
//     in place and, when out of order, moved; new children are created and
//     inserted before the next stable sibling.
//  3. Attributes are removed, then set, in sorted key order.
//
// New subtrees are attached top-down: an element is inserted before its
// children are appended, so mutation observers see parents first.
//
// Structural operations (insert, remove, move) go through an Ops value so
// they can be intercepted; the transition package uses this to animate
// insertion and defer removal. Component placeholders are delegated to a
// Host, which owns component instances.
package patch
