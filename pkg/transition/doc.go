// Package transition animates insertion and removal of DOM nodes with CSS
// classes.
//
// An Interceptor sits between the patcher and the document. Nodes without a
// transition name pass straight through. For a node tagged with name n:
//
//	insert:  n-enter n-enter-active  --frame-->  n-enter-active n-enter-to  --transitionend-->  (cleared)
//	remove:  n-leave n-leave-active  --frame-->  n-leave-active n-leave-to  --transitionend-->  detached
//
// A node that is re-added while it is leaving is reused: the removal is
// cancelled and the node enters again. Every phase change bumps a
// generation counter so callbacks scheduled for an earlier phase do nothing.
//
// Without a frame driver the interceptor is headless: inserts and removals
// happen immediately and no classes are applied.
package transition
