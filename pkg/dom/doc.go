// Package dom provides the live document that Fibre components render into.
//
// The document is a golang.org/x/net/html node tree. Every structural or
// attribute change goes through a Document method so that it can be observed:
// each change produces a MutationRecord, and observers receive records in
// batches, one batch per outermost BeginBatch/EndBatch pair.
//
// # Events
//
// Listeners are attached per node with AddEventListener. DispatchEvent calls
// the listeners of the target and then bubbles to its ancestors. Listeners
// are dropped when their node is removed through the document.
//
// # Concurrency
//
// A Document is not safe for concurrent use. In Fibre it is owned by the
// scheduler loop of the root mounted into it.
package dom
