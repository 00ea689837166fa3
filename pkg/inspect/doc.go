// Package inspect serves a live view of a scheduler's document over HTTP.
//
// Routes:
//
//	GET  /ws                mutation stream (binary protocol frames) and event input
//	GET  /snapshot          current body HTML
//	GET  /query?xpath=expr  nodes matching an XPath expression, as JSON
//	GET  /snapshots         stored snapshot names
//	POST /snapshots/{name}  store the current body under name
//	GET  /snapshots/{name}  stored snapshot HTML
//	GET  /metrics           Prometheus metrics
//
// A WebSocket client first receives one Mutations frame that inserts the
// current body children, then every batch the document records. It may send
// Event frames, which are dispatched on the scheduler loop; frames that
// cannot be handled are answered with an Error frame.
//
// All document access happens on the scheduler loop.
//
//	srv := inspect.New(sched, inspect.WithStore(store), inspect.WithGatherer(reg))
//	defer srv.Close()
//	http.ListenAndServe(":7070", srv.Handler())
package inspect
