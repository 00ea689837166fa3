// Package errors provides coded, actionable error messages for the fibre
// command line.
//
// Library packages return plain Go errors (sentinels and typed errors such as
// fiber.RenderError). At the edge, the CLI maps them to an Error carrying a
// stable code, a category, an explanation and a hint, and prints it.
//
// # Error Categories
//
//   - render: component render and lifecycle failures
//   - patch: DOM patching failures
//   - protocol: wire protocol errors
//   - storage: snapshot store errors
//   - config: fibre.yaml errors
//   - cli: command usage errors
//
// # Usage
//
//	err := errors.New("F001").
//	    Wrap(renderErr).
//	    WithSuggestion("Return an error from WillStart instead of panicking")
//
//	errors.PrintError(err)
//	// ERROR F001: Component render failed
//	//
//	//   The render function of a component returned an error or panicked.
//	//   The document was left unchanged.
//	//
//	//   Cause: fiber: render Counter: boom
//	//
//	//   Hint: Return an error from WillStart instead of panicking
package errors
