package errors

import "slices"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Render Errors (F001-F019)
	// ============================================

	"F001": {
		Category: CategoryRender,
		Message:  "Component render failed",
		Detail:   "The render function of a component returned an error or panicked. The document was left unchanged.",
	},
	"F002": {
		Category: CategoryRender,
		Message:  "Component start failed",
		Detail:   "WillStart returned an error, so the component was never mounted.",
	},
	"F003": {
		Category: CategoryRender,
		Message:  "Component props update failed",
		Detail:   "WillUpdateProps returned an error. The previous props and DOM were kept.",
	},
	"F004": {
		Category:   CategoryRender,
		Message:    "Component destroyed",
		Detail:     "A render was requested for a component that has already been unmounted.",
		Suggestion: "Check Instance.Status() before scheduling work from goroutines that outlive the component.",
	},
	"F005": {
		Category: CategoryRender,
		Message:  "Scheduler closed",
		Detail:   "The scheduler stopped before the render was committed.",
	},
	"F006": {
		Category:   CategoryRender,
		Message:    "Unknown component",
		Detail:     "The requested component is not part of the demo registry.",
		Suggestion: "Run `fibre render --list` to see the available components.",
	},

	// ============================================
	// Patch Errors (F020-F039)
	// ============================================

	"F020": {
		Category: CategoryPatch,
		Message:  "DOM patch failed",
		Detail:   "The patcher could not apply a change to the document. The commit was discarded.",
	},
	"F021": {
		Category:   CategoryPatch,
		Message:    "Mounted node missing",
		Detail:     "A node recorded for a mounted tree is no longer attached to the document. Something outside the patcher removed it.",
		Suggestion: "Only change nodes owned by components through their render functions.",
	},

	// ============================================
	// Protocol Errors (F040-F059)
	// ============================================

	"F040": {
		Category: CategoryProtocol,
		Message:  "Invalid frame",
		Detail:   "The received bytes are not a valid protocol frame.",
	},
	"F041": {
		Category:   CategoryProtocol,
		Message:    "Mirror out of sync",
		Detail:     "A mutation path did not resolve on the mirrored document. Batches were lost or applied out of order.",
		Suggestion: "Reconnect to receive the full document again.",
	},

	// ============================================
	// Storage Errors (F060-F069)
	// ============================================

	"F060": {
		Category:   CategoryStorage,
		Message:    "Snapshot not found",
		Detail:     "No snapshot with this name exists in the configured store.",
		Suggestion: "Run `fibre snapshot list` to see the stored names.",
	},
	"F061": {
		Category: CategoryStorage,
		Message:  "Snapshot store unavailable",
		Detail:   "The snapshot store could not be opened or returned an error.",
	},

	// ============================================
	// Config Errors (F070-F089)
	// ============================================

	"F070": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No fibre.yaml was found in the directory or its parents.",
		Suggestion: "Run the command from your project directory or pass --config.",
	},
	"F071": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "fibre.yaml could not be parsed.",
	},
	"F072": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or inconsistent with another one.",
	},

	// ============================================
	// CLI Errors (F090-F099)
	// ============================================

	"F090": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
	},
	"F091": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The inspector HTTP server stopped with an error.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces an error template. It is not safe for
// concurrent use with New.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
