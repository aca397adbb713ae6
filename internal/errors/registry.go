package errors

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
	// Registry Errors (E101-E199)
	// ============================================

	"E101": {
		Category:   CategoryRegistry,
		Message:    "Duplicate variable name",
		Detail:     "Every variable must be declared exactly once. Two declarations with the same name would make defaults and constraints ambiguous.",
		Suggestion: "Rename one of the variables or merge the two declarations.",
	},
	"E102": {
		Category:   CategoryRegistry,
		Message:    "Empty variable name",
		Detail:     "Widgets bind to variables by name, so a declaration without a name can never be read or written.",
		Suggestion: "Give the variable a non-empty name such as sineAngle.",
	},
	"E103": {
		Category: CategoryRegistry,
		Message:  "Invalid variable definition",
		Detail:   "The default value must match the declared kind, min, max and step must be finite, number defaults must lie within min and max, step must be positive and finite, and select defaults must be one of the options.",
	},
	"E104": {
		Category:   CategoryRegistry,
		Message:    "Cannot load variable declarations",
		Detail:     "The declaration document could not be read or parsed.",
		Suggestion: "Check that the file exists and has a top-level variables: mapping.",
	},

	// ============================================
	// Runtime Errors (E201-E299)
	// ============================================

	"E201": {
		Category:   CategoryRuntime,
		Message:    "Notification storm budget exceeded",
		Detail:     "Subscribers kept writing variables from inside their notifications. The remaining queued notifications were dropped to keep the page responsive.",
		Suggestion: "Look for two widgets that write each other's variables on every change.",
	},
	"E202": {
		Category: CategoryRuntime,
		Message:  "Subscriber callback panicked",
		Detail:   "A widget panicked while handling a variable change. The panic was recovered and the remaining subscribers were still notified.",
	},

	// ============================================
	// Binding Errors (E301-E399)
	// ============================================

	"E301": {
		Category:   CategoryBinding,
		Message:    "Value kind does not match declared kind",
		Detail:     "The write was rejected and the stored value is unchanged.",
		Suggestion: "Write a value of the declared kind, or fix the declaration.",
	},
	"E302": {
		Category:   CategoryBinding,
		Message:    "Value violates declared constraints",
		Detail:     "The store does not clamp. Input widgets are expected to keep values within min, max and options before writing.",
		Suggestion: "Clamp the value in the input widget with binding.Clamp.",
	},

	// ============================================
	// Config and Protocol Errors (E401-E499)
	// ============================================

	"E401": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Suggestion: "Check lessonvars.json against the documented schema.",
	},
	"E402": {
		Category: CategoryProtocol,
		Message:  "Malformed request payload",
	},
	"E403": {
		Category:   CategoryCLI,
		Message:    "Cannot scaffold lesson",
		Suggestion: "Run 'lessonvars init --list' to see the available templates.",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
