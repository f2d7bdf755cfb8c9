package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 13000-13999: Sandbox & Execution errors
// 14000-14999: Evaluation harness errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Cache errors (10200-10299)
	CacheError     ErrorCode = 10200
	CacheMiss      ErrorCode = 10201
	CacheSetFailed ErrorCode = 10202

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Sandbox & Execution Errors (13000-13999) ==========

	// Launch (13000-13099)
	SandboxLaunchFailed  ErrorCode = 13000
	SandboxNotSupported  ErrorCode = 13001
	IdentityRejected     ErrorCode = 13002
	WorkDirInvalid       ErrorCode = 13003
	LanguageNotSupported ErrorCode = 13004

	// Execution (13100-13199)
	SandboxSystemError ErrorCode = 13100
	CompilationError   ErrorCode = 13101
	RuntimeError       ErrorCode = 13102
	CommandInvalid     ErrorCode = 13103

	// ========== Evaluation Harness Errors (14000-14999) ==========

	// Records & splicing (14000-14099)
	RecordInvalid ErrorCode = 14000
	SpliceFailed  ErrorCode = 14001
	SourceEmpty   ErrorCode = 14002

	// Workspace (14100-14199)
	WorkspaceCreateFailed ErrorCode = 14100
	SourceWriteFailed     ErrorCode = 14101

	// Reporting (14200-14299)
	EvalInputUnreadable   ErrorCode = 14200
	EvalOutputWriteFailed ErrorCode = 14201
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Cache
	CacheError:     "Cache operation failed",
	CacheMiss:      "Cache miss",
	CacheSetFailed: "Failed to set cache",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Sandbox - Launch
	SandboxLaunchFailed:  "Failed to launch sandboxed process",
	SandboxNotSupported:  "Sandbox engine is not supported on this platform",
	IdentityRejected:     "Sandbox identity switch rejected",
	WorkDirInvalid:       "Working directory is invalid",
	LanguageNotSupported: "Programming language not supported",

	// Sandbox - Execution
	SandboxSystemError: "Sandbox system error",
	CompilationError:   "Compilation error",
	RuntimeError:       "Runtime error",
	CommandInvalid:     "Command line is invalid",

	// Evaluation
	RecordInvalid: "Evaluation record is invalid",
	SpliceFailed:  "Failed to splice candidate code",
	SourceEmpty:   "Source code is empty",

	WorkspaceCreateFailed: "Failed to create workspace",
	SourceWriteFailed:     "Failed to write source file",

	EvalInputUnreadable:   "Failed to read evaluation input",
	EvalOutputWriteFailed: "Failed to write evaluation output",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound:
		return 404
	case c == TooManyRequests:
		return 429
	case c == ServiceUnavailable, c == SandboxNotSupported:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == CommandInvalid, c == RecordInvalid, c == LanguageNotSupported:
		return 400
	default:
		return 500
	}
}
