package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrReadConfig    ErrorCode = "read_config_failed"
	ErrBindFlags     ErrorCode = "bind_flags_failed"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Input errors
	ErrReadInput ErrorCode = "read_input_failed"

	// Sensor model errors
	ErrParse      ErrorCode = "sensors_parse_failed"
	ErrKeyMissing ErrorCode = "sensors_key_missing"

	// Check errors
	ErrUnsupportedOption ErrorCode = "check_unsupported_option"
	ErrInvalidLevels     ErrorCode = "check_invalid_levels"
	ErrUnknownPlugin     ErrorCode = "check_unknown_plugin"

	// Output errors
	ErrEmit ErrorCode = "emit_failed"

	// Operation errors
	ErrTimeout         ErrorCode = "operation_timeout"
	ErrInitFailed      ErrorCode = "initialization_failed"
	ErrShutdownFailed  ErrorCode = "shutdown_failed"
	ErrOperationFailed ErrorCode = "operation_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrInvalidArgument:   "Invalid argument provided",
	ErrInvalidConfig:     "Invalid configuration",
	ErrReadConfig:        "Failed to read configuration",
	ErrBindFlags:         "Failed to bind flags",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrReadInput:         "Failed to read agent output",
	ErrParse:             "Failed to parse sensors output",
	ErrKeyMissing:        "Required key missing in sensors output",
	ErrUnsupportedOption: "Unsupported option",
	ErrInvalidLevels:     "Invalid levels",
	ErrUnknownPlugin:     "Unknown check plugin",
	ErrEmit:              "Failed to emit check result",
	ErrTimeout:           "Operation timed out",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrOperationFailed:   "Operation failed",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
