package errors

// ErrorCode identifies a failure class. Codes are stable strings so they
// can be matched in logs and in the JSON output.
type ErrorCode string

// Coder is implemented by anything that carries an ErrorCode.
type Coder interface {
	Code() ErrorCode
}

// Error is a coded error. WithMessage and WithData return a copy; the
// receiver is never changed.
type Error interface {
	error
	Coder
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory creates coded errors. Wrap keeps err reachable through Unwrap.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
