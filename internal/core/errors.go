package core

import "errors"

// Error codes sent to clients.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeBlocked      = "blocked"
	ErrCodeInternal     = "internal_error"
	ErrCodeRateLimited  = "rate_limited"
)

var (
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrBlocked        = errors.New("blocked")
	ErrPersistence    = errors.New("persistence failure")
	ErrBadRequest     = errors.New("bad request")
)

// CoreError wraps a code and human-readable message.
// It unwraps to one of the sentinel errors above and, for persistence
// failures, to the underlying cause.
type CoreError struct {
	Code    string
	Message string

	kind  error
	cause error
}

func (e *CoreError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *CoreError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg, kind: kindForCode(code)}
}

func badRequest(msg string) *CoreError { return coreError(ErrCodeBadRequest, msg) }
func notFound(msg string) *CoreError   { return coreError(ErrCodeNotFound, msg) }
func conflict(msg string) *CoreError   { return coreError(ErrCodeConflict, msg) }
func blocked(msg string) *CoreError    { return coreError(ErrCodeBlocked, msg) }

// persistence hides the cause from clients; Error() still carries it for logs.
func persistence(op string, cause error) *CoreError {
	return &CoreError{Code: ErrCodeInternal, Message: op, kind: ErrPersistence, cause: cause}
}

func kindForCode(code string) error {
	switch code {
	case ErrCodeBadRequest:
		return ErrBadRequest
	case ErrCodeUnauthorized:
		return ErrAuthentication
	case ErrCodeNotFound:
		return ErrNotFound
	case ErrCodeConflict:
		return ErrConflict
	case ErrCodeBlocked:
		return ErrBlocked
	case ErrCodeInternal:
		return ErrPersistence
	default:
		return nil
	}
}

// NewError builds a client-facing error outside of the hub, e.g. for
// validation failures at the connection boundary.
func NewError(code, msg string) *CoreError {
	return coreError(code, msg)
}

// toCoreError converts any handler error into its client-facing form.
func toCoreError(err error) *CoreError {
	var ce *CoreError
	if errors.As(err, &ce) {
		if ce.kind == ErrPersistence {
			return &CoreError{Code: ErrCodeInternal, Message: "internal server error", kind: ErrPersistence}
		}
		return ce
	}
	return &CoreError{Code: ErrCodeInternal, Message: "internal server error", kind: ErrPersistence}
}
