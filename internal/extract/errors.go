package extract

import "fmt"

// Kind classifies extraction failures for the user-facing layer.
type Kind string

const (
	// KindAuthentication: missing or rejected credential. The user fixes
	// configuration and resubmits.
	KindAuthentication Kind = "authentication"
	// KindUpstream: the model call failed (network, rate limit, malformed
	// response, timeout). Resubmission is the only recovery.
	KindUpstream Kind = "upstream"
	// KindSchemaViolation: the model returned structurally invalid data.
	// Treated as a prompt-drift signal, never retried.
	KindSchemaViolation Kind = "schema_violation"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrAuthentication  = &Error{Kind: KindAuthentication}
	ErrUpstream        = &Error{Kind: KindUpstream}
	ErrSchemaViolation = &Error{Kind: KindSchemaViolation}
)

// Error is a classified extraction failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind) + " error"
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, extract.ErrUpstream).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func authErr(format string, args ...any) *Error {
	return &Error{Kind: KindAuthentication, Err: fmt.Errorf(format, args...)}
}

func upstreamErr(format string, args ...any) *Error {
	return &Error{Kind: KindUpstream, Err: fmt.Errorf(format, args...)}
}

func schemaErr(format string, args ...any) *Error {
	return &Error{Kind: KindSchemaViolation, Err: fmt.Errorf(format, args...)}
}
