package session

import "github.com/TFMV/deltabox/pkg/errors"

// Error codes for session package
var (
	// Usage errors
	ErrNoActiveSession = errors.MustNewCode("session.no_active")
	ErrSessionClosed   = errors.MustNewCode("session.closed")

	// Remote execution errors
	ErrExecuteFailed = errors.MustNewCode("session.execute_failed")
	ErrDecodeFailed  = errors.MustNewCode("session.decode_failed")

	// Result access errors
	ErrRowOutOfRange    = errors.MustNewCode("session.row_out_of_range")
	ErrColumnOutOfRange = errors.MustNewCode("session.column_out_of_range")
	ErrValueTypeInvalid = errors.MustNewCode("session.value_type_invalid")

	// Transport errors
	ErrDialFailed = errors.MustNewCode("session.dial_failed")
)
