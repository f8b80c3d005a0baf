package errors

import (
	"fmt"
	"strings"
)

// IsDeltaboxError reports whether err is our structured Error type.
func IsDeltaboxError(err error) bool {
	_, ok := err.(*Error)
	return ok
}

// GetContext extracts the context map from a structured error, nil otherwise.
func GetContext(err error) map[string]string {
	if e, ok := err.(*Error); ok {
		return e.Context
	}
	return nil
}

// GetCode returns the error code string, or "" for foreign error types.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code.String()
	}
	return ""
}

// HasCode reports whether err carries the given code, unwrapping as needed.
func HasCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code.Equals(code) {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// FormatError renders an error for logging, one field per line.
func FormatError(err error) string {
	if e, ok := err.(*Error); ok {
		var parts []string
		parts = append(parts, fmt.Sprintf("Code: %s", e.Code))
		parts = append(parts, fmt.Sprintf("Message: %s", e.Message))

		if len(e.Context) > 0 {
			parts = append(parts, "Context:")
			for k, v := range e.Context {
				parts = append(parts, fmt.Sprintf("  %s: %v", k, v))
			}
		}

		if e.Cause != nil {
			parts = append(parts, fmt.Sprintf("Cause: %v", e.Cause))
		}

		return strings.Join(parts, "\n")
	}
	return err.Error()
}

// AsError converts any error to the structured Error type. Existing *Error
// values are returned as-is; everything else is wrapped under
// CommonInternal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return Wrap(CommonInternal, err, err.Error())
}
