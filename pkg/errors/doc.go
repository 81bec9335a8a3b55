// Package errors defines the structured error type used across the
// telemetry service.
//
// Every failure that crosses a package boundary carries an ErrorCode.
// Query entry points return the result codes DEVICE_NOT_FOUND,
// BUFFER_TOO_SMALL, METRIC_NOT_ENABLED, METRIC_NOT_SUPPORTED and
// GENERIC_ERROR; the handler dispatch returns UNINITIALIZED when used
// before construction. The HTTP layer turns codes into statuses with
// ErrorCode.HTTPStatus.
//
// Usage:
//
//	if n > len(out) {
//	    return n, errors.NewWithContext(errors.ErrCodeBufferTooSmall,
//	        "output buffer too small", map[string]any{"needed": n})
//	}
//
//	switch errors.CodeOf(err) {
//	case errors.ErrCodeBufferTooSmall:
//	    // resize and call again
//	}
package errors
