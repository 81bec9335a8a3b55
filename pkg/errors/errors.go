// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failure so callers can branch on it without
// parsing messages.
type ErrorCode string

// Result codes returned by the query entry points.
const (
	// ErrCodeDeviceNotFound indicates the device id is unknown to the directory.
	ErrCodeDeviceNotFound ErrorCode = "DEVICE_NOT_FOUND"
	// ErrCodeBufferTooSmall indicates the caller-supplied buffer cannot hold the result.
	// The accompanying count always carries the required size.
	ErrCodeBufferTooSmall ErrorCode = "BUFFER_TOO_SMALL"
	// ErrCodeMetricNotEnabled indicates the operator configuration excludes the metric.
	ErrCodeMetricNotEnabled ErrorCode = "METRIC_NOT_ENABLED"
	// ErrCodeMetricNotSupported indicates the device lacks the required capability.
	ErrCodeMetricNotSupported ErrorCode = "METRIC_NOT_SUPPORTED"
	// ErrCodeGeneric indicates a topology or resolution failure.
	ErrCodeGeneric ErrorCode = "GENERIC_ERROR"
	// ErrCodeUninitialized indicates the handler dispatch was used before setup.
	ErrCodeUninitialized ErrorCode = "UNINITIALIZED"
)

// Service level codes.
const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeTimeout           ErrorCode = "TIMEOUT"
	ErrCodeInternal          ErrorCode = "INTERNAL"
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeMethodNotAllowed  ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeUnavailable       ErrorCode = "SERVICE_UNAVAILABLE"
)

// HTTPStatus maps a code onto the closest HTTP status.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeDeviceNotFound, ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeBufferTooSmall:
		return http.StatusRequestEntityTooLarge
	case ErrCodeMetricNotEnabled:
		return http.StatusForbidden
	case ErrCodeMetricNotSupported:
		return http.StatusNotImplemented
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeUnavailable, ErrCodeUninitialized:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a client may reasonably retry the same call.
func (c ErrorCode) Retryable() bool {
	switch c {
	case ErrCodeBufferTooSmall, ErrCodeTimeout, ErrCodeRateLimitExceeded,
		ErrCodeUnavailable, ErrCodeUninitialized:
		return true
	default:
		return false
	}
}

// StructuredError carries a code, a human readable message, the
// underlying cause and optional key/value context for logs.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a StructuredError.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{Code: code, Message: message}
}

// NewWithContext creates a StructuredError with context.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Context: context}
}

// Wrap wraps cause under the given code.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause}
}

// WrapWithContext wraps cause under the given code with context.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause, Context: context}
}

// CodeOf returns the code of the outermost StructuredError in the chain,
// or ErrCodeInternal for any other non-nil error and "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
