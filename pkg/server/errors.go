package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	telemerrors "github.com/NVIDIA/fleet-telemetry/pkg/errors"
	"github.com/NVIDIA/fleet-telemetry/pkg/serializer"
)

// HTTPStatusFromCode maps a result code onto an HTTP status.
func HTTPStatusFromCode(code telemerrors.ErrorCode) int {
	return code.HTTPStatus()
}

// RetryableFromCode reports whether a client may retry a call that failed with code.
func RetryableFromCode(code telemerrors.ErrorCode) bool {
	return code.Retryable()
}

// WriteError writes the JSON error envelope.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code telemerrors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID := RequestID(r.Context())
	if requestID == "" {
		requestID = uuid.New().String()
	}

	errResp := ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	}

	serializer.RespondJSON(w, statusCode, errResp)
}

// WriteErrorFromErr writes err using the status and retry hint of its code.
// StructuredError context is merged into details.
func WriteErrorFromErr(w http.ResponseWriter, r *http.Request, err error, details map[string]any) {
	code := telemerrors.CodeOf(err)
	message := err.Error()

	var se *telemerrors.StructuredError
	if errors.As(err, &se) {
		message = se.Message
		if len(se.Context) > 0 {
			if details == nil {
				details = make(map[string]any, len(se.Context))
			}
			for k, v := range se.Context {
				details[k] = v
			}
		}
	}

	WriteError(w, r, HTTPStatusFromCode(code), code, message, RetryableFromCode(code), details)
}
