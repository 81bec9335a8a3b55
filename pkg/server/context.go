package server

import "context"

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// contextKeyRequestID is the context key for request ID
	contextKeyRequestID contextKey = "requestID"
	// contextKeyAPIVersion is the context key for API version
	contextKeyAPIVersion contextKey = "apiVersion"
	// contextKeySubject carries the authenticated token subject
	contextKeySubject contextKey = "subject"
)

// RequestID returns the request id assigned by the middleware chain, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// Subject returns the subject of the bearer token that authorized the request.
func Subject(ctx context.Context) string {
	sub, _ := ctx.Value(contextKeySubject).(string)
	return sub
}
