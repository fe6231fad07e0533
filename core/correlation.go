package core

import (
	"context"

	"github.com/google/uuid"
)

type correlationKey struct{}

// NewCorrelationID returns a short identifier tying together the log lines
// of one extraction or review request.
func NewCorrelationID() string {
	return uuid.New().String()[:8]
}

// WithCorrelationID returns a context carrying id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id stored in ctx, or "" when there is none.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
