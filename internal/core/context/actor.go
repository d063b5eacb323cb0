// Package context carries request-scoped values for the domain layer.
package context

import (
	"context"
)

type actorKey struct{}

// WithActorID stores the acting user's id in the context.
// Movements record the actor; authentication itself happens upstream.
func WithActorID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// GetActorID returns the acting user's id, or empty string if not set.
func GetActorID(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok {
		return v
	}
	return ""
}
