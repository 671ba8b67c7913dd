package shared

import "context"

type actorContextKey struct{}

// WithActor stores the acting user id in context. The app.Actor middleware
// sets it from the X-User-ID header supplied by the upstream gateway.
func WithActor(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ActorFrom extracts the acting user id from context, zero when absent.
func ActorFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(actorContextKey{}).(int64)
	return id
}
