package context

import (
	"context"
)

// ActorContext identifies who is performing the operation. Identity is
// established by the transport boundary; the core only records it on
// movements and workflow transitions.
type ActorContext struct {
	Actor   string
	StoreID string
}

type actorContextKey struct{}

// WithActor adds ActorContext to context.
func WithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns ActorContext from context.
func GetActor(ctx context.Context) *ActorContext {
	if v, ok := ctx.Value(actorContextKey{}).(*ActorContext); ok {
		return v
	}
	return nil
}

// GetActorName returns the acting user from context, or "system" when the
// operation runs outside a request (worker, seed).
func GetActorName(ctx context.Context) string {
	if a := GetActor(ctx); a != nil && a.Actor != "" {
		return a.Actor
	}
	return "system"
}
