package core

import "context"

type contextKey string

const ctxKeyActor contextKey = "audit_actor"

// ContextWithActor adds the acting identity to context for audit attribution.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// ActorFromContext extracts the acting identity, or "" if none was set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActor).(string); ok {
		return v
	}
	return ""
}
