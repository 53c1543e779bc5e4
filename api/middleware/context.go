package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/denizaksoy/ovenline-backend/pkg/enums"
	"github.com/denizaksoy/ovenline-backend/pkg/types"
)

type contextKey string

const ctxActor contextKey = "actor"

// ActorFromContext returns the authenticated (actor_id, actor_role) pair, or
// a zero Actor when the request is unauthenticated.
func ActorFromContext(ctx context.Context) types.Actor {
	if ctx == nil {
		return types.Actor{}
	}
	if actor, ok := ctx.Value(ctxActor).(types.Actor); ok {
		return actor
	}
	return types.Actor{}
}

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, id uuid.UUID, role enums.ActorRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, types.Actor{ID: id, Role: role})
}
