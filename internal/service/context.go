package service

import (
	"context"
)

type ctxKey string

const (
	ctxCallerIDKey ctxKey = "callerID"
	ctxRoleKey     ctxKey = "role"
)

type Role string

const (
	RoleAdmin        Role = "ROLE_ADMIN"
	RoleOrderService Role = "ROLE_ORDER_SERVICE"
	RoleReadOnly     Role = "ROLE_READONLY"
)

// WithCaller кладёт проверенную auth-service идентичность вызывающего в контекст.
func WithCaller(ctx context.Context, callerID string, r Role) context.Context {
	ctx = context.WithValue(ctx, ctxCallerIDKey, callerID)
	return context.WithValue(ctx, ctxRoleKey, r)
}

func CallerFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxCallerIDKey).(string)
	return v, ok
}

func RoleFromContext(ctx context.Context) (Role, bool) {
	v, ok := ctx.Value(ctxRoleKey).(Role)
	return v, ok
}
