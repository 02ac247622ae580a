package graphql

import (
	"context"
)

// Context keys for resolver injection (avoids circular imports).
type contextKey string

const (
	ctxKeyOrgID  contextKey = "orgID"
	ctxKeyUserID contextKey = "userID"
)

// OrgIDFromContext returns the tenant for the current request, or 0.
func OrgIDFromContext(ctx context.Context) uint {
	if v, ok := ctx.Value(ctxKeyOrgID).(uint); ok {
		return v
	}
	return 0
}

// WithOrgID attaches the tenant to the context.
func WithOrgID(ctx context.Context, orgID uint) context.Context {
	return context.WithValue(ctx, ctxKeyOrgID, orgID)
}

// UserIDFromContext returns the acting user for the current request, or 0.
func UserIDFromContext(ctx context.Context) uint {
	if v, ok := ctx.Value(ctxKeyUserID).(uint); ok {
		return v
	}
	return 0
}

// WithUserID attaches the acting user to the context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}
