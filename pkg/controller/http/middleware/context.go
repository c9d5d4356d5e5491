package middleware

import (
	"context"

	"github.com/m-mizutani/nagare/pkg/domain/types"
)

type contextKey string

const (
	userIDContextKey contextKey = "user_id"
)

// ContextWithUserID adds a verified user ID to the context
func ContextWithUserID(ctx context.Context, userID types.UserID) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts the verified user ID from the context
func UserIDFromContext(ctx context.Context) (types.UserID, bool) {
	userID, ok := ctx.Value(userIDContextKey).(types.UserID)
	return userID, ok
}
