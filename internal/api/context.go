package api

import "context"

type contextKey string

const userIDKey contextKey = "userID"

// UserIDFromContext returns the authenticated user ID, or "" if none was set.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)

	return userID
}

// ContextWithUserID returns a copy of ctx carrying userID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return withUserID(ctx, userID)
}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
