// Package gamecommon provides context management utilities shared across the
// game server: the authenticated player's identity and the internal test
// context marker. The player ID is an opaque token; the core never inspects
// its format.
package gamecommon

import (
	"context"
)

type ctxKeyType string

const (
	ctxUserIdKey      ctxKeyType = "GameUserId"
	ctxTestContextKey ctxKeyType = "GameTestContext"
)

// WithUserID sets the authenticated player's ID in the provided context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserIdKey, userID)
}

// GetUserID retrieves the authenticated player's ID from the provided
// context. Returns an empty string when no player is authenticated.
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(ctxUserIdKey).(string); ok {
		return userID
	}
	return ""
}

// WithTestContext marks the context as an internal test context.
func WithTestContext(ctx context.Context, isTest bool) context.Context {
	return context.WithValue(ctx, ctxTestContextKey, isTest)
}

// GetTestContext reports whether the context is an internal test context.
func GetTestContext(ctx context.Context) bool {
	if isTest, ok := ctx.Value(ctxTestContextKey).(bool); ok {
		return isTest
	}
	return false
}
