package middleware

import (
	"context"

	"github.com/compreg/compreg/internal/service"
)

type contextKey int

const (
	claimsKey contextKey = iota
	requestInfoKey
)

// requestInfo is filled in by inner handlers so the outer logging
// middleware can report who made the request.
type requestInfo struct {
	userID string
}

// WithClaims stores claims on ctx and reports the user to the logging
// middleware.
func WithClaims(ctx context.Context, claims *service.Claims) context.Context {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.userID = claims.UserID
	}
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the session claims set by RequireScope.
func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*service.Claims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user id, or "" when the
// request is anonymous.
func UserIDFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return ""
}
