package httpx

import (
	"context"
	"slices"
	"time"
)

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID    string
	SessionID string
	Email     string
	Level     string
	AMR       []string
	ExpiresAt time.Time
}

// HasMethod reports whether the session was established using method.
func (p Principal) HasMethod(method string) bool {
	return slices.Contains(p.AMR, method)
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the caller set by the session middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(Principal)
	return p, ok
}
