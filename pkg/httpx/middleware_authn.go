package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tabgate/pkg/slogx"
)

// Authenticator resolves a raw session token into the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// TokenExtractor pulls the raw session token out of a request.
type TokenExtractor func(*http.Request) string

// BearerOrCookie reads a Bearer Authorization header, falling back to the
// named cookie.
func BearerOrCookie(cookieName string) TokenExtractor {
	return func(r *http.Request) string {
		if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		}
		if c, err := r.Cookie(cookieName); err == nil {
			return c.Value
		}
		return ""
	}
}

// AuthnMiddleware attaches the Principal for a valid session token. Requests
// without a usable token pass through anonymously; use RequireAuthenticated
// to reject them.
func AuthnMiddleware(a Authenticator, extract TokenExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extract(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			p, err := a.Authenticate(ctx, raw)
			if err != nil {
				slogx.FromContext(ctx).Debug("session token rejected", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithPrincipal(ctx, p)
			ctx = slogx.With(ctx, "user_id", p.UserID, "sid", p.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
