package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tabgate/internal/auth/service"
	"github.com/aussiebroadwan/tabgate/pkg/authsdk"
	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
)

// sessionAuthenticator adapts LoginService to httpx.Authenticator.
type sessionAuthenticator struct {
	login *service.LoginService
}

func (a sessionAuthenticator) Authenticate(ctx context.Context, token string) (httpx.Principal, error) {
	id, err := a.login.Authenticate(ctx, token)
	if err != nil {
		return httpx.Principal{}, err
	}
	return httpx.Principal{
		UserID:    id.Session.UserID,
		SessionID: id.Session.ID,
		Email:     id.Email,
		Level:     string(id.Session.Level),
		AMR:       id.Session.AMR,
		ExpiresAt: id.Session.ExpiresAt,
	}, nil
}

// resumeRemembered signs the caller back in from a remember-me cookie when
// the request carried no valid session. The rotated cookie and the new
// session cookie are set on the response.
func resumeRemembered(login *service.LoginService, cookies Cookies, clientIP httpx.KeyExtractor) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, ok := httpx.PrincipalFromContext(ctx); ok {
				next.ServeHTTP(w, r)
				return
			}
			raw := cookieValue(r, rememberCookie)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			log := slogx.FromContext(ctx)
			res, err := login.ResumeRemembered(ctx, raw, clientIP(r))
			if err != nil {
				log.Warn("remember-me cookie rejected", "err", err)
				cookies.clear(w, rememberCookie, "/")
				next.ServeHTTP(w, r)
				return
			}

			cookies.setSession(w, res.SessionToken, res.Session.ExpiresAt)
			if res.Remember != nil {
				cookies.setRemember(w, *res.Remember)
			}

			ctx = httpx.WithPrincipal(ctx, httpx.Principal{
				UserID:    res.User.ID,
				SessionID: res.Session.ID,
				Email:     res.User.Email,
				Level:     string(res.Session.Level),
				AMR:       res.Session.AMR,
				ExpiresAt: res.Session.ExpiresAt,
			})
			ctx = slogx.With(ctx, "user_id", res.User.ID, "sid", res.Session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// recordTarget stores the path of an anonymous GET so the next login lands
// there. Browsers asking for HTML are sent to the login page.
func recordTarget(cookies Cookies) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := httpx.PrincipalFromContext(r.Context()); ok || r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			target := service.SanitizeTarget(r.URL.RequestURI(), "")
			if target != "" {
				cookies.setTarget(w, target)
			}
			if strings.Contains(r.Header.Get("Accept"), "text/html") {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionHandler handles GET /v1/session
//
//	@Summary		Current session
//	@Description	Describes the caller's session: user, assurance level and the methods used to establish it.
//	@Tags			Session
//	@Security		SessionCookie
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.SessionResponse	"Current session"
//	@Failure		401	{object}	authsdk.ErrorResponse	"No valid session"
//	@Router			/v1/session [get].
func SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := httpx.PrincipalFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, httpx.ErrUnauthorized)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{
			UserID:    p.UserID,
			Email:     p.Email,
			SessionID: p.SessionID,
			Level:     p.Level,
			AMR:       p.AMR,
			ExpiresAt: p.ExpiresAt,
		})
	}
}
