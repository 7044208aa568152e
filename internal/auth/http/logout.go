package http

import (
	"net/http"

	"github.com/aussiebroadwan/tabgate/internal/auth/service"
	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
)

// LogoutHandler ends the caller's session.
type LogoutHandler struct {
	LoginService *service.LoginService
	Cookies      Cookies
}

// ServeHTTP handles POST /logout
//
//	@Summary		Log out
//	@Description	Deletes the current session, revokes the remember-me series and clears both cookies.
//	@Description	Succeeds without a session so a stale browser can always clear its cookies.
//	@Tags			Login
//	@Param			_csrf_token	formData	string	true	"CSRF token"
//	@Success		204
//	@Failure		403	{object}	authsdk.ErrorResponse	"Invalid CSRF token"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var sessionID string
	if p, ok := httpx.PrincipalFromContext(ctx); ok {
		sessionID = p.SessionID
	}
	seriesID, _, _ := service.ParseRememberCookie(cookieValue(r, rememberCookie))

	if err := h.LoginService.Logout(ctx, sessionID, seriesID); err != nil {
		log.Error("logout failed", "err", err)
		httpx.WriteError(w, httpx.ErrInternal)
		return
	}

	h.Cookies.clear(w, sessionCookie, "/")
	h.Cookies.clear(w, rememberCookie, "/")
	h.Cookies.clear(w, attemptCookie, "/login")

	log.Info("logged out")
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
