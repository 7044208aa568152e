package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/tabgate/internal/auth/service"
	"github.com/aussiebroadwan/tabgate/pkg/authsdk"
	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
)

// LoginHandler serves the login form endpoints.
type LoginHandler struct {
	LoginService *service.LoginService
	CSRF         *httpx.DoubleSubmitCSRF
	Cookies      Cookies
	ClientIP     httpx.KeyExtractor
}

// HandleGet handles GET /login
//
//	@Summary		Login form data
//	@Description	Returns the CSRF token for the login form together with the error and email of the previous failed attempt, if any.
//	@Description	The flash values are cleared once read.
//	@Tags			Login
//	@Produce		json
//	@Success		200	{object}	authsdk.LoginPageResponse	"CSRF token and last attempt"
//	@Failure		500	{object}	authsdk.ErrorResponse		"Internal server error"
//	@Router			/login [get].
func (h *LoginHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	token, err := h.CSRF.Issue(w, r)
	if err != nil {
		log.Error("failed to issue CSRF token", "err", err)
		httpx.WriteError(w, httpx.ErrInternal)
		return
	}

	page := authsdk.LoginPageResponse{
		CSRFToken:   token,
		Email:       readFlash(r, flashEmailCookie),
		Error:       readFlash(r, flashErrorCookie),
		TOTPPending: cookieValue(r, attemptCookie) != "",
	}
	h.Cookies.clearFlash(w)

	httpx.WriteJSON(w, http.StatusOK, page)
}

// HandlePost handles POST /login
//
//	@Summary		Submit email and password
//	@Description	Checks the credentials. Without two-factor authentication the session cookie is set and the response redirects to the deep-link target or the landing page.
//	@Description	With two-factor authentication enabled a challenge cookie is set and 409 totp_required is returned; continue with POST /login/2fa.
//	@Description	Unknown email and wrong password are indistinguishable.
//	@Tags			Login
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			email			formData	string	true	"Email address"
//	@Param			password		formData	string	true	"Password"
//	@Param			_csrf_token		formData	string	true	"CSRF token from GET /login"
//	@Param			_remember_me	formData	string	false	"Set to on to issue a remember-me cookie"
//	@Success		303
//	@Failure		400	{object}	authsdk.ErrorResponse			"Missing email or password"
//	@Failure		401	{object}	authsdk.ErrorResponse			"invalid credentials"
//	@Failure		403	{object}	authsdk.ErrorResponse			"Invalid CSRF token"
//	@Failure		409	{object}	authsdk.TOTPChallengeResponse	"TOTP code required"
//	@Failure		429	{object}	authsdk.ErrorResponse			"Too many attempts, see Retry-After"
//	@Router			/login [post].
func (h *LoginHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		h.Cookies.setFlash(w, email, "Email and password are required.")
		httpx.WriteError(w, httpx.ErrBadRequest)
		return
	}

	res, err := h.LoginService.SubmitCredentials(ctx, service.CredentialsRequest{
		Email:      email,
		Password:   password,
		IP:         h.ClientIP(r),
		RememberMe: checked(r.PostFormValue("_remember_me")),
		TargetPath: cookieValue(r, targetCookie),
	})

	var challenge *service.TOTPRequiredError
	switch {
	case errors.As(err, &challenge):
		log.Info("login awaiting TOTP")
		h.Cookies.setAttempt(w, challenge.AttemptID, challenge.ExpiresAt)
		h.Cookies.clearFlash(w)
		httpx.WriteJSON(w, http.StatusConflict, authsdk.TOTPChallengeResponse{
			Error:            authsdk.ErrorCodeTOTPRequired,
			ErrorDescription: "A code from your authenticator app is required.",
			ExpiresAt:        challenge.ExpiresAt,
		})
	case err != nil:
		log.Warn("login failed", "err", err)
		apiErr, _ := toAPIError(err)
		h.Cookies.setFlash(w, email, apiErr.Description)
		writeServiceError(w, r, err)
	default:
		h.complete(w, r, res)
	}
}

// HandleTOTP handles POST /login/2fa
//
//	@Summary		Submit TOTP code
//	@Description	Completes the challenge opened by POST /login. A wrong code ends the challenge and the password must be entered again.
//	@Tags			Login
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			code		formData	string	true	"6-digit TOTP code"
//	@Param			_csrf_token	formData	string	true	"CSRF token from GET /login"
//	@Success		303
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid code or expired challenge"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Invalid CSRF token"
//	@Router			/login/2fa [post].
func (h *LoginHandler) HandleTOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	attemptID := cookieValue(r, attemptCookie)
	if attemptID == "" {
		httpx.WriteError(w, errAttemptExpired)
		return
	}

	res, err := h.LoginService.SubmitTOTP(ctx, service.TOTPRequest{
		AttemptID: attemptID,
		Code:      strings.TrimSpace(r.PostFormValue("code")),
		IP:        h.ClientIP(r),
	})
	if err != nil {
		log.Warn("TOTP verification failed", "err", err)
		if errors.Is(err, service.ErrAttemptExpired) || errors.Is(err, service.ErrInvalidTOTPCode) {
			h.Cookies.clear(w, attemptCookie, "/login")
		}
		apiErr, _ := toAPIError(err)
		h.Cookies.setFlash(w, "", apiErr.Description)
		writeServiceError(w, r, err)
		return
	}

	h.Cookies.clear(w, attemptCookie, "/login")
	h.complete(w, r, res)
}

// complete sets the session cookies for an authenticated login and redirects.
func (h *LoginHandler) complete(w http.ResponseWriter, r *http.Request, res *service.LoginResult) {
	h.Cookies.setSession(w, res.SessionToken, res.Session.ExpiresAt)
	if res.Remember != nil {
		h.Cookies.setRemember(w, *res.Remember)
	}
	h.Cookies.clear(w, targetCookie, "/")
	h.Cookies.clearFlash(w)

	slogx.FromContext(r.Context()).Info("login complete",
		"user_id", res.User.ID,
		"sid", res.Session.ID,
		"level", res.Session.Level,
	)
	httpx.NoCache(w)
	http.Redirect(w, r, res.RedirectTo, http.StatusSeeOther)
}

func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
