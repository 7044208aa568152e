package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/tabgate/internal/auth/service"
	"github.com/aussiebroadwan/tabgate/pkg/authsdk"
	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
)

// UsersHandler serves account endpoints.
type UsersHandler struct {
	UserService *service.UserService
}

// HandleRegister handles POST /v1/users
//
//	@Summary		Register an account
//	@Description	Creates an account with a password. Two-factor authentication is enrolled afterwards from a logged-in session.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"Email and password"
//	@Success		201		{object}	authsdk.UserResponse	"Created account"
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid email or weak password"
//	@Failure		409		{object}	authsdk.ErrorResponse	"Email already registered"
//	@Router			/v1/users [post].
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		httpx.WriteError(w, httpx.ErrBadRequest)
		return
	}

	u, err := h.UserService.Register(ctx, req.Email, req.Password)
	if err != nil {
		log.Warn("registration failed", "err", err)
		writeServiceError(w, r, err)
		return
	}

	log.Info("user registered", "user_id", u.ID)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		TOTPEnabled: u.TOTPEnabled(),
		CreatedAt:   u.CreatedAt,
	})
}

// HandleChangePassword handles POST /v1/password
//
//	@Summary		Change password
//	@Description	Replaces the caller's password after checking the current one. Every remember-me cookie of the account stops working.
//	@Tags			Users
//	@Security		SessionCookie
//	@Accept			json
//	@Param			request	body	authsdk.ChangePasswordRequest	true	"Current and new password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"Weak password"
//	@Failure		401	{object}	authsdk.ErrorResponse	"Wrong current password or no session"
//	@Router			/v1/password [post].
func (h *UsersHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	p, _ := httpx.PrincipalFromContext(ctx)

	var req authsdk.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		httpx.WriteError(w, httpx.ErrBadRequest)
		return
	}

	if err := h.UserService.ChangePassword(ctx, p.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		log.Warn("password change failed", "err", err)
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
