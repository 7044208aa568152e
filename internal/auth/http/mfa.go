package http

import (
	"encoding/json"
	"image/png"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/tabgate/internal/auth/service"
	"github.com/aussiebroadwan/tabgate/pkg/authsdk"
	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
)

const (
	defaultQRSize = 200
	maxQRSize     = 1024
)

// MFAHandler handles all two-factor enrollment endpoints.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleEnable handles POST /v1/2fa/enable
//
//	@Summary		Start TOTP enrollment
//	@Description	Generates a new secret for the caller and returns it with its otpauth URI. Calling it again replaces an unconfirmed secret.
//	@Description	Login keeps needing only the password until POST /v1/2fa/confirm succeeds.
//	@Tags			2FA
//	@Security		SessionCookie
//	@Produce		json
//	@Success		200	{object}	authsdk.TOTPEnrollResponse	"Unconfirmed secret"
//	@Failure		401	{object}	authsdk.ErrorResponse		"No valid session"
//	@Failure		403	{object}	authsdk.ErrorResponse		"Session not fully authenticated"
//	@Failure		409	{object}	authsdk.ErrorResponse		"Already enabled"
//	@Router			/v1/2fa/enable [post].
func (h *MFAHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	p, _ := httpx.PrincipalFromContext(ctx)

	enrollment, err := h.MFAService.Enable(ctx, p.UserID)
	if err != nil {
		log.Warn("TOTP enrollment failed", "err", err)
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPEnrollResponse{
		Secret:  enrollment.Secret,
		URI:     enrollment.URI,
		Issuer:  enrollment.Issuer,
		Account: enrollment.Account,
	})
}

// HandleQRCode handles GET /v1/2fa/qr-code
//
//	@Summary		Enrollment QR code
//	@Description	Renders the provisioning URI of the pending enrollment as a PNG.
//	@Tags			2FA
//	@Security		SessionCookie
//	@Produce		png
//	@Param			size	query		int	false	"Image width and height in pixels (default 200)"
//	@Success		200		{file}		binary
//	@Failure		401		{object}	authsdk.ErrorResponse	"No valid session"
//	@Failure		409		{object}	authsdk.ErrorResponse	"No enrollment started"
//	@Router			/v1/2fa/qr-code [get].
func (h *MFAHandler) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	p, _ := httpx.PrincipalFromContext(ctx)

	size := defaultQRSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 64 || n > maxQRSize {
			httpx.WriteError(w, httpx.ErrBadRequest)
			return
		}
		size = n
	}

	img, err := h.MFAService.QRCode(ctx, p.UserID, size)
	if err != nil {
		log.Warn("QR code unavailable", "err", err)
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, img); err != nil {
		log.Error("failed to encode QR code", "err", err)
	}
}

// HandleConfirm handles POST /v1/2fa/confirm
//
//	@Summary		Confirm TOTP enrollment
//	@Description	Checks a code generated from the pending secret and turns on two-factor login.
//	@Tags			2FA
//	@Security		SessionCookie
//	@Accept			json
//	@Param			request	body	authsdk.TOTPCodeRequest	true	"TOTP code"
//	@Success		204
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid code or no session"
//	@Failure		409	{object}	authsdk.ErrorResponse	"No enrollment started or already enabled"
//	@Router			/v1/2fa/confirm [post].
func (h *MFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	p, _ := httpx.PrincipalFromContext(ctx)

	var req authsdk.TOTPCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		httpx.WriteError(w, httpx.ErrBadRequest)
		return
	}

	if err := h.MFAService.Confirm(ctx, p.UserID, req.Code); err != nil {
		log.Warn("TOTP confirmation failed", "err", err)
		writeServiceError(w, r, err)
		return
	}

	log.Info("TOTP enabled")
	w.WriteHeader(http.StatusNoContent)
}

// HandleDisable handles DELETE /v1/2fa
//
//	@Summary		Disable TOTP
//	@Description	Turns off two-factor login. A current code is required and pending login challenges are dropped.
//	@Tags			2FA
//	@Security		SessionCookie
//	@Accept			json
//	@Param			request	body	authsdk.TOTPCodeRequest	true	"TOTP code"
//	@Success		204
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid code or no session"
//	@Failure		409	{object}	authsdk.ErrorResponse	"Not enabled"
//	@Router			/v1/2fa [delete].
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	p, _ := httpx.PrincipalFromContext(ctx)

	var req authsdk.TOTPCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("failed to parse request", "err", err)
		httpx.WriteError(w, httpx.ErrBadRequest)
		return
	}

	if err := h.MFAService.Disable(ctx, p.UserID, req.Code); err != nil {
		log.Warn("TOTP disable failed", "err", err)
		writeServiceError(w, r, err)
		return
	}

	log.Info("TOTP disabled")
	w.WriteHeader(http.StatusNoContent)
}
