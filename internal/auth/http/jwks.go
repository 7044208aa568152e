package http

import (
	"net/http"

	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/aussiebroadwan/tabgate/pkg/jwtx"
)

// JWKSHandler exposes the keys that verify session tokens.
//
//	@Summary		Get JWKS
//	@Description	Returns the Ed25519 keys used to sign session tokens.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get].
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}
