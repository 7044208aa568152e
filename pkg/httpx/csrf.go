package httpx

import (
	"crypto/subtle"
	"net/http"

	"github.com/aussiebroadwan/tabgate/pkg/cryptox"
)

// CSRFValidator decides whether a state-changing request carries a valid
// anti-forgery token.
type CSRFValidator interface {
	Validate(r *http.Request) bool
}

// DoubleSubmitCSRF compares a cookie token with the same value echoed in a
// form field or header.
type DoubleSubmitCSRF struct {
	CookieName string
	FieldName  string
	HeaderName string
	Secure     bool
}

// NewDoubleSubmitCSRF returns a validator using the login form's field name.
func NewDoubleSubmitCSRF(secure bool) *DoubleSubmitCSRF {
	return &DoubleSubmitCSRF{
		CookieName: "tabgate_csrf",
		FieldName:  "_csrf_token",
		HeaderName: "X-CSRF-Token",
		Secure:     secure,
	}
}

// Issue returns the current token, minting and setting a cookie if needed.
func (c *DoubleSubmitCSRF) Issue(w http.ResponseWriter, r *http.Request) (string, error) {
	if ck, err := r.Cookie(c.CookieName); err == nil && ck.Value != "" {
		return ck.Value, nil
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.CookieName,
		Value:    token,
		Path:     "/",
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// Validate implements CSRFValidator.
func (c *DoubleSubmitCSRF) Validate(r *http.Request) bool {
	ck, err := r.Cookie(c.CookieName)
	if err != nil || ck.Value == "" {
		return false
	}

	sent := r.Header.Get(c.HeaderName)
	if sent == "" {
		sent = r.PostFormValue(c.FieldName)
	}
	if sent == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(ck.Value), []byte(sent)) == 1
}

// RequireCSRF rejects unsafe-method requests failing v.
func RequireCSRF(v CSRFValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				if !v.Validate(r) {
					WriteError(w, ErrCSRF)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
