package http

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/service"
	"github.com/aussiebroadwan/tabgate/pkg/authsdk"
)

const (
	sessionCookie  = authsdk.SessionCookie
	rememberCookie = authsdk.RememberCookie
	attemptCookie  = "tabgate_attempt"
	targetCookie   = "tabgate_target"

	flashErrorCookie = "tabgate_login_error"
	flashEmailCookie = "tabgate_login_email"

	flashTTL  = time.Minute
	targetTTL = 10 * time.Minute
)

// Cookies writes the service's cookies with a common Secure and Domain
// setting.
type Cookies struct {
	Secure bool
	Domain string
	Now    func() time.Time
}

func (c Cookies) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Cookies) set(w http.ResponseWriter, name, value, path string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   c.Domain,
		Expires:  expires,
		MaxAge:   max(int(expires.Sub(c.now()).Seconds()), 1),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) clear(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   c.Domain,
		MaxAge:   -1,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) setSession(w http.ResponseWriter, token string, expires time.Time) {
	c.set(w, sessionCookie, token, "/", expires)
}

func (c Cookies) setRemember(w http.ResponseWriter, rt service.RememberToken) {
	c.set(w, rememberCookie, rt.CookieValue(), "/", rt.ExpiresAt)
}

func (c Cookies) setAttempt(w http.ResponseWriter, attemptID string, expires time.Time) {
	c.set(w, attemptCookie, attemptID, "/login", expires)
}

func (c Cookies) setTarget(w http.ResponseWriter, target string) {
	c.set(w, targetCookie, target, "/", c.now().Add(targetTTL))
}

// setFlash stores the outcome of a failed login for the next GET /login.
func (c Cookies) setFlash(w http.ResponseWriter, email, message string) {
	exp := c.now().Add(flashTTL)
	c.set(w, flashErrorCookie, encodeFlash(message), "/login", exp)
	if email != "" {
		c.set(w, flashEmailCookie, encodeFlash(email), "/login", exp)
	}
}

func (c Cookies) clearFlash(w http.ResponseWriter) {
	c.clear(w, flashErrorCookie, "/login")
	c.clear(w, flashEmailCookie, "/login")
}

// readFlash returns the decoded value of a flash cookie, or "".
func readFlash(r *http.Request, name string) string {
	ck, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	b, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return ""
	}
	return string(b)
}

func encodeFlash(v string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(v))
}

func cookieValue(r *http.Request, name string) string {
	if ck, err := r.Cookie(name); err == nil {
		return ck.Value
	}
	return ""
}
