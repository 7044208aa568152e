package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator map[string]httpx.Principal

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (httpx.Principal, error) {
	p, ok := s[token]
	if !ok {
		return httpx.Principal{}, errors.New("unknown token")
	}
	return p, nil
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	auth := stubAuthenticator{
		"good": {UserID: "u1", SessionID: "s1", Level: "full", AMR: []string{"pwd", "otp"}},
	}

	var got httpx.Principal
	var found bool
	probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = httpx.PrincipalFromContext(r.Context())
	})
	h := httpx.AuthnMiddleware(auth, httpx.BearerOrCookie("tabgate_session"))(probe)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		h.ServeHTTP(httptest.NewRecorder(), req)
		require.True(t, found)
		require.Equal(t, "u1", got.UserID)
		require.True(t, got.HasMethod("otp"))
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "tabgate_session", Value: "good"})
		h.ServeHTTP(httptest.NewRecorder(), req)
		require.True(t, found)
	})

	t.Run("invalid token passes through anonymously", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad")
		h.ServeHTTP(httptest.NewRecorder(), req)
		require.False(t, found)
	})
}

func TestRequireLevel(t *testing.T) {
	h := httpx.RequireLevel("full")(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	for level, want := range map[string]int{"full": http.StatusOK, "password": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(httpx.WithPrincipal(req.Context(), httpx.Principal{UserID: "u", Level: level}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, "level %s", level)
	}

	rec = httptest.NewRecorder()
	httpx.RequireAuthenticated(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDoubleSubmitCSRF(t *testing.T) {
	csrf := httpx.NewDoubleSubmitCSRF(false)

	issueRec := httptest.NewRecorder()
	token, err := csrf.Issue(issueRec, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)
	require.NotEmpty(t, token)
	cookies := issueRec.Result().Cookies()
	require.Len(t, cookies, 1)

	h := httpx.RequireCSRF(csrf)(okHandler)
	post := func(cookie, field string) int {
		form := url.Values{}
		if field != "" {
			form.Set("_csrf_token", field)
		}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "tabgate_csrf", Value: cookie})
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, post(token, token))
	require.Equal(t, http.StatusForbidden, post(token, "other"))
	require.Equal(t, http.StatusForbidden, post("", token))
	require.Equal(t, http.StatusForbidden, post(token, ""))

	// reading pages never needs a token
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// an existing cookie is reused
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookies[0])
	again, err := csrf.Issue(httptest.NewRecorder(), req)
	require.NoError(t, err)
	require.Equal(t, token, again)
}

func TestSetRetryAfter(t *testing.T) {
	for d, want := range map[time.Duration]string{
		0:                       "1",
		300 * time.Millisecond:  "1",
		1500 * time.Millisecond: "2",
		time.Minute:             "60",
	} {
		rec := httptest.NewRecorder()
		httpx.SetRetryAfter(rec, d)
		require.Equal(t, want, rec.Header().Get("Retry-After"), "duration %s", d)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
