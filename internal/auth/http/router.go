package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/internal/auth/service"
	"github.com/aussiebroadwan/tabgate/internal/auth/store"
	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/aussiebroadwan/tabgate/pkg/jwtx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"

	_ "github.com/aussiebroadwan/tabgate/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	csrf     *httpx.DoubleSubmitCSRF
	clientIP httpx.KeyExtractor
	authn    httpx.Middleware

	// Cookies controls the Secure and Domain attributes of every cookie.
	Cookies Cookies
	// TrustProxy takes the client address from X-Forwarded-For.
	TrustProxy bool
	// ThrottleHealth is checked by /readyz when the throttle is remote.
	ThrottleHealth Pinger

	LoginService *service.LoginService
	UserService  *service.UserService
	MFAService   *service.MFAService
}

func NewRouter(
	keys *jwtx.KeySet,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecurityHeaders,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.csrf = httpx.NewDoubleSubmitCSRF(r.Cookies.Secure)
	r.clientIP = httpx.ClientIP(r.TrustProxy)
	r.authn = httpx.AuthnMiddleware(
		sessionAuthenticator{login: r.LoginService},
		httpx.BearerOrCookie(sessionCookie),
	)

	r.registerLogin()
	r.registerSession()
	r.registerUsers()
	r.registerMFA()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Tabgate Login Service API
//	@version		0.1.0
//	@description	Self-hosted email and password login with optional TOTP two-factor authentication and remember-me cookies.
//	@description
//	@description				Browser clients hold the session in a cookie. Form posts must echo the tabgate_csrf cookie as _csrf_token or X-CSRF-Token.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/tabgate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						tabgate_session
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// protected wraps h for endpoints that need a session. A remember-me cookie
// is exchanged for a new session before the check.
func (r *Router) protected(h http.Handler, limit httpx.RateLimitConfig, levels ...domain.Level) http.Handler {
	mws := []httpx.Middleware{
		httpx.RateLimitByIP(limit, r.clientIP),
		r.authn,
		resumeRemembered(r.LoginService, r.Cookies, r.clientIP),
		recordTarget(r.Cookies),
		httpx.RequireAuthenticated,
		httpx.RequireCSRF(r.csrf),
	}
	if len(levels) > 0 {
		names := make([]string, len(levels))
		for i, l := range levels {
			names[i] = string(l)
		}
		mws = append(mws, httpx.RequireLevel(names...))
	}
	return httpx.Chain(h, mws...)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{
		LoginService: r.LoginService,
		CSRF:         r.csrf,
		Cookies:      r.Cookies,
		ClientIP:     r.clientIP,
	}

	// GET /login - lenient rate limit (form data only)
	r.Mux.Handle("GET /login",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit, r.clientIP),
		),
	)

	// POST /login - strict rate limit by IP + email on top of the failure throttle
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, r.clientIP, "email"),
			httpx.RequireCSRF(r.csrf),
		),
	)

	// POST /login/2fa - strict rate limit (code guessing)
	r.Mux.Handle("POST /login/2fa",
		httpx.Chain(http.HandlerFunc(h.HandleTOTP),
			httpx.RateLimitByIP(httpx.StrictLimit, r.clientIP),
			httpx.RequireCSRF(r.csrf),
		),
	)

	// POST /logout - works without a session so stale cookies can be cleared
	logout := &LogoutHandler{LoginService: r.LoginService, Cookies: r.Cookies}
	r.Mux.Handle("POST /logout",
		httpx.Chain(logout,
			httpx.RateLimitByIP(httpx.ModerateLimit, r.clientIP),
			r.authn,
			httpx.RequireCSRF(r.csrf),
		),
	)
}

func (r *Router) registerSession() {
	r.Mux.Handle("GET /v1/session", r.protected(SessionHandler(), httpx.LenientLimit))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	// POST /v1/users - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /v1/users",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit, r.clientIP),
		),
	)

	r.Mux.Handle("POST /v1/password",
		r.protected(http.HandlerFunc(h.HandleChangePassword), httpx.StrictLimit))
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	// Enrollment requires a full session.
	r.Mux.Handle("POST /v1/2fa/enable",
		r.protected(http.HandlerFunc(h.HandleEnable), httpx.ModerateLimit, domain.LevelFull))
	r.Mux.Handle("GET /v1/2fa/qr-code",
		r.protected(http.HandlerFunc(h.HandleQRCode), httpx.ModerateLimit, domain.LevelFull))
	r.Mux.Handle("POST /v1/2fa/confirm",
		r.protected(http.HandlerFunc(h.HandleConfirm), httpx.StrictLimit, domain.LevelFull))

	// DELETE /v1/2fa - strict rate limit, a current code is checked by the service
	r.Mux.Handle("DELETE /v1/2fa",
		r.protected(http.HandlerFunc(h.HandleDisable), httpx.StrictLimit))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit, r.clientIP),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.ThrottleHealth),
			httpx.RateLimitByIP(httpx.LenientLimit, r.clientIP),
		),
	)

	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit, r.clientIP),
		),
	)
}
