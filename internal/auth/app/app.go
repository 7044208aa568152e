package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpapi "github.com/aussiebroadwan/tabgate/internal/auth/http"
	"github.com/aussiebroadwan/tabgate/internal/auth/events"
	"github.com/aussiebroadwan/tabgate/internal/auth/service"
	"github.com/aussiebroadwan/tabgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tabgate/internal/auth/throttle"
	"github.com/aussiebroadwan/tabgate/pkg/cryptox"
	"github.com/aussiebroadwan/tabgate/pkg/httpx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
	"github.com/aussiebroadwan/tabgate/pkg/totpx"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application holds the login service and everything it depends on.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       *sqlite.Store
	keys     *sessionKeys
	throttle throttle.Throttle
	redis    *redis.Client
	kafka    *events.KafkaSink
	sink     events.Sink

	loginService        *service.LoginService
	userService         *service.UserService
	mfaService          *service.MFAService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. Close must be
// called if Run is not.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tabgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keys, err := initSessionKeys(cfg, app.logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.keys = keys

	if err := app.initThrottle(); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.initEvents(); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run serves HTTP and runs housekeeping until ctx is cancelled, then shuts
// both down within the configured grace period.
func (app *Application) Run(ctx context.Context) error {
	defer app.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info("tabgate starting", "port", app.cfg.Port, "version", BuildVersion)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		app.housekeepingService.Start()
		<-gctx.Done()
		app.housekeepingService.Stop()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutting down tabgate...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
		defer cancel()
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("graceful server shutdown failed", "error", err)
			return app.server.Close()
		}
		return nil
	})

	err := g.Wait()
	app.logger.Info("tabgate stopped")
	return err
}

// Close releases the database, Redis and Kafka connections.
func (app *Application) Close() {
	if app.kafka != nil {
		if err := app.kafka.Close(); err != nil {
			app.logger.Error("error closing kafka writer", "error", err)
		}
		app.kafka = nil
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
		app.redis = nil
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
		}
		app.db = nil
	}
}

// Handler exposes the HTTP router.
func (app *Application) Handler() http.Handler { return app.router }

// initDatabase opens the database and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate",
		app.cfg.DatabaseFile,
	)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		app.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "path", app.cfg.DatabaseFile)
	return nil
}

// initThrottle picks the Redis throttle when REDIS_URL is set so several
// instances share one failure count, and the in-memory one otherwise.
func (app *Application) initThrottle() error {
	cfg := throttle.Config{
		MaxAttempts: app.cfg.ThrottleMax,
		Window:      app.cfg.ThrottleWindow,
		BaseDelay:   app.cfg.ThrottleBase,
		MaxDelay:    app.cfg.ThrottleMaxWait,
	}

	if app.cfg.RedisURL == "" {
		app.throttle = throttle.NewMemory(cfg)
		app.logger.Info("using in-memory login throttle")
		return nil
	}

	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	app.redis = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}

	app.throttle = throttle.NewRedis(app.redis, cfg)
	app.logger.Info("using redis login throttle", "addr", opts.Addr)
	return nil
}

// initEvents always logs security events and also publishes them to Kafka
// when brokers are configured.
func (app *Application) initEvents() error {
	sinks := events.Multi{events.LogSink{}}

	if brokers := app.cfg.KafkaBrokerList(); len(brokers) > 0 {
		k, err := events.NewKafkaSink(brokers, app.cfg.KafkaTopic, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize kafka sink: %w", err)
		}
		app.kafka = k
		sinks = append(sinks, k)
		app.logger.Info("publishing security events to kafka", "brokers", brokers, "topic", app.cfg.KafkaTopic)
	}

	app.sink = sinks
	return nil
}

// initServices builds the login, account and housekeeping services.
func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	hasher, err := cryptox.NewPasswordHasher(cryptox.DefaultArgon2Params, pepper)
	if err != nil {
		return err
	}

	engine := totpx.New(app.cfg.TOTPIssuer)

	sessions := &service.Sessions{
		Store:    app.db,
		Signer:   app.keys.signer,
		Verifier: app.keys.verifier,
		Issuer:   app.cfg.Issuer,
		Audience: app.cfg.AudienceList(),
		TTL:      app.cfg.SessionTTL,
	}
	remember := &service.RememberService{
		Store:  app.db,
		Events: app.sink,
		TTL:    app.cfg.RememberTTL,
	}

	app.loginService = &service.LoginService{
		Store:          app.db,
		Hasher:         hasher,
		TOTP:           engine,
		Throttle:       app.throttle,
		Sessions:       sessions,
		Remember:       remember,
		Events:         app.sink,
		AttemptTTL:     app.cfg.AttemptTTL,
		DefaultLanding: app.cfg.DefaultLanding,
	}
	app.userService = &service.UserService{
		Store:             app.db,
		Hasher:            hasher,
		Remember:          remember,
		Events:            app.sink,
		MinPasswordLength: app.cfg.MinPasswordLen,
	}
	app.mfaService = &service.MFAService{
		Store:  app.db,
		TOTP:   engine,
		Events: app.sink,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.throttle,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP applies the rate limit profiles and builds the router and server.
func (app *Application) initHTTP() {
	httpx.StrictLimit = perMinute(app.cfg.RateLimitStrict)
	httpx.ModerateLimit = perMinute(app.cfg.RateLimitModerate)
	httpx.LenientLimit = perMinute(app.cfg.RateLimitLenient)

	router := httpapi.NewRouter(app.keys.keySet, BuildVersion, app.db, app.logger)
	router.Cookies = httpapi.Cookies{
		Secure: app.cfg.CookieSecure,
		Domain: app.cfg.CookieDomain,
	}
	router.TrustProxy = app.cfg.TrustProxy
	if r, ok := app.throttle.(*throttle.Redis); ok {
		router.ThrottleHealth = r
	}

	router.LoginService = app.loginService
	router.UserService = app.userService
	router.MFAService = app.mfaService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func perMinute(n int) httpx.RateLimitConfig {
	return httpx.RateLimitConfig{RequestsPerWindow: n, Window: time.Minute, Burst: n}
}
