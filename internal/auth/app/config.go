package app

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment and an
// optional .env file.
type Config struct {
	Issuer         string `mapstructure:"AUTH_ISSUER"`          // iss claim of session tokens
	Audience       string `mapstructure:"AUTH_AUDIENCE"`        // aud claim of session tokens
	DatabaseFile   string `mapstructure:"AUTH_DATABASE_FILE"`   // path to the SQLite database
	PepperFile     string `mapstructure:"AUTH_PEPPER_FILE"`     // password pepper, created on first start
	SigningKeyFile string `mapstructure:"AUTH_SIGNING_KEY_FILE"` // Ed25519 PEM key, created on first start
	TOTPIssuer     string `mapstructure:"AUTH_TOTP_ISSUER"`     // issuer shown by authenticator apps

	SessionTTL      time.Duration `mapstructure:"AUTH_SESSION_TTL"`
	RememberTTL     time.Duration `mapstructure:"AUTH_REMEMBER_TTL"`
	AttemptTTL      time.Duration `mapstructure:"AUTH_ATTEMPT_TTL"`
	DefaultLanding  string        `mapstructure:"AUTH_DEFAULT_LANDING"`
	MinPasswordLen  int           `mapstructure:"AUTH_MIN_PASSWORD_LENGTH"`
	CookieSecure    bool          `mapstructure:"AUTH_COOKIE_SECURE"`
	CookieDomain    string        `mapstructure:"AUTH_COOKIE_DOMAIN"`
	TrustProxy      bool          `mapstructure:"AUTH_TRUST_PROXY"`
	ThrottleMax     int           `mapstructure:"AUTH_THROTTLE_MAX_ATTEMPTS"`
	ThrottleWindow  time.Duration `mapstructure:"AUTH_THROTTLE_WINDOW"`
	ThrottleBase    time.Duration `mapstructure:"AUTH_THROTTLE_BASE_DELAY"`
	ThrottleMaxWait time.Duration `mapstructure:"AUTH_THROTTLE_MAX_DELAY"`

	// RedisURL selects the Redis throttle when set, e.g. redis://localhost:6379/0.
	RedisURL string `mapstructure:"REDIS_URL"`
	// KafkaBrokers is a comma-separated broker list; security events are
	// published to KafkaTopic when set.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_SECURITY_TOPIC"`

	// Per-IP HTTP rate limit profiles, requests per minute.
	RateLimitStrict   int `mapstructure:"RATE_LIMIT_STRICT"`
	RateLimitModerate int `mapstructure:"RATE_LIMIT_MODERATE"`
	RateLimitLenient  int `mapstructure:"RATE_LIMIT_LENIENT"`

	Env                  string        `mapstructure:"ENV"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	LogFormat            string        `mapstructure:"LOG_FORMAT"`
	Port                 int           `mapstructure:"PORT"`
	ShutdownGracePeriod  time.Duration `mapstructure:"SHUTDOWN_GRACE_PERIOD"`
	HousekeepingInterval time.Duration `mapstructure:"HOUSEKEEPING_INTERVAL"`
}

var defaults = map[string]any{
	"AUTH_ISSUER":                "tabgate",
	"AUTH_AUDIENCE":              "tabgate",
	"AUTH_DATABASE_FILE":         "tabgate.db",
	"AUTH_PEPPER_FILE":           "pepper",
	"AUTH_SIGNING_KEY_FILE":      "signing.pem",
	"AUTH_TOTP_ISSUER":           "Tabgate",
	"AUTH_SESSION_TTL":           "12h",
	"AUTH_REMEMBER_TTL":          "720h",
	"AUTH_ATTEMPT_TTL":           "5m",
	"AUTH_DEFAULT_LANDING":       "/",
	"AUTH_MIN_PASSWORD_LENGTH":   12,
	"AUTH_COOKIE_SECURE":         true,
	"AUTH_COOKIE_DOMAIN":         "",
	"AUTH_TRUST_PROXY":           false,
	"AUTH_THROTTLE_MAX_ATTEMPTS": 5,
	"AUTH_THROTTLE_WINDOW":       "15m",
	"AUTH_THROTTLE_BASE_DELAY":   "15m",
	"AUTH_THROTTLE_MAX_DELAY":    "24h",
	"REDIS_URL":                  "",
	"KAFKA_BROKERS":              "",
	"KAFKA_SECURITY_TOPIC":       "tabgate-security-events",
	"RATE_LIMIT_STRICT":          10,
	"RATE_LIMIT_MODERATE":        30,
	"RATE_LIMIT_LENIENT":         120,
	"ENV":                        "dev",
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "json",
	"PORT":                       8080,
	"SHUTDOWN_GRACE_PERIOD":      "10s",
	"HOUSEKEEPING_INTERVAL":      "1h",
}

// LoadConfig reads .env (if present) and then the environment. Env vars
// override .env values.
func LoadConfig() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.Issuer == "":
		return errors.New("config: AUTH_ISSUER must be set")
	case c.Port <= 0 || c.Port > 65535:
		return errors.New("config: PORT must be between 1 and 65535")
	case c.SessionTTL <= 0 || c.RememberTTL <= 0 || c.AttemptTTL <= 0:
		return errors.New("config: session, remember and attempt TTLs must be positive")
	case !strings.HasPrefix(c.DefaultLanding, "/"):
		return errors.New("config: AUTH_DEFAULT_LANDING must be a local path")
	case c.Env == "prod" && !c.CookieSecure:
		return errors.New("config: AUTH_COOKIE_SECURE must not be false when ENV=prod")
	}
	return nil
}

// KafkaBrokerList splits KafkaBrokers, dropping empty entries.
func (c Config) KafkaBrokerList() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// AudienceList is the aud claim as a list.
func (c Config) AudienceList() []string {
	return []string{c.Audience}
}
