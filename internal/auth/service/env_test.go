package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tabgate/internal/auth/throttle"
	"github.com/aussiebroadwan/tabgate/pkg/cryptox"
	"github.com/aussiebroadwan/tabgate/pkg/jwtx"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
	"github.com/aussiebroadwan/tabgate/pkg/totpx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://auth.tabgate.test"
	testPassword = "correct horse battery staple"
)

var testArgon2 = cryptox.Argon2Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	KeyLength:   32,
	SaltLength:  16,
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.SecurityEvent
}

func (r *recordingSink) Emit(_ context.Context, ev domain.SecurityEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	store    *sqlite.Store
	clock    *testClock
	totp     *totpx.Engine
	throttle *throttle.Memory
	events   *recordingSink

	sessions *Sessions
	remember *RememberService
	login    *LoginService
	mfa      *MFAService
	users    *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	hasher, err := cryptox.NewPasswordHasher(testArgon2, "test-pepper")
	require.NoError(t, err)

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	clock := &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	verifier := jwtx.NewVerifier(keys, testIssuer, []string{"tabgate"})
	verifier.Now = clock.Now

	engine := totpx.New("Tabgate")
	th := throttle.NewMemory(throttle.DefaultConfig()).WithClock(clock.Now)
	sink := &recordingSink{}

	sessions := &Sessions{
		Store:    st,
		Signer:   signer,
		Verifier: verifier,
		Issuer:   testIssuer,
		Audience: []string{"tabgate"},
		Now:      clock.Now,
	}
	remember := &RememberService{Store: st, Events: sink, Now: clock.Now}

	return &testEnv{
		store:    st,
		clock:    clock,
		totp:     engine,
		throttle: th,
		events:   sink,
		sessions: sessions,
		remember: remember,
		login: &LoginService{
			Store:    st,
			Hasher:   hasher,
			TOTP:     engine,
			Throttle: th,
			Sessions: sessions,
			Remember: remember,
			Events:   sink,
			Now:      clock.Now,
		},
		mfa: &MFAService{Store: st, TOTP: engine, Events: sink, Now: clock.Now},
		users: &UserService{
			Store:    st,
			Hasher:   hasher,
			Remember: remember,
			Events:   sink,
			Now:      clock.Now,
		},
	}
}

func (e *testEnv) ctx() context.Context {
	return slogx.WithContext(context.Background(), slogx.Discard())
}

func (e *testEnv) register(t *testing.T, email string) domain.User {
	t.Helper()
	u, err := e.users.Register(e.ctx(), email, testPassword)
	require.NoError(t, err)
	return u
}

// enableTOTP enrolls and confirms TOTP for u, then moves the clock to the
// next step so the confirming code is not the current one.
func (e *testEnv) enableTOTP(t *testing.T, u domain.User) string {
	t.Helper()
	enrollment, err := e.mfa.Enable(e.ctx(), u.ID)
	require.NoError(t, err)
	require.NoError(t, e.mfa.Confirm(e.ctx(), u.ID, e.code(t, enrollment.Secret)))
	e.clock.Advance(totpx.DefaultPeriod)
	return enrollment.Secret
}

func (e *testEnv) code(t *testing.T, secret string) string {
	t.Helper()
	code, err := e.totp.Code(secret, e.clock.Now())
	require.NoError(t, err)
	return code
}

// wrongCode returns a code that matches no step inside the skew window.
func (e *testEnv) wrongCode(t *testing.T, secret string) string {
	t.Helper()
	now := e.clock.Now()
	valid := map[string]bool{}
	for _, d := range []time.Duration{-totpx.DefaultPeriod, 0, totpx.DefaultPeriod} {
		c, err := e.totp.Code(secret, now.Add(d))
		require.NoError(t, err)
		valid[c] = true
	}
	for _, c := range []string{"000000", "111111", "222222", "333333"} {
		if !valid[c] {
			return c
		}
	}
	t.Fatal("no wrong code available")
	return ""
}

// startTOTPLogin submits the password and returns the pending attempt id.
func (e *testEnv) startTOTPLogin(t *testing.T, req CredentialsRequest) string {
	t.Helper()
	res, err := e.login.SubmitCredentials(e.ctx(), req)
	require.Nil(t, res)
	require.ErrorIs(t, err, ErrTOTPRequired)

	var required *TOTPRequiredError
	require.True(t, errors.As(err, &required))
	require.NotEmpty(t, required.AttemptID)
	return required.AttemptID
}
