package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testParams keeps argon2 cheap enough for table tests.
var testParams = Argon2Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	KeyLength:   32,
	SaltLength:  16,
}

func newTestHasher(t *testing.T, pepper string) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(testParams, pepper)
	require.NoError(t, err)
	return h
}

func TestPasswordHasher_Hash(t *testing.T) {
	h := newTestHasher(t, "pepper")

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "пароль🔒密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6)
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")

			require.NoError(t, h.Verify(tt.password, hash))
		})
	}
}

func TestPasswordHasher_UniqueSalts(t *testing.T) {
	h := newTestHasher(t, "pepper")

	hash1, err := h.Hash("samepassword")
	require.NoError(t, err)
	hash2, err := h.Hash("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
	require.NoError(t, h.Verify("samepassword", hash1))
	require.NoError(t, h.Verify("samepassword", hash2))
}

func TestPasswordHasher_WrongPassword(t *testing.T) {
	h := newTestHasher(t, "pepper")
	hash, err := h.Hash("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{
		"wrong-password",
		"Correct-Password",
		"correct-password ",
		"",
		strings.Repeat("x", 10000),
	} {
		require.ErrorIs(t, h.Verify(wrong, hash), ErrPasswordMismatch)
	}
}

func TestPasswordHasher_InvalidHashFormat(t *testing.T) {
	h := newTestHasher(t, "pepper")

	tests := []struct {
		name        string
		invalidHash string
	}{
		{"empty hash", ""},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, h.Verify("test-password", tt.invalidHash), ErrInvalidHash)
		})
	}
}

func TestPasswordHasher_PepperIsApplied(t *testing.T) {
	a := newTestHasher(t, "pepper-a")
	b := newTestHasher(t, "pepper-b")

	hash, err := a.Hash("test-password")
	require.NoError(t, err)

	require.NoError(t, a.Verify("test-password", hash))
	require.ErrorIs(t, b.Verify("test-password", hash), ErrPasswordMismatch)
}

func TestPasswordHasher_DummyVerify(t *testing.T) {
	h := newTestHasher(t, "pepper")
	require.ErrorIs(t, h.DummyVerify("anything"), ErrPasswordMismatch)

	var zero PasswordHasher
	zero.Params = testParams
	require.ErrorIs(t, zero.DummyVerify("anything"), ErrPasswordMismatch)
}

func TestPasswordHasher_NeedsRehash(t *testing.T) {
	h := newTestHasher(t, "pepper")
	hash, err := h.Hash("pw")
	require.NoError(t, err)
	require.False(t, h.NeedsRehash(hash))

	stronger := &PasswordHasher{Params: DefaultArgon2Params, Pepper: "pepper"}
	require.True(t, stronger.NeedsRehash(hash))
	require.NoError(t, stronger.Verify("pw", hash), "old parameters still verify")

	require.True(t, h.NeedsRehash("garbage"))
}

func TestLoadOrCreatePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", "pepper")

	first, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Len(t, first, 43)

	second, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second)

	empty := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0600))
	_, err = LoadOrCreatePepper(empty)
	require.Error(t, err)
}
