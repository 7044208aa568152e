package totpx

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// rfcSecret is the RFC 6238 appendix B SHA-1 seed "12345678901234567890".
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestEngine_CodeMatchesRFC6238(t *testing.T) {
	t.Parallel()
	e := New("tabgate")

	tests := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}

	for _, tt := range tests {
		code, err := e.Code(rfcSecret, time.Unix(tt.unix, 0))
		require.NoError(t, err)
		require.Equal(t, tt.want, code, "t=%d", tt.unix)
	}
}

func TestEngine_GenerateSecret(t *testing.T) {
	t.Parallel()
	e := New("tabgate")

	s1, err := e.GenerateSecret()
	require.NoError(t, err)
	s2, err := e.GenerateSecret()
	require.NoError(t, err)

	require.NotEqual(t, s1, s2)
	require.Len(t, s1, 32, "160 bits encode to 32 base32 chars")
	require.NotContains(t, s1, "=")

	raw, err := b32NoPadding.DecodeString(s1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw)*8, 160)
}

func TestEngine_ValidateWindow(t *testing.T) {
	t.Parallel()
	e := New("tabgate")
	secret, err := e.GenerateSecret()
	require.NoError(t, err)

	now := time.Unix(1_700_000_010, 0)
	current := e.Counter(now)

	t.Run("current step", func(t *testing.T) {
		code, err := e.CodeAt(secret, current)
		require.NoError(t, err)
		c, ok := e.Validate(secret, code, now)
		require.True(t, ok)
		require.Equal(t, current, c)
	})

	t.Run("one step either side", func(t *testing.T) {
		for _, step := range []uint64{current - 1, current + 1} {
			code, err := e.CodeAt(secret, step)
			require.NoError(t, err)
			c, ok := e.Validate(secret, code, now)
			require.True(t, ok)
			require.Equal(t, step, c)
		}
	})

	t.Run("two steps away", func(t *testing.T) {
		for _, step := range []uint64{current - 2, current + 2} {
			code, err := e.CodeAt(secret, step)
			require.NoError(t, err)
			_, ok := e.Validate(secret, code, now)
			require.False(t, ok)
		}
	})

	t.Run("ninety seconds later", func(t *testing.T) {
		code, err := e.Code(secret, now)
		require.NoError(t, err)

		_, ok := e.Validate(secret, code, now.Add(30*time.Second))
		require.True(t, ok)
		_, ok = e.Validate(secret, code, now.Add(90*time.Second))
		require.False(t, ok)
		_, ok = e.Validate(secret, code, now.Add(-90*time.Second))
		require.False(t, ok)
	})

	t.Run("malformed code", func(t *testing.T) {
		for _, code := range []string{"", "12345", "1234567", "abcdef"} {
			_, ok := e.Validate(secret, code, now)
			require.False(t, ok, "code %q", code)
		}
	})

	t.Run("bad secret", func(t *testing.T) {
		_, ok := e.Validate("not base32!", "123456", now)
		require.False(t, ok)
	})
}

func TestEngine_ValidateAfterRejectsReplay(t *testing.T) {
	t.Parallel()
	e := New("tabgate")
	now := time.Unix(1_700_000_010, 0)
	current := e.Counter(now)

	code, err := e.CodeAt(rfcSecret, current)
	require.NoError(t, err)

	c, ok := e.ValidateAfter(rfcSecret, code, now, nil)
	require.True(t, ok)

	_, ok = e.ValidateAfter(rfcSecret, code, now, &c)
	require.False(t, ok, "same step must not be accepted twice")

	older := current - 1
	_, ok = e.ValidateAfter(rfcSecret, code, now, &older)
	require.True(t, ok)
}

func TestEngine_ProvisioningURI(t *testing.T) {
	t.Parallel()
	e := New("Tab Gate")
	secret, err := e.GenerateSecret()
	require.NoError(t, err)

	uri, err := e.ProvisioningURI(secret, "alice@example.com")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "otpauth://totp/"))

	u, err := url.Parse(uri)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, secret, q.Get("secret"))
	require.Equal(t, "Tab Gate", q.Get("issuer"))
	require.Equal(t, "30", q.Get("period"))
	require.Equal(t, "6", q.Get("digits"))
	require.Equal(t, "SHA1", q.Get("algorithm"))
	require.Contains(t, u.Path, "alice@example.com")

	_, err = e.ProvisioningURI(secret, "")
	require.ErrorIs(t, err, ErrEmptyAccount)

	_, err = e.ProvisioningURI("***", "alice@example.com")
	require.ErrorIs(t, err, ErrInvalidSecret)
}

func TestEngine_QRImage(t *testing.T) {
	t.Parallel()
	e := New("tabgate")

	img, err := e.QRImage(rfcSecret, "alice@example.com", 200)
	require.NoError(t, err)
	require.Equal(t, 200, img.Bounds().Dx())
	require.Equal(t, 200, img.Bounds().Dy())
}
