package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStageAdvance(t *testing.T) {
	tests := []struct {
		from, to Stage
		ok       bool
	}{
		{StageStart, StageCredentialsChecked, true},
		{StageStart, StageFailed, true},
		{StageStart, StageAuthenticated, false},
		{StageCredentialsChecked, StageAwaitingTOTP, true},
		{StageCredentialsChecked, StageAuthenticated, true},
		{StageAwaitingTOTP, StageAuthenticated, true},
		{StageAwaitingTOTP, StageCredentialsChecked, false},
		{StageAuthenticated, StageFailed, false},
		{StageFailed, StageStart, false},
	}

	for _, tt := range tests {
		got, err := tt.from.Advance(tt.to)
		if tt.ok {
			require.NoError(t, err, "%s -> %s", tt.from, tt.to)
			require.Equal(t, tt.to, got)
		} else {
			require.Error(t, err, "%s -> %s", tt.from, tt.to)
			require.Equal(t, tt.from, got)
		}
	}

	require.True(t, StageAuthenticated.Terminal())
	require.True(t, StageFailed.Terminal())
	require.False(t, StageAwaitingTOTP.Terminal())
}

func TestUserTOTPEnabled(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	empty := ""
	now := time.Now()

	require.False(t, User{}.TOTPEnabled())
	require.False(t, User{TOTPSecret: &secret}.TOTPEnabled(), "enrolled but unconfirmed")
	require.False(t, User{TOTPSecret: &empty, TOTPEnabledAt: &now}.TOTPEnabled())
	require.True(t, User{TOTPSecret: &secret, TOTPEnabledAt: &now}.TOTPEnabled())
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}

func TestExpiry(t *testing.T) {
	now := time.Now()
	require.True(t, LoginAttempt{ExpiresAt: now}.Expired(now))
	require.False(t, LoginAttempt{ExpiresAt: now.Add(time.Second)}.Expired(now))
	require.True(t, Session{ExpiresAt: now.Add(-time.Second)}.Expired(now))
}
