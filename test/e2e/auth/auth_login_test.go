package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/tabgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestPasswordLoginAndLogout covers a session from login to logout.
func TestPasswordLoginAndLogout(t *testing.T) {
	baseURL := setupTabgateContainer(t)
	client := registerAndLogin(t, baseURL, "alice@example.com", false)

	sess, err := client.GetSession(t.Context())
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", sess.Email)
	require.Equal(t, "full", sess.Level)
	require.Equal(t, []string{"pwd"}, sess.AMR)

	require.NoError(t, client.Logout(t.Context()))

	_, err = client.GetSession(t.Context())
	assertAPIError(t, err, authsdk.ErrorCodeUnauthorized)
}

// TestLoginRejectsBadCredentials verifies unknown accounts and wrong
// passwords fail the same way.
func TestLoginRejectsBadCredentials(t *testing.T) {
	baseURL := setupTabgateContainer(t)
	registerAndLogin(t, baseURL, "alice@example.com", false)

	client := authsdk.NewSDKClient(baseURL)

	_, err := client.Login(t.Context(), "alice@example.com", "not the password", false)
	assertAPIError(t, err, authsdk.ErrorCodeInvalidCredentials)
	wrongPassword := err.Error()

	_, err = client.Login(t.Context(), "nobody@example.com", "not the password", false)
	assertAPIError(t, err, authsdk.ErrorCodeInvalidCredentials)
	require.Equal(t, wrongPassword, err.Error())

	page, err := client.GetLoginPage(t.Context())
	require.NoError(t, err)
	require.Equal(t, "nobody@example.com", page.Email)
	require.NotEmpty(t, page.Error)
}

// TestRememberMeSurvivesSessionLoss verifies a remember-me cookie signs the
// browser back in at the password level.
func TestRememberMeSurvivesSessionLoss(t *testing.T) {
	baseURL := setupTabgateContainer(t)
	client := registerAndLogin(t, baseURL, "alice@example.com", true)

	require.NotEmpty(t, client.Cookie(authsdk.RememberCookie))
	client.ForgetSession()

	sess, err := client.GetSession(t.Context())
	require.NoError(t, err)
	require.Equal(t, "password", sess.Level)

	_, err = client.EnableTOTP(t.Context())
	assertAPIError(t, err, authsdk.ErrorCodeForbidden)
}
