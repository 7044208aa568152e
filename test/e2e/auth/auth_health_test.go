package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/tabgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestHealthEndpoints verifies liveness, readiness and key discovery on a
// fresh container.
func TestHealthEndpoints(t *testing.T) {
	baseURL := setupTabgateContainer(t)
	client := authsdk.NewSDKClient(baseURL)

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)

	health, err = client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)

	jwks, err := client.GetJWKS(t.Context())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "EdDSA", jwks.Keys[0].Alg)

	t.Logf("JWKS key id: %s", jwks.Keys[0].Kid)
}
