package app

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/tabgate/pkg/cryptox"
	"github.com/aussiebroadwan/tabgate/pkg/jwtx"
)

// sessionKeys bundles the signing key with the key set used to verify and
// publish it.
type sessionKeys struct {
	signer   *jwtx.EdDSASigner
	keySet   *jwtx.KeySet
	verifier *jwtx.Verifier
}

// initSessionKeys loads the Ed25519 signing key from cfg.SigningKeyFile,
// generating it on first start. Sessions survive restarts as long as the
// file is kept.
func initSessionKeys(cfg Config, logger *slog.Logger) (*sessionKeys, error) {
	pemKey, err := cryptox.LoadOrCreateEd25519Key(cfg.SigningKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	// The kid is derived from the key so it only changes when the key does.
	sum := sha256.Sum256(pemKey)
	kid := base64.RawURLEncoding.EncodeToString(sum[:8])

	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}

	keySet := jwtx.NewKeySet()
	if err := keySet.AddSigner(signer); err != nil {
		return nil, err
	}

	logger.Info("session signing key loaded", "kid", kid, "path", cfg.SigningKeyFile)

	return &sessionKeys{
		signer:   signer,
		keySet:   keySet,
		verifier: jwtx.NewVerifier(keySet, cfg.Issuer, cfg.AudienceList()),
	}, nil
}
