package adapters

import (
	"crypto/ed25519"

	"github.com/ssmadhavan006/zkredit/internal/engine/ports"
)

// Ed25519Attestation verifies issuer signatures over attested data digests.
// Issuers are registered by name; an unknown signer never verifies.
type Ed25519Attestation struct {
	issuers map[string]ed25519.PublicKey
}

func NewEd25519Attestation(issuers map[string]ed25519.PublicKey) *Ed25519Attestation {
	keys := make(map[string]ed25519.PublicKey, len(issuers))
	for name, key := range issuers {
		keys[name] = key
	}
	return &Ed25519Attestation{issuers: keys}
}

var _ ports.AttestationCheck = (*Ed25519Attestation)(nil)

func (a *Ed25519Attestation) Verify(dataDigest, signature []byte, expectedSigner string) bool {
	key, ok := a.issuers[expectedSigner]
	if !ok {
		return false
	}
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(key, dataDigest, signature)
}
