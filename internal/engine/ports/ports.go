// Package ports defines the engine's external collaborator interfaces. The
// proof system and the attestation signer live outside this core; both are
// consumed as synchronous boolean checks.
package ports

import "math/big"

// ProofVerifier checks a serialized zero-knowledge proof against its public
// signals. Implementations must be pure functions of their inputs. A
// malformed proof is indistinguishable from an invalid one; both return
// false, there is no error path.
type ProofVerifier interface {
	Verify(proof []byte, publicSignals []*big.Int) bool
}

// VerifierFunc adapts a function to the ProofVerifier interface.
type VerifierFunc func(proof []byte, publicSignals []*big.Int) bool

func (f VerifierFunc) Verify(proof []byte, publicSignals []*big.Int) bool {
	return f(proof, publicSignals)
}

// AttestationCheck verifies that the borrower's financial data digest was
// signed by the expected attestation issuer.
type AttestationCheck interface {
	Verify(dataDigest, signature []byte, expectedSigner string) bool
}

// AttestationFunc adapts a function to the AttestationCheck interface.
type AttestationFunc func(dataDigest, signature []byte, expectedSigner string) bool

func (f AttestationFunc) Verify(dataDigest, signature []byte, expectedSigner string) bool {
	return f(dataDigest, signature, expectedSigner)
}
