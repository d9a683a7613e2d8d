package engine

import (
	"math/big"

	"golang.org/x/crypto/sha3"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
)

// Fingerprint derives the deterministic replay digest for one request:
// Keccak-256 over the proof bytes followed by each public signal as a
// 32-byte big-endian word. Signals are validated to fit 256 bits before
// the pipeline runs.
func Fingerprint(proof []byte, publicSignals []*big.Int) id.Digest {
	h := sha3.NewLegacyKeccak256()
	h.Write(proof)
	var word [32]byte
	for _, signal := range publicSignals {
		signal.FillBytes(word[:])
		h.Write(word[:])
	}
	var d id.Digest
	copy(d[:], h.Sum(nil))
	return d
}
