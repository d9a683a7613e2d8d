package domain

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// Digest is an opaque 256-bit hash. It is used for model commitments, proof
// fingerprints, and attestation payload digests. The zero value is reserved
// as "absent" everywhere in the system; registries reject it on write.
type Digest [32]byte

var zeroDigest Digest

// ParseDigest decodes an optionally 0x-prefixed hex string of 64 characters.
func ParseDigest(s string) (Digest, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s) != 64 {
		return Digest{}, fmt.Errorf("digest must be 32 bytes of hex, got %d characters", len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("invalid digest encoding: %w", err)
	}
	var d Digest
	copy(d[:], raw)
	return d, nil
}

// DigestFromBytes copies a 32-byte slice into a Digest.
func DigestFromBytes(b []byte) (Digest, error) {
	if len(b) != 32 {
		return Digest{}, fmt.Errorf("digest must be 32 bytes, got %d", len(b))
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

// Hex returns the 0x-prefixed lowercase hex form.
func (d Digest) Hex() string {
	return "0x" + hex.EncodeToString(d[:])
}

func (d Digest) String() string {
	return d.Hex()
}

// IsZero reports whether the digest is the reserved all-zero value.
func (d Digest) IsZero() bool {
	return bytes.Equal(d[:], zeroDigest[:])
}

// MarshalText implements encoding.TextMarshaler for JSON responses.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON requests.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
