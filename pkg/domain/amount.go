package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// Amounts are 10^18-scaled integers, matching the attestation issuer's wire
// format. They travel as decimal strings in JSON and live as *big.Int in
// memory; this file keeps the parsing rules in one place.

// ParseAmount parses a non-negative base-10 integer string.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("amount must not be empty")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative: %q", s)
	}
	return v, nil
}

// FormatAmount renders an amount as a decimal string; nil renders as "0".
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// Units scales a whole-unit count by 10^18.
func Units(n int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return new(big.Int).Mul(big.NewInt(n), scale)
}
