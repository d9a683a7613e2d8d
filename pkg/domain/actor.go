package domain

import (
	"fmt"
	"strings"
)

// ActorID identifies a participant (borrower, administrator, liquidator) by
// its hex-encoded account address. This is a domain primitive that enforces
// validity at parse time; internal maps key on the normalized lowercase form.
type ActorID string

// ParseActorID validates and normalizes an actor address.
// Accepts a 0x-prefixed hex string of 40 hex characters.
func ParseActorID(s string) (ActorID, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("actor id must be 0x-prefixed: %q", s)
	}
	body := s[2:]
	if len(body) != 40 {
		return "", fmt.Errorf("actor id must be 20 bytes of hex, got %d characters", len(body))
	}
	for _, c := range body {
		if !isHexDigit(c) {
			return "", fmt.Errorf("actor id contains non-hex character %q", c)
		}
	}
	return ActorID("0x" + strings.ToLower(body)), nil
}

func (a ActorID) String() string {
	return string(a)
}

// IsZero returns true for the empty actor id.
func (a ActorID) IsZero() bool {
	return a == ""
}

func isHexDigit(c rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'f':
		return true
	case c >= 'A' && c <= 'F':
		return true
	}
	return false
}
