package watchdog

import (
	"math/big"
	"time"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
)

// AttackKind is the closed taxonomy of adversarial failures the verification
// pipeline can attribute. Free-form strings are deliberately not accepted so
// exhaustive handling stays checkable.
type AttackKind string

const (
	KindReplay            AttackKind = "replay"
	KindForgedData        AttackKind = "forged-data"
	KindModelTamper       AttackKind = "model-tamper"
	KindConstraintEvasion AttackKind = "constraint-evasion"
	KindProvenanceForgery AttackKind = "provenance-forgery"
)

var validKinds = map[AttackKind]struct{}{
	KindReplay:            {},
	KindForgedData:        {},
	KindModelTamper:       {},
	KindConstraintEvasion: {},
	KindProvenanceForgery: {},
}

// ParseAttackKind validates an attack kind string.
func ParseAttackKind(s string) (AttackKind, error) {
	k := AttackKind(s)
	if _, ok := validKinds[k]; !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown attack kind: %s", s)
	}
	return k, nil
}

func (k AttackKind) Valid() bool {
	_, ok := validKinds[k]
	return ok
}

func (k AttackKind) String() string {
	return string(k)
}

// BlacklistThreshold is the attack count at which an actor is blacklisted.
// The flag never auto-clears; only an administrator can rehabilitate.
const BlacklistThreshold = 3

// AttackRecord is one detected adversarial request, append-only per actor.
type AttackRecord struct {
	Actor       id.ActorID `json:"actor"`
	Kind        AttackKind `json:"kind"`
	Fingerprint id.Digest  `json:"fingerprint"`
	Detail      string     `json:"detail"`
	At          time.Time  `json:"at"`
}

// SlashingEvent records an intent to forfeit a security deposit. The watchdog
// is a ledger of intent, not custody; the caller routes the funds.
type SlashingEvent struct {
	Actor  id.ActorID `json:"actor"`
	By     id.ActorID `json:"by"`
	Amount *big.Int   `json:"amount"`
	Reason string     `json:"reason"`
	At     time.Time  `json:"at"`
}

// Stats aggregates watchdog activity for the admin surface.
type Stats struct {
	TotalAttacksBlocked uint64 `json:"total_attacks_blocked"`
	TotalSlashingEvents uint64 `json:"total_slashing_events"`
}
