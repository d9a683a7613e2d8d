package policy

import (
	"math/big"
	"time"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
)

// scoreTierThreshold separates the good-credit collateral tier from the
// standard tier. It is a fixed design constant, not part of the mutable
// policy, so tier selection cannot drift independently of the scoring model.
const scoreTierThreshold = 80

// PolicySet is the complete lending policy. It is replaced wholesale and
// never partially mutated.
//
// Invariants:
//   - MaxDTI is expressed in basis points and never exceeds 10000
//   - MinCreditScore lies in [0, 100]
//   - both collateral ratios are percentages >= 100
//   - CollateralRatioStandard >= CollateralRatioGood (worse credit never
//     posts less collateral)
type PolicySet struct {
	MinIncome               *big.Int `json:"min_income"`
	MaxDTI                  uint32   `json:"max_dti_bp"`
	MinCreditScore          uint32   `json:"min_credit_score"`
	CollateralRatioGood     uint32   `json:"collateral_ratio_good"`
	CollateralRatioStandard uint32   `json:"collateral_ratio_standard"`
}

// Default returns the policy the system boots with: minimum income of
// 3000 scaled units, 30% max DTI, minimum score 50, and 120/150 collateral
// tiers.
func Default() PolicySet {
	return PolicySet{
		MinIncome:               id.Units(3000),
		MaxDTI:                  3000,
		MinCreditScore:          50,
		CollateralRatioGood:     120,
		CollateralRatioStandard: 150,
	}
}

// Validate checks every policy bound. A PolicySet failing validation is
// rejected atomically and never becomes active.
func (p PolicySet) Validate() error {
	if p.MinIncome == nil || p.MinIncome.Sign() < 0 {
		return dErrors.New(dErrors.CodeValidation, "invalid policy: min income must be a non-negative amount")
	}
	if p.MaxDTI > 10000 {
		return dErrors.New(dErrors.CodeValidation, "invalid policy: max DTI exceeds 10000 basis points")
	}
	if p.MinCreditScore > 100 {
		return dErrors.New(dErrors.CodeValidation, "invalid policy: min credit score exceeds 100")
	}
	if p.CollateralRatioGood < 100 {
		return dErrors.New(dErrors.CodeValidation, "invalid policy: good-tier collateral ratio below 100 percent")
	}
	if p.CollateralRatioStandard < 100 {
		return dErrors.New(dErrors.CodeValidation, "invalid policy: standard-tier collateral ratio below 100 percent")
	}
	if p.CollateralRatioStandard < p.CollateralRatioGood {
		return dErrors.New(dErrors.CodeValidation, "invalid policy: standard-tier ratio below good-tier ratio")
	}
	return nil
}

// CollateralRatioFor returns the collateral percentage required for a score.
func (p PolicySet) CollateralRatioFor(score uint32) uint32 {
	if score >= scoreTierThreshold {
		return p.CollateralRatioGood
	}
	return p.CollateralRatioStandard
}

// clone deep-copies the policy so callers can never mutate the active set
// through the shared MinIncome pointer.
func (p PolicySet) clone() PolicySet {
	out := p
	if p.MinIncome != nil {
		out.MinIncome = new(big.Int).Set(p.MinIncome)
	}
	return out
}

// Change records one policy replacement for the audit trail.
type Change struct {
	Admin id.ActorID `json:"admin"`
	At    time.Time  `json:"at"`
	Old   PolicySet  `json:"old"`
	New   PolicySet  `json:"new"`
}
