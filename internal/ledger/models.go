package ledger

import (
	"math/big"
	"time"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
)

// LoanTerm is the fixed repayment window. Expiry is evaluated lazily against
// the clock at repay/liquidate time; there is no background timer.
const LoanTerm = 30 * 24 * time.Hour

// Ordinary rejections surfaced by the ledger. These carry no attack trail;
// callers match them with errors.Is.
var (
	ErrNoActiveLoan           = dErrors.New(dErrors.CodeNotFound, "no active loan")
	ErrExistingLoanActive     = dErrors.New(dErrors.CodeConflict, "borrower already has an active loan")
	ErrInsufficientRepayment  = dErrors.New(dErrors.CodeValidation, "repayment below outstanding principal")
	ErrLoanExpired            = dErrors.New(dErrors.CodeConflict, "loan is past its repayment deadline")
	ErrNotExpired             = dErrors.New(dErrors.CodeConflict, "loan is not yet past its repayment deadline")
	ErrInsufficientLiquidity  = dErrors.New(dErrors.CodeConflict, "insufficient pool liquidity")
	ErrInsufficientCollateral = dErrors.New(dErrors.CodeValidation, "insufficient collateral")
)

// LoanRecord is one open loan. At most one exists per borrower; the record is
// destroyed on repayment or liquidation.
type LoanRecord struct {
	Borrower          id.ActorID `json:"borrower"`
	Principal         *big.Int   `json:"principal"`
	Collateral        *big.Int   `json:"collateral"`
	ProvenCreditScore uint32     `json:"proven_credit_score"`
	CreatedAt         time.Time  `json:"created_at"`
	RepaymentDeadline time.Time  `json:"repayment_deadline"`
}

// Expired reports whether the repayment deadline has passed at the given
// instant.
func (l LoanRecord) Expired(now time.Time) bool {
	return now.After(l.RepaymentDeadline)
}

func (l LoanRecord) clone() LoanRecord {
	out := l
	out.Principal = new(big.Int).Set(l.Principal)
	out.Collateral = new(big.Int).Set(l.Collateral)
	return out
}

// PoolState is a snapshot of the lending pool counters. Liquidity never goes
// negative; TotalLocked covers liquidity plus collateral in custody.
type PoolState struct {
	Liquidity   *big.Int `json:"liquidity"`
	TotalLocked *big.Int `json:"total_locked"`
}
