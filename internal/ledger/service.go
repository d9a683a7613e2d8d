// Package ledger holds the settlement state: pool liquidity, per-borrower
// loans, collateral custody, security deposits, and the consumed-fingerprint
// set. It mutates only through the engine on success paths, plus the
// repayment and liquidation operations exposed here.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
	pa "github.com/ssmadhavan006/zkredit/pkg/platform/audit"
	"github.com/ssmadhavan006/zkredit/pkg/platform/sentinel"
)

// FingerprintStore is the consumed-fingerprint set. Add must be atomic
// check-and-set, returning sentinel.ErrAlreadyUsed for a known fingerprint.
type FingerprintStore interface {
	Contains(ctx context.Context, fp id.Digest) (bool, error)
	Add(ctx context.Context, fp id.Digest) error
}

// AuditPublisher emits audit events for settlement activity.
type AuditPublisher interface {
	Emit(ctx context.Context, event pa.Event) error
}

// Ledger guards all settlement state behind a single mutex, mirroring the
// sequential all-or-nothing transaction model of the source chain.
type Ledger struct {
	mu           sync.Mutex
	loans        map[id.ActorID]LoanRecord
	deposits     map[id.ActorID]*big.Int
	liquidity    *big.Int
	totalLocked  *big.Int
	fingerprints FingerprintStore

	logger         *slog.Logger
	auditPublisher AuditPublisher
	nowFn          func() time.Time
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(l *Ledger) {
		l.auditPublisher = publisher
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.nowFn = now
	}
}

// New constructs a Ledger seeded with initial pool liquidity.
func New(fingerprints FingerprintStore, initialLiquidity *big.Int, opts ...Option) (*Ledger, error) {
	if fingerprints == nil {
		return nil, errors.New("fingerprint store is required")
	}
	if initialLiquidity == nil || initialLiquidity.Sign() < 0 {
		return nil, errors.New("initial liquidity must be a non-negative amount")
	}
	l := &Ledger{
		loans:        make(map[id.ActorID]LoanRecord),
		deposits:     make(map[id.ActorID]*big.Int),
		liquidity:    new(big.Int).Set(initialLiquidity),
		totalLocked:  new(big.Int).Set(initialLiquidity),
		fingerprints: fingerprints,
		nowFn:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Pool returns a snapshot of the pool counters.
func (l *Ledger) Pool() PoolState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return PoolState{
		Liquidity:   new(big.Int).Set(l.liquidity),
		TotalLocked: new(big.Int).Set(l.totalLocked),
	}
}

// Fund adds liquidity to the pool.
func (l *Ledger) Fund(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeValidation, "funding amount must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.liquidity.Add(l.liquidity, amount)
	l.totalLocked.Add(l.totalLocked, amount)
	return nil
}

// ActiveLoan returns the borrower's open loan, if any.
func (l *Ledger) ActiveLoan(borrower id.ActorID) (LoanRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	loan, ok := l.loans[borrower]
	if !ok {
		return LoanRecord{}, false
	}
	return loan.clone(), true
}

// HasActiveLoan reports whether the borrower has an open loan.
func (l *Ledger) HasActiveLoan(borrower id.ActorID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.loans[borrower]
	return ok
}

// Liquidity returns the amount currently available to lend.
func (l *Ledger) Liquidity() *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.liquidity)
}

// IsConsumed reports whether a fingerprint has backed a completed settlement.
func (l *Ledger) IsConsumed(ctx context.Context, fp id.Digest) (bool, error) {
	return l.fingerprints.Contains(ctx, fp)
}

// Settle commits a verified loan as one unit: the loan record is created, the
// principal leaves the pool, the collateral enters custody, and the proof
// fingerprint is marked consumed. A fingerprint is only ever consumed here,
// so an aborted verification leaves no trace in the set.
func (l *Ledger) Settle(ctx context.Context, borrower id.ActorID, principal, collateral *big.Int, score uint32, fp id.Digest) (LoanRecord, error) {
	if principal == nil || principal.Sign() <= 0 {
		return LoanRecord{}, dErrors.New(dErrors.CodeValidation, "principal must be positive")
	}
	if collateral == nil || collateral.Sign() < 0 {
		return LoanRecord{}, dErrors.New(dErrors.CodeValidation, "collateral must be a non-negative amount")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.loans[borrower]; ok {
		return LoanRecord{}, ErrExistingLoanActive
	}
	if l.liquidity.Cmp(principal) < 0 {
		return LoanRecord{}, ErrInsufficientLiquidity
	}
	if err := l.fingerprints.Add(ctx, fp); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return LoanRecord{}, dErrors.New(dErrors.CodeConflict, "proof already used")
		}
		return LoanRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume fingerprint")
	}

	now := l.nowFn()
	loan := LoanRecord{
		Borrower:          borrower,
		Principal:         new(big.Int).Set(principal),
		Collateral:        new(big.Int).Set(collateral),
		ProvenCreditScore: score,
		CreatedAt:         now,
		RepaymentDeadline: now.Add(LoanTerm),
	}
	l.loans[borrower] = loan

	// Principal is transferred out to the borrower; collateral comes in.
	l.liquidity.Sub(l.liquidity, principal)
	l.totalLocked.Sub(l.totalLocked, principal)
	l.totalLocked.Add(l.totalLocked, collateral)

	if l.logger != nil {
		l.logger.InfoContext(ctx, "loan settled",
			"borrower", borrower,
			"principal", principal.String(),
			"collateral", collateral.String(),
			"deadline", loan.RepaymentDeadline)
	}
	l.emitAudit(ctx, borrower, pa.EventLoanSettled, principal.String(), fp.Hex())
	return loan.clone(), nil
}

// Repay closes a loan: the full collateral returns to the borrower and the
// repayment joins pool liquidity. Repayment after the deadline is refused;
// the position is liquidation-only at that point.
func (l *Ledger) Repay(ctx context.Context, borrower id.ActorID, amount *big.Int) (LoanRecord, error) {
	if amount == nil || amount.Sign() < 0 {
		return LoanRecord{}, dErrors.New(dErrors.CodeValidation, "repayment amount must be a non-negative amount")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	loan, ok := l.loans[borrower]
	if !ok {
		return LoanRecord{}, ErrNoActiveLoan
	}
	if amount.Cmp(loan.Principal) < 0 {
		return LoanRecord{}, ErrInsufficientRepayment
	}
	if loan.Expired(l.nowFn()) {
		return LoanRecord{}, ErrLoanExpired
	}

	delete(l.loans, borrower)
	// Collateral leaves custody back to the borrower; the repayment adds to
	// liquidity.
	l.totalLocked.Sub(l.totalLocked, loan.Collateral)
	l.liquidity.Add(l.liquidity, amount)
	l.totalLocked.Add(l.totalLocked, amount)

	if l.logger != nil {
		l.logger.InfoContext(ctx, "loan repaid",
			"borrower", borrower, "amount", amount.String())
	}
	l.emitAudit(ctx, borrower, pa.EventLoanRepaid, amount.String(), "")
	return loan.clone(), nil
}

// Liquidate closes an expired loan. Callable by anyone; the collateral moves
// into pool liquidity and the borrower receives nothing back. This is the
// economic penalty for default.
func (l *Ledger) Liquidate(ctx context.Context, caller, borrower id.ActorID) (LoanRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	loan, ok := l.loans[borrower]
	if !ok {
		return LoanRecord{}, ErrNoActiveLoan
	}
	if !loan.Expired(l.nowFn()) {
		return LoanRecord{}, ErrNotExpired
	}

	delete(l.loans, borrower)
	// Collateral stays in custody but becomes lendable.
	l.liquidity.Add(l.liquidity, loan.Collateral)

	if l.logger != nil {
		l.logger.InfoContext(ctx, "loan liquidated",
			"borrower", borrower,
			"caller", caller,
			"collateral", loan.Collateral.String())
	}
	l.emitAudit(ctx, borrower, pa.EventLoanLiquidated, loan.Collateral.String(), "")
	return loan.clone(), nil
}

// PlaceDeposit adds to an actor's security deposit.
func (l *Ledger) PlaceDeposit(ctx context.Context, owner id.ActorID, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeValidation, "deposit amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.deposits[owner]
	if !ok {
		balance = new(big.Int)
		l.deposits[owner] = balance
	}
	balance.Add(balance, amount)

	l.emitAudit(ctx, owner, pa.EventDepositPlaced, amount.String(), "")
	return nil
}

// DepositOf returns the actor's current deposit balance.
func (l *Ledger) DepositOf(owner id.ActorID) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.deposits[owner]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(balance)
}

// SlashDepositIntoPool zeroes the actor's deposit atomically and routes it
// into pool liquidity, returning the slashed amount. A missing or empty
// deposit slashes zero; there is nothing to penalize.
func (l *Ledger) SlashDepositIntoPool(ctx context.Context, actor id.ActorID) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.deposits[actor]
	if !ok || balance.Sign() == 0 {
		return new(big.Int)
	}
	slashed := new(big.Int).Set(balance)
	balance.SetInt64(0)
	l.liquidity.Add(l.liquidity, slashed)
	l.totalLocked.Add(l.totalLocked, slashed)

	if l.logger != nil {
		l.logger.WarnContext(ctx, "security deposit slashed into pool",
			"actor", actor, "amount", slashed.String())
	}
	return slashed
}

func (l *Ledger) emitAudit(ctx context.Context, actor id.ActorID, action pa.AuditEvent, amount, fingerprint string) {
	if l.auditPublisher == nil {
		return
	}
	_ = l.auditPublisher.Emit(ctx, pa.Event{
		Actor:       actor,
		Action:      string(action),
		Amount:      amount,
		Fingerprint: fingerprint,
	})
}
