// Package engine runs the layered verification pipeline against one loan
// request: replay, hard constraints, provenance, proof, output bounds, and
// model consistency, in that order. Any layer failure abandons the request
// with an attack record; only full success touches the ledger.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ssmadhavan006/zkredit/internal/engine/metrics"
	"github.com/ssmadhavan006/zkredit/internal/engine/ports"
	"github.com/ssmadhavan006/zkredit/internal/ledger"
	"github.com/ssmadhavan006/zkredit/internal/modelregistry"
	"github.com/ssmadhavan006/zkredit/internal/policy"
	"github.com/ssmadhavan006/zkredit/internal/watchdog"
	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
	pa "github.com/ssmadhavan006/zkredit/pkg/platform/audit"
)

// Signal positions within PublicSignals.
const (
	signalIncome    = 0
	signalDTI       = 1
	signalModelHash = 2
)

const tracerName = "github.com/ssmadhavan006/zkredit/internal/engine"

// Attestation carries the issuer signature over the borrower's financial
// data digest, checked at the provenance layer.
type Attestation struct {
	DataDigest []byte
	Signature  []byte
	Signer     string
}

// LoanRequest is one complete request entering the pipeline.
type LoanRequest struct {
	Borrower          id.ActorID
	Principal         *big.Int
	OfferedCollateral *big.Int
	ProvenCreditScore uint32
	Proof             []byte
	PublicSignals     []*big.Int
	Attestation       Attestation
}

// AttackError is an adversarial rejection: one of the pipeline layers
// attributed the failure to an attack. Ordinary rejections never produce
// this type.
type AttackError struct {
	Kind        watchdog.AttackKind
	Detail      string
	Fingerprint id.Digest
}

func (e *AttackError) Error() string {
	return fmt.Sprintf("adversarial request rejected: %s (%s)", e.Kind, e.Detail)
}

// ErrBusy is returned when a request arrives while another is mid-pipeline.
// The engine processes requests strictly one at a time; overlap is a caller
// retry, never an interleave.
var ErrBusy = dErrors.New(dErrors.CodeConflict, "verification already in progress")

// AuditPublisher emits audit events for verification outcomes.
type AuditPublisher interface {
	Emit(ctx context.Context, event pa.Event) error
}

// Engine orchestrates the verification pipeline. It consults the policy and
// model registries, calls out to the proof and attestation collaborators,
// reports failures to the watchdog, and settles into the ledger.
type Engine struct {
	policies    *policy.Registry
	models      *modelregistry.Registry
	watchdog    *watchdog.Service
	ledger      *ledger.Ledger
	verifier    ports.ProofVerifier
	attestation ports.AttestationCheck

	busy atomic.Bool

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(e *Engine) {
		e.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func New(
	policies *policy.Registry,
	models *modelregistry.Registry,
	guard *watchdog.Service,
	loans *ledger.Ledger,
	verifier ports.ProofVerifier,
	attestation ports.AttestationCheck,
	opts ...Option,
) (*Engine, error) {
	if policies == nil || models == nil || guard == nil || loans == nil {
		return nil, fmt.Errorf("policy registry, model registry, watchdog, and ledger are required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("proof verifier is required")
	}
	if attestation == nil {
		return nil, fmt.Errorf("attestation check is required")
	}
	e := &Engine{
		policies:    policies,
		models:      models,
		watchdog:    guard,
		ledger:      loans,
		verifier:    verifier,
		attestation: attestation,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// RequestLoan runs the full pipeline for one request. It returns the settled
// loan on success, an *AttackError for adversarial failures, or a coded
// domain error for ordinary rejections. All state effects of a failed
// request are confined to the watchdog and the slashed deposit; the ledger
// and the fingerprint set change only on success.
func (e *Engine) RequestLoan(ctx context.Context, req LoanRequest) (ledger.LoanRecord, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return ledger.LoanRecord{}, ErrBusy
	}
	defer e.busy.Store(false)

	ctx, span := e.tracer.Start(ctx, "engine.RequestLoan",
		trace.WithAttributes(attribute.String("borrower", req.Borrower.String())))
	defer span.End()

	if e.metrics != nil {
		e.metrics.IncrementRequests()
	}

	if err := e.checkPreconditions(ctx, req); err != nil {
		return e.reject(ctx, err)
	}

	pol := e.policies.Get()
	fp := Fingerprint(req.Proof, req.PublicSignals)
	span.SetAttributes(attribute.String("fingerprint", fp.Hex()))

	// Layer 0: anti-replay. A fingerprint enters the consumed set only when
	// a settlement commits, so a proof that failed a later layer may be
	// legitimately resubmitted once the underlying defect is fixed. Two
	// successful settlements can never share a fingerprint.
	consumed, err := e.ledger.IsConsumed(ctx, fp)
	if err != nil {
		return e.reject(ctx, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check fingerprint"))
	}
	if consumed {
		return e.abort(ctx, req, fp, "0", watchdog.KindReplay, "proof already used")
	}

	// Layer 1: hard constraints. DTI is checked strictly before income so a
	// request failing both is attributed to the DTI breach.
	dti := req.PublicSignals[signalDTI]
	income := req.PublicSignals[signalIncome]
	if dti.Cmp(new(big.Int).SetUint64(uint64(pol.MaxDTI))) > 0 {
		return e.abort(ctx, req, fp, "1", watchdog.KindConstraintEvasion, "debt-to-income above policy maximum")
	}
	if income.Cmp(pol.MinIncome) < 0 {
		return e.abort(ctx, req, fp, "1", watchdog.KindForgedData, "income below policy floor")
	}
	if req.ProvenCreditScore < pol.MinCreditScore {
		return e.abort(ctx, req, fp, "1", watchdog.KindConstraintEvasion, "credit score below policy minimum")
	}

	// Layer 2: data provenance.
	if !e.attestation.Verify(req.Attestation.DataDigest, req.Attestation.Signature, req.Attestation.Signer) {
		return e.abort(ctx, req, fp, "2", watchdog.KindProvenanceForgery, "attestation signature rejected")
	}

	// Layer 3: proof verification. An invalid proof is reported as model
	// tampering; the dominant real-world cause is a proof generated against
	// incorrect model weights.
	if !e.verifier.Verify(req.Proof, req.PublicSignals) {
		return e.abort(ctx, req, fp, "3", watchdog.KindModelTamper, "proof failed verification")
	}

	// Layer 4: output bounds.
	if req.ProvenCreditScore > 100 {
		return e.abort(ctx, req, fp, "4", watchdog.KindConstraintEvasion, "credit score outside proof output range")
	}

	// Layer 5: model hash consistency. Only the latest commitment verifies.
	modelHash, err := digestFromSignal(req.PublicSignals[signalModelHash])
	if err != nil {
		return e.abort(ctx, req, fp, "5", watchdog.KindModelTamper, "malformed model hash signal")
	}
	if !e.models.Verify(modelHash) {
		return e.abort(ctx, req, fp, "5", watchdog.KindModelTamper, "proof bound to a non-current model")
	}

	// Collateral check is an ordinary rejection, not an attack: the proof is
	// sound, the caller simply did not post enough.
	ratio := pol.CollateralRatioFor(req.ProvenCreditScore)
	required := RequiredCollateral(req.Principal, ratio)
	if req.OfferedCollateral == nil || req.OfferedCollateral.Cmp(required) < 0 {
		return e.reject(ctx, ledger.ErrInsufficientCollateral)
	}

	loan, err := e.ledger.Settle(ctx, req.Borrower, req.Principal, req.OfferedCollateral, req.ProvenCreditScore, fp)
	if err != nil {
		return e.reject(ctx, err)
	}

	if e.logger != nil {
		e.logger.InfoContext(ctx, "loan request verified and settled",
			"borrower", req.Borrower,
			"principal", req.Principal.String(),
			"collateral_ratio", ratio,
			"fingerprint", fp)
	}
	if e.metrics != nil {
		e.metrics.IncrementSettled()
	}
	return loan, nil
}

// checkPreconditions covers the ordinary validation failures evaluated
// before Layer 0. None of these leave an attack trail.
func (e *Engine) checkPreconditions(ctx context.Context, req LoanRequest) error {
	if req.Borrower.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "borrower is required")
	}
	if len(req.PublicSignals) < 3 {
		return dErrors.New(dErrors.CodeValidation, "public signals must include income, dti, and model hash")
	}
	for _, signal := range req.PublicSignals {
		if signal == nil || signal.Sign() < 0 || signal.BitLen() > 256 {
			return dErrors.New(dErrors.CodeValidation, "public signals must be non-negative 256-bit integers")
		}
	}

	blacklisted, err := e.watchdog.IsBlacklisted(ctx, req.Borrower)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check blacklist")
	}
	if blacklisted {
		return dErrors.New(dErrors.CodeForbidden, "actor is blacklisted")
	}

	if e.ledger.HasActiveLoan(req.Borrower) {
		return ledger.ErrExistingLoanActive
	}
	if req.Principal == nil || req.Principal.Sign() <= 0 {
		return dErrors.New(dErrors.CodeValidation, "principal must be positive")
	}
	if e.ledger.Liquidity().Cmp(req.Principal) < 0 {
		return ledger.ErrInsufficientLiquidity
	}
	return nil
}

// abort handles an adversarial rejection: the attack is recorded, any
// security deposit is forfeited into the pool, and the caller receives an
// *AttackError. These side effects survive the abandoned request; blockchain
// revert semantics never covered the watchdog.
func (e *Engine) abort(ctx context.Context, req LoanRequest, fp id.Digest, layer string, kind watchdog.AttackKind, detail string) (ledger.LoanRecord, error) {
	if err := e.watchdog.RecordAttack(ctx, req.Borrower, kind, fp, detail); err != nil && e.logger != nil {
		e.logger.ErrorContext(ctx, "failed to record attack", "error", err)
	}

	slashed := e.ledger.SlashDepositIntoPool(ctx, req.Borrower)
	if slashed.Sign() > 0 && e.auditPublisher != nil {
		_ = e.auditPublisher.Emit(ctx, pa.Event{
			Actor:       req.Borrower,
			Action:      string(pa.EventSlashingExecuted),
			Reason:      detail,
			Amount:      slashed.String(),
			Fingerprint: fp.Hex(),
		})
	}

	if e.metrics != nil {
		e.metrics.IncrementRejection("adversarial")
		e.metrics.IncrementLayerFailure(layer)
	}
	if e.logger != nil {
		e.logger.WarnContext(ctx, "loan request aborted",
			"borrower", req.Borrower,
			"layer", layer,
			"kind", kind,
			"detail", detail)
	}
	return ledger.LoanRecord{}, &AttackError{Kind: kind, Detail: detail, Fingerprint: fp}
}

func (e *Engine) reject(ctx context.Context, err error) (ledger.LoanRecord, error) {
	if e.metrics != nil {
		e.metrics.IncrementRejection("ordinary")
	}
	return ledger.LoanRecord{}, err
}

// RequiredCollateral computes principal * ratio / 100, rounding down.
func RequiredCollateral(principal *big.Int, ratio uint32) *big.Int {
	required := new(big.Int).Mul(principal, new(big.Int).SetUint64(uint64(ratio)))
	return required.Div(required, big.NewInt(100))
}

// digestFromSignal converts the model-hash public signal into a Digest.
func digestFromSignal(signal *big.Int) (id.Digest, error) {
	var word [32]byte
	signal.FillBytes(word[:])
	return id.DigestFromBytes(word[:])
}
