package httptransport

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ssmadhavan006/zkredit/internal/engine"
	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
)

type attestationPayload struct {
	DataDigest string `json:"data_digest"`
	Signature  string `json:"signature"`
	Signer     string `json:"signer"`
}

type loanRequestPayload struct {
	Borrower          string             `json:"borrower"`
	Principal         string             `json:"principal"`
	Collateral        string             `json:"collateral"`
	ProvenCreditScore uint32             `json:"proven_credit_score"`
	Proof             string             `json:"proof"`
	PublicSignals     []string           `json:"public_signals"`
	Attestation       attestationPayload `json:"attestation"`
}

// toLoanRequest validates the wire shape. The engine re-validates domain
// bounds; this only rejects payloads that cannot be decoded at all.
func (p loanRequestPayload) toLoanRequest() (engine.LoanRequest, error) {
	borrower, err := id.ParseActorID(p.Borrower)
	if err != nil {
		return engine.LoanRequest{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid borrower")
	}
	principal, err := id.ParseAmount(p.Principal)
	if err != nil {
		return engine.LoanRequest{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid principal")
	}
	collateral, err := id.ParseAmount(p.Collateral)
	if err != nil {
		return engine.LoanRequest{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid collateral")
	}
	proof, err := decodeHex(p.Proof)
	if err != nil {
		return engine.LoanRequest{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid proof encoding")
	}

	signals := make([]*big.Int, len(p.PublicSignals))
	for i, raw := range p.PublicSignals {
		signal, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
		if !ok {
			return engine.LoanRequest{}, dErrors.Newf(dErrors.CodeBadRequest, "invalid public signal at index %d", i)
		}
		signals[i] = signal
	}

	digest, err := decodeHex(p.Attestation.DataDigest)
	if err != nil {
		return engine.LoanRequest{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid attestation digest encoding")
	}
	signature, err := decodeHex(p.Attestation.Signature)
	if err != nil {
		return engine.LoanRequest{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid attestation signature encoding")
	}

	return engine.LoanRequest{
		Borrower:          borrower,
		Principal:         principal,
		OfferedCollateral: collateral,
		ProvenCreditScore: p.ProvenCreditScore,
		Proof:             proof,
		PublicSignals:     signals,
		Attestation: engine.Attestation{
			DataDigest: digest,
			Signature:  signature,
			Signer:     p.Attestation.Signer,
		},
	}, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	return hex.DecodeString(s)
}
