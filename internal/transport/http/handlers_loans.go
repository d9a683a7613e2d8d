package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
)

type loanResponse struct {
	Borrower          string `json:"borrower"`
	Principal         string `json:"principal"`
	Collateral        string `json:"collateral"`
	ProvenCreditScore uint32 `json:"proven_credit_score"`
	CreatedAt         string `json:"created_at"`
	RepaymentDeadline string `json:"repayment_deadline"`
}

func (h *Handler) handleRequestLoan(w http.ResponseWriter, r *http.Request) {
	var payload loanRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	req, err := payload.toLoanRequest()
	if err != nil {
		writeError(w, err)
		return
	}

	loan, err := h.engine.RequestLoan(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loanResponse{
		Borrower:          loan.Borrower.String(),
		Principal:         loan.Principal.String(),
		Collateral:        loan.Collateral.String(),
		ProvenCreditScore: loan.ProvenCreditScore,
		CreatedAt:         loan.CreatedAt.Format(timeFormat),
		RepaymentDeadline: loan.RepaymentDeadline.Format(timeFormat),
	})
}

func (h *Handler) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	borrower, err := id.ParseActorID(chi.URLParam(r, "borrower"))
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid borrower"))
		return
	}
	loan, ok := h.loans.ActiveLoan(borrower)
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "no active loan"))
		return
	}
	writeJSON(w, http.StatusOK, loanResponse{
		Borrower:          loan.Borrower.String(),
		Principal:         loan.Principal.String(),
		Collateral:        loan.Collateral.String(),
		ProvenCreditScore: loan.ProvenCreditScore,
		CreatedAt:         loan.CreatedAt.Format(timeFormat),
		RepaymentDeadline: loan.RepaymentDeadline.Format(timeFormat),
	})
}

func (h *Handler) handleRepay(w http.ResponseWriter, r *http.Request) {
	borrower, err := id.ParseActorID(chi.URLParam(r, "borrower"))
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid borrower"))
		return
	}
	var payload struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	amount, err := id.ParseAmount(payload.Amount)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid amount"))
		return
	}

	loan, err := h.loans.Repay(r.Context(), borrower, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"borrower":            loan.Borrower.String(),
		"returned_collateral": loan.Collateral.String(),
	})
}

func (h *Handler) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	borrower, err := id.ParseActorID(chi.URLParam(r, "borrower"))
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid borrower"))
		return
	}
	var payload struct {
		Caller string `json:"caller"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	caller, err := id.ParseActorID(payload.Caller)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid caller"))
		return
	}

	loan, err := h.loans.Liquidate(r.Context(), caller, borrower)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"borrower":              loan.Borrower.String(),
		"liquidated_collateral": loan.Collateral.String(),
	})
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Owner  string `json:"owner"`
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	owner, err := id.ParseActorID(payload.Owner)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid owner"))
		return
	}
	amount, err := id.ParseAmount(payload.Amount)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid amount"))
		return
	}

	if err := h.loans.PlaceDeposit(r.Context(), owner, amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"owner":   owner.String(),
		"balance": h.loans.DepositOf(owner).String(),
	})
}

func (h *Handler) handlePool(w http.ResponseWriter, r *http.Request) {
	pool := h.loans.Pool()
	writeJSON(w, http.StatusOK, map[string]string{
		"liquidity":    pool.Liquidity.String(),
		"total_locked": pool.TotalLocked.String(),
	})
}

const timeFormat = "2006-01-02T15:04:05Z07:00"
