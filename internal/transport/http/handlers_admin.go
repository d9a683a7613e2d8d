package httptransport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ssmadhavan006/zkredit/internal/platform/middleware"
	"github.com/ssmadhavan006/zkredit/internal/policy"
	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
)

type policyPayload struct {
	MinIncome               string `json:"min_income"`
	MaxDTI                  uint32 `json:"max_dti_bp"`
	MinCreditScore          uint32 `json:"min_credit_score"`
	CollateralRatioGood     uint32 `json:"collateral_ratio_good"`
	CollateralRatioStandard uint32 `json:"collateral_ratio_standard"`
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	p := h.policies.Get()
	writeJSON(w, http.StatusOK, policyPayload{
		MinIncome:               p.MinIncome.String(),
		MaxDTI:                  p.MaxDTI,
		MinCreditScore:          p.MinCreditScore,
		CollateralRatioGood:     p.CollateralRatioGood,
		CollateralRatioStandard: p.CollateralRatioStandard,
	})
}

func (h *Handler) handleReplacePolicy(w http.ResponseWriter, r *http.Request) {
	var payload policyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	minIncome, err := id.ParseAmount(payload.MinIncome)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid min income"))
		return
	}

	next := policy.PolicySet{
		MinIncome:               minIncome,
		MaxDTI:                  payload.MaxDTI,
		MinCreditScore:          payload.MinCreditScore,
		CollateralRatioGood:     payload.CollateralRatioGood,
		CollateralRatioStandard: payload.CollateralRatioStandard,
	}
	if err := h.policies.Replace(r.Context(), middleware.AdminActor(r.Context()), next); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetModel(w http.ResponseWriter, r *http.Request) {
	current := h.models.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"hash":    current.Hash.Hex(),
		"version": current.Version,
	})
}

func (h *Handler) handleCommitModel(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	hash, err := id.ParseDigest(payload.Hash)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid model hash"))
		return
	}

	committed, err := h.models.Commit(r.Context(), middleware.AdminActor(r.Context()), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"hash":    committed.Hash.Hex(),
		"version": committed.Version,
	})
}

func (h *Handler) handleModelHistory(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.ParseUint(chi.URLParam(r, "version"), 10, 64)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid version"))
		return
	}
	hash, err := h.models.HistoryAt(version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hash":    hash.Hex(),
		"version": version,
	})
}

func (h *Handler) handleBlacklist(w http.ResponseWriter, r *http.Request) {
	actor, err := id.ParseActorID(chi.URLParam(r, "actor"))
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid actor"))
		return
	}
	if err := h.guard.Blacklist(r.Context(), middleware.AdminActor(r.Context()), actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRehabilitate(w http.ResponseWriter, r *http.Request) {
	actor, err := id.ParseActorID(chi.URLParam(r, "actor"))
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid actor"))
		return
	}
	if err := h.guard.Rehabilitate(r.Context(), middleware.AdminActor(r.Context()), actor); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSlashing(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Actor  string `json:"actor"`
		Amount string `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	actor, err := id.ParseActorID(payload.Actor)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid actor"))
		return
	}
	amount, err := id.ParseAmount(payload.Amount)
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid amount"))
		return
	}

	slashed, err := h.guard.ExecuteSlashing(r.Context(), middleware.AdminActor(r.Context()), actor, amount, payload.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"actor":   actor.String(),
		"slashed": slashed.String(),
	})
}

func (h *Handler) handleAttackHistory(w http.ResponseWriter, r *http.Request) {
	actor, err := id.ParseActorID(chi.URLParam(r, "actor"))
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid actor"))
		return
	}
	records, err := h.guard.History(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	blacklisted, err := h.guard.IsBlacklisted(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actor":       actor.String(),
		"blacklisted": blacklisted,
		"records":     records,
	})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.guard.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
