package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ssmadhavan006/zkredit/internal/platform/middleware"
	"github.com/ssmadhavan006/zkredit/pkg/requestcontext"
)

// NewRouter wires all endpoints. Administrative routes sit behind the admin
// JWT middleware; the per-registry administrator check happens in the
// services themselves.
func NewRouter(h *Handler, adminJWTSecret string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// Bridge chi's request ID into the http-free context package so the
	// audit publisher can correlate events without importing chi.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := requestcontext.WithRequestID(req.Context(), chimiddleware.GetReqID(req.Context()))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/loans", h.handleRequestLoan)
	r.Get("/loans/{borrower}", h.handleGetLoan)
	r.Post("/loans/{borrower}/repay", h.handleRepay)
	r.Post("/loans/{borrower}/liquidate", h.handleLiquidate)
	r.Post("/deposits", h.handleDeposit)
	r.Get("/pool", h.handlePool)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(adminJWTSecret, logger))
		r.Get("/policy", h.handleGetPolicy)
		r.Put("/policy", h.handleReplacePolicy)
		r.Get("/model", h.handleGetModel)
		r.Post("/model", h.handleCommitModel)
		r.Get("/model/history/{version}", h.handleModelHistory)
		r.Post("/actors/{actor}/blacklist", h.handleBlacklist)
		r.Post("/actors/{actor}/rehabilitate", h.handleRehabilitate)
		r.Post("/slashing", h.handleSlashing)
		r.Get("/actors/{actor}/attacks", h.handleAttackHistory)
		r.Get("/stats", h.handleStats)
	})

	return r
}
