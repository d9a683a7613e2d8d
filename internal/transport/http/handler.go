// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ssmadhavan006/zkredit/internal/engine"
	"github.com/ssmadhavan006/zkredit/internal/ledger"
	"github.com/ssmadhavan006/zkredit/internal/modelregistry"
	"github.com/ssmadhavan006/zkredit/internal/policy"
	"github.com/ssmadhavan006/zkredit/internal/watchdog"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
)

type Handler struct {
	engine   *engine.Engine
	loans    *ledger.Ledger
	policies *policy.Registry
	models   *modelregistry.Registry
	guard    *watchdog.Service
	logger   *slog.Logger
}

func NewHandler(
	eng *engine.Engine,
	loans *ledger.Ledger,
	policies *policy.Registry,
	models *modelregistry.Registry,
	guard *watchdog.Service,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		engine:   eng,
		loans:    loans,
		policies: policies,
		models:   models,
		guard:    guard,
		logger:   logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses.
// Adversarial rejections surface as 403 with the attack kind; everything
// else maps through the domain error code.
func writeError(w http.ResponseWriter, err error) {
	var attack *engine.AttackError
	if errors.As(err, &attack) {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":  "adversarial_rejection",
			"kind":   attack.Kind.String(),
			"detail": attack.Detail,
		})
		return
	}

	code := dErrors.CodeOf(err)
	writeJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": err.Error(),
	})
}
