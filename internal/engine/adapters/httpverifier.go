package adapters

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ssmadhavan006/zkredit/internal/engine/ports"
)

// HTTPVerifier delegates proof verification to the zk verifier sidecar.
// The verifier contract exposes no error path: transport failures, bad
// responses, and invalid proofs all report false.
type HTTPVerifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

func NewHTTPVerifier(url string, logger *slog.Logger) *HTTPVerifier {
	return &HTTPVerifier{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

var _ ports.ProofVerifier = (*HTTPVerifier)(nil)

type verifyRequest struct {
	Proof         string   `json:"proof"`
	PublicSignals []string `json:"public_signals"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

func (v *HTTPVerifier) Verify(proof []byte, publicSignals []*big.Int) bool {
	payload := verifyRequest{
		Proof:         hex.EncodeToString(proof),
		PublicSignals: make([]string, len(publicSignals)),
	}
	for i, signal := range publicSignals {
		payload.PublicSignals[i] = signal.String()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		if v.logger != nil {
			v.logger.Warn("proof verifier unreachable", "error", err)
		}
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false
	}
	return out.Valid
}
