// Mock zk proof verifier sidecar for local development. Accepts the same
// POST contract as the production verifier and approves any structurally
// well-formed proof. Never deploy this.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
)

type verifyRequest struct {
	Proof         string   `json:"proof"`
	PublicSignals []string `json:"public_signals"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

func main() {
	addr := os.Getenv("MOCK_VERIFIER_ADDR")
	if addr == "" {
		addr = ":9100"
	}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		valid := req.Proof != "" && len(req.PublicSignals) >= 3
		log.Printf("verify proof_len=%d signals=%d valid=%t", len(req.Proof), len(req.PublicSignals), valid)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(verifyResponse{Valid: valid})
	})

	log.Printf("mock zk verifier listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
