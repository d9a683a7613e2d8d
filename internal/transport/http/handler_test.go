package httptransport

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ssmadhavan006/zkredit/internal/engine"
	"github.com/ssmadhavan006/zkredit/internal/engine/adapters"
	"github.com/ssmadhavan006/zkredit/internal/engine/ports"
	"github.com/ssmadhavan006/zkredit/internal/ledger"
	"github.com/ssmadhavan006/zkredit/internal/ledger/store/fingerprint"
	"github.com/ssmadhavan006/zkredit/internal/modelregistry"
	"github.com/ssmadhavan006/zkredit/internal/platform/middleware"
	"github.com/ssmadhavan006/zkredit/internal/policy"
	"github.com/ssmadhavan006/zkredit/internal/watchdog"
	watchdogstore "github.com/ssmadhavan006/zkredit/internal/watchdog/store"
	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	"github.com/ssmadhavan006/zkredit/pkg/testutil"
)

const testJWTSecret = "handler-test-secret"

type HandlerSuite struct {
	suite.Suite
	admin     id.ActorID
	borrower  id.ActorID
	signerKey ed25519.PrivateKey

	models *modelregistry.Registry
	loans  *ledger.Ledger
	guard  *watchdog.Service
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.admin = testutil.Actor(s.T(), 1)
	s.borrower = testutil.Actor(s.T(), 10)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	s.signerKey = priv

	policies, err := policy.New(s.admin, policy.Default())
	s.Require().NoError(err)
	s.models, err = modelregistry.New(s.admin, testutil.DigestOf(1))
	s.Require().NoError(err)
	s.guard, err = watchdog.New(watchdogstore.NewInMemory(), s.admin)
	s.Require().NoError(err)
	s.loans, err = ledger.New(fingerprint.NewInMemory(), id.Units(1000))
	s.Require().NoError(err)

	eng, err := engine.New(policies, s.models, s.guard, s.loans,
		ports.VerifierFunc(func([]byte, []*big.Int) bool { return true }),
		adapters.NewEd25519Attestation(map[string]ed25519.PublicKey{"bank": pub}))
	s.Require().NoError(err)

	handler := NewHandler(eng, s.loans, policies, s.models, s.guard, nil)
	s.router = NewRouter(handler, testJWTSecret, nil)
}

func (s *HandlerSuite) adminToken() string {
	token, err := middleware.MintAdminToken(testJWTSecret, s.admin, time.Minute)
	s.Require().NoError(err)
	return token
}

func (s *HandlerSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	s.T().Helper()
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	s.T().Helper()
	var out map[string]any
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// validLoanPayload builds a wire-shaped request that settles.
func (s *HandlerSuite) validLoanPayload() loanRequestPayload {
	dataDigest := make([]byte, 32)
	dataDigest[0] = 0xca
	signature := ed25519.Sign(s.signerKey, dataDigest)

	modelHash := s.models.Current().Hash
	return loanRequestPayload{
		Borrower:          s.borrower.String(),
		Principal:         id.Units(100).String(),
		Collateral:        id.Units(120).String(),
		ProvenCreditScore: 85,
		Proof:             "0x70726f6f66",
		PublicSignals: []string{
			id.Units(5000).String(),
			"2000",
			new(big.Int).SetBytes(modelHash[:]).String(),
		},
		Attestation: attestationPayload{
			DataDigest: hex.EncodeToString(dataDigest),
			Signature:  hex.EncodeToString(signature),
			Signer:     "bank",
		},
	}
}

func (s *HandlerSuite) TestRequestLoan() {
	s.Run("valid request settles", func() {
		rec := s.do(http.MethodPost, "/loans", s.validLoanPayload(), "")
		s.Require().Equal(http.StatusCreated, rec.Code)

		body := s.decode(rec)
		s.Equal(s.borrower.String(), body["borrower"])
		s.Equal(id.Units(100).String(), body["principal"])
	})

	s.Run("adversarial rejection returns 403 with attack kind", func() {
		payload := s.validLoanPayload()
		payload.Borrower = testutil.Actor(s.T(), 11).String()
		payload.PublicSignals[0] = "1"
		payload.Proof = "0x6261640a"

		rec := s.do(http.MethodPost, "/loans", payload, "")
		s.Require().Equal(http.StatusForbidden, rec.Code)

		body := s.decode(rec)
		s.Equal("adversarial_rejection", body["error"])
		s.Equal("forged-data", body["kind"])
	})

	s.Run("malformed borrower returns 400", func() {
		payload := s.validLoanPayload()
		payload.Borrower = "not-an-address"

		rec := s.do(http.MethodPost, "/loans", payload, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("garbage body returns 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/loans", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestLoanLifecycleOverHTTP() {
	rec := s.do(http.MethodPost, "/loans", s.validLoanPayload(), "")
	s.Require().Equal(http.StatusCreated, rec.Code)

	s.Run("active loan is readable", func() {
		rec := s.do(http.MethodGet, "/loans/"+s.borrower.String(), nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal(id.Units(120).String(), s.decode(rec)["collateral"])
	})

	s.Run("repayment closes the loan", func() {
		rec := s.do(http.MethodPost, "/loans/"+s.borrower.String()+"/repay",
			map[string]string{"amount": id.Units(100).String()}, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal(id.Units(120).String(), s.decode(rec)["returned_collateral"])

		rec = s.do(http.MethodGet, "/loans/"+s.borrower.String(), nil, "")
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestLiquidateNotExpired() {
	rec := s.do(http.MethodPost, "/loans", s.validLoanPayload(), "")
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/loans/"+s.borrower.String()+"/liquidate",
		map[string]string{"caller": testutil.Actor(s.T(), 99).String()}, "")
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlerSuite) TestDepositAndPool() {
	rec := s.do(http.MethodPost, "/deposits",
		map[string]string{"owner": s.borrower.String(), "amount": id.Units(25).String()}, "")
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.Equal(id.Units(25).String(), s.decode(rec)["balance"])

	rec = s.do(http.MethodGet, "/pool", nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(id.Units(1000).String(), s.decode(rec)["liquidity"])
}

func (s *HandlerSuite) TestAdminAuthentication() {
	s.Run("missing token returns 401", func() {
		rec := s.do(http.MethodGet, "/admin/policy", nil, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("garbage token returns 401", func() {
		rec := s.do(http.MethodGet, "/admin/policy", nil, "not-a-jwt")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("token signed with a different secret returns 401", func() {
		token, err := middleware.MintAdminToken("other-secret", s.admin, time.Minute)
		s.Require().NoError(err)
		rec := s.do(http.MethodGet, "/admin/policy", nil, token)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("valid token passes", func() {
		rec := s.do(http.MethodGet, "/admin/policy", nil, s.adminToken())
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("authenticated non-registry admin is refused by the service", func() {
		token, err := middleware.MintAdminToken(testJWTSecret, testutil.Actor(s.T(), 50), time.Minute)
		s.Require().NoError(err)

		rec := s.do(http.MethodPost, "/admin/model",
			map[string]string{"hash": testutil.DigestOf(2).Hex()}, token)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *HandlerSuite) TestPolicyAdmin() {
	s.Run("replace policy", func() {
		payload := policyPayload{
			MinIncome:               id.Units(4000).String(),
			MaxDTI:                  2500,
			MinCreditScore:          60,
			CollateralRatioGood:     125,
			CollateralRatioStandard: 155,
		}
		rec := s.do(http.MethodPut, "/admin/policy", payload, s.adminToken())
		s.Require().Equal(http.StatusNoContent, rec.Code)

		rec = s.do(http.MethodGet, "/admin/policy", nil, s.adminToken())
		s.Require().Equal(http.StatusOK, rec.Code)
		body := s.decode(rec)
		s.Equal(id.Units(4000).String(), body["min_income"])
		s.Equal(float64(2500), body["max_dti_bp"])
	})

	s.Run("invalid policy returns 400", func() {
		payload := policyPayload{
			MinIncome:               "1",
			MaxDTI:                  20000,
			MinCreditScore:          50,
			CollateralRatioGood:     120,
			CollateralRatioStandard: 150,
		}
		rec := s.do(http.MethodPut, "/admin/policy", payload, s.adminToken())
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestModelAdmin() {
	s.Run("commit bumps version", func() {
		rec := s.do(http.MethodPost, "/admin/model",
			map[string]string{"hash": testutil.DigestOf(2).Hex()}, s.adminToken())
		s.Require().Equal(http.StatusCreated, rec.Code)
		s.Equal(float64(2), s.decode(rec)["version"])
	})

	s.Run("history serves past versions", func() {
		rec := s.do(http.MethodPost, "/admin/model",
			map[string]string{"hash": testutil.DigestOf(2).Hex()}, s.adminToken())
		s.Require().Equal(http.StatusCreated, rec.Code)

		rec = s.do(http.MethodGet, "/admin/model/history/1", nil, s.adminToken())
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal(testutil.DigestOf(1).Hex(), s.decode(rec)["hash"])

		rec = s.do(http.MethodGet, "/admin/model/history/9", nil, s.adminToken())
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestWatchdogAdmin() {
	actor := testutil.Actor(s.T(), 66)

	s.Run("blacklist and rehabilitate", func() {
		rec := s.do(http.MethodPost, fmt.Sprintf("/admin/actors/%s/blacklist", actor), nil, s.adminToken())
		s.Require().Equal(http.StatusNoContent, rec.Code)

		rec = s.do(http.MethodGet, fmt.Sprintf("/admin/actors/%s/attacks", actor), nil, s.adminToken())
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal(true, s.decode(rec)["blacklisted"])

		rec = s.do(http.MethodPost, fmt.Sprintf("/admin/actors/%s/rehabilitate", actor), nil, s.adminToken())
		s.Require().Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("slashing reports the amount", func() {
		rec := s.do(http.MethodPost, "/admin/slashing", map[string]string{
			"actor":  actor.String(),
			"amount": id.Units(10).String(),
			"reason": "manual forfeit",
		}, s.adminToken())
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal(id.Units(10).String(), s.decode(rec)["slashed"])
	})

	s.Run("stats aggregate", func() {
		rec := s.do(http.MethodGet, "/admin/stats", nil, s.adminToken())
		s.Require().Equal(http.StatusOK, rec.Code)
		body := s.decode(rec)
		s.Contains(body, "total_attacks_blocked")
		s.Contains(body, "total_slashing_events")
	})
}

func (s *HandlerSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", nil, "")
	s.Equal(http.StatusOK, rec.Code)
}
