package config

import (
	"math/big"
	"os"
	"strings"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
)

// Server captures process-level configuration. Optional backends (Redis,
// Postgres, Kafka) activate only when their variables are set; the default
// deployment is fully in-memory.
type Server struct {
	Addr           string
	LogLevel       string
	AdminJWTSecret string
	// Admin is the initial administrator for every registry; rotation happens
	// per registry at runtime.
	Admin id.ActorID
	// InitialLiquidity seeds the lending pool at startup.
	InitialLiquidity *big.Int

	RedisAddr   string
	PostgresDSN string

	KafkaBrokers []string
	KafkaTopic   string

	// VerifierURL points at the zk proof verifier sidecar. Empty means the
	// process must be wired with an in-process verifier by the caller.
	VerifierURL string

	// AttestationIssuer names the trusted bank attestation signer;
	// AttestationIssuerKey is its hex-encoded ed25519 public key.
	AttestationIssuer    string
	AttestationIssuerKey string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:           envOr("ZKREDIT_ADDR", ":8080"),
		LogLevel:       envOr("ZKREDIT_LOG_LEVEL", "info"),
		AdminJWTSecret: envOr("ZKREDIT_ADMIN_JWT_SECRET", "dev-secret-change-in-production"),
		RedisAddr:      os.Getenv("ZKREDIT_REDIS_ADDR"),
		PostgresDSN:    os.Getenv("ZKREDIT_POSTGRES_DSN"),
		KafkaTopic:     envOr("ZKREDIT_KAFKA_AUDIT_TOPIC", "zkredit.audit"),
		VerifierURL:    os.Getenv("ZKREDIT_VERIFIER_URL"),

		AttestationIssuer:    envOr("ZKREDIT_ATTESTATION_ISSUER", "bank"),
		AttestationIssuerKey: os.Getenv("ZKREDIT_ATTESTATION_ISSUER_KEY"),
	}

	if admin, err := id.ParseActorID(envOr("ZKREDIT_ADMIN_ACTOR", "0x0000000000000000000000000000000000000001")); err == nil {
		cfg.Admin = admin
	}

	if brokers := os.Getenv("ZKREDIT_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	cfg.InitialLiquidity = id.Units(1000)
	if raw := os.Getenv("ZKREDIT_INITIAL_LIQUIDITY"); raw != "" {
		if v, err := id.ParseAmount(raw); err == nil {
			cfg.InitialLiquidity = v
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
