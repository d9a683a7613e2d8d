package main

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"encoding/hex"
	"errors"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ssmadhavan006/zkredit/internal/audit"
	"github.com/ssmadhavan006/zkredit/internal/engine"
	"github.com/ssmadhavan006/zkredit/internal/engine/adapters"
	enginemetrics "github.com/ssmadhavan006/zkredit/internal/engine/metrics"
	"github.com/ssmadhavan006/zkredit/internal/engine/ports"
	"github.com/ssmadhavan006/zkredit/internal/ledger"
	"github.com/ssmadhavan006/zkredit/internal/ledger/store/fingerprint"
	"github.com/ssmadhavan006/zkredit/internal/modelregistry"
	"github.com/ssmadhavan006/zkredit/internal/platform/config"
	"github.com/ssmadhavan006/zkredit/internal/platform/httpserver"
	"github.com/ssmadhavan006/zkredit/internal/platform/logger"
	"github.com/ssmadhavan006/zkredit/internal/policy"
	httptransport "github.com/ssmadhavan006/zkredit/internal/transport/http"
	"github.com/ssmadhavan006/zkredit/internal/watchdog"
	watchdogmetrics "github.com/ssmadhavan006/zkredit/internal/watchdog/metrics"
	watchdogstore "github.com/ssmadhavan006/zkredit/internal/watchdog/store"
	id "github.com/ssmadhavan006/zkredit/pkg/domain"
)

// main wires dependencies and owns the process lifecycle. Business rules
// live in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	publisher := audit.NewPublisher(256, audit.WithPublisherLogger(log))
	auditStore := audit.NewInMemoryStore()

	var sinks []audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("failed to create kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}

	var fingerprints ledger.FingerprintStore = fingerprint.NewInMemory()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		fingerprints = fingerprint.NewRedis(client)
	}

	var guardStore watchdog.Store = watchdogstore.NewInMemory()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		guardStore = watchdogstore.NewPostgres(db)
	}

	policies, err := policy.New(cfg.Admin, policy.Default(),
		policy.WithLogger(log),
		policy.WithAuditPublisher(publisher))
	if err != nil {
		log.Error("failed to create policy registry", "error", err)
		os.Exit(1)
	}

	models, err := modelregistry.New(cfg.Admin, bootstrapModelHash(),
		modelregistry.WithLogger(log),
		modelregistry.WithAuditPublisher(publisher))
	if err != nil {
		log.Error("failed to create model registry", "error", err)
		os.Exit(1)
	}

	guard, err := watchdog.New(guardStore, cfg.Admin,
		watchdog.WithLogger(log),
		watchdog.WithAuditPublisher(publisher),
		watchdog.WithMetrics(watchdogmetrics.New()))
	if err != nil {
		log.Error("failed to create watchdog", "error", err)
		os.Exit(1)
	}

	loans, err := ledger.New(fingerprints, cfg.InitialLiquidity,
		ledger.WithLogger(log),
		ledger.WithAuditPublisher(publisher))
	if err != nil {
		log.Error("failed to create loan ledger", "error", err)
		os.Exit(1)
	}

	var verifier ports.ProofVerifier
	if cfg.VerifierURL != "" {
		verifier = adapters.NewHTTPVerifier(cfg.VerifierURL, log)
	} else {
		log.Warn("no proof verifier configured, all proofs will be rejected")
		verifier = ports.VerifierFunc(func([]byte, []*big.Int) bool { return false })
	}

	issuers := map[string]ed25519.PublicKey{}
	if cfg.AttestationIssuerKey != "" {
		key, decodeErr := hex.DecodeString(cfg.AttestationIssuerKey)
		if decodeErr != nil || len(key) != ed25519.PublicKeySize {
			log.Error("invalid attestation issuer key")
			os.Exit(1)
		}
		issuers[cfg.AttestationIssuer] = ed25519.PublicKey(key)
	}

	eng, err := engine.New(policies, models, guard, loans,
		verifier,
		adapters.NewEd25519Attestation(issuers),
		engine.WithLogger(log),
		engine.WithAuditPublisher(publisher),
		engine.WithMetrics(enginemetrics.New()))
	if err != nil {
		log.Error("failed to create verification engine", "error", err)
		os.Exit(1)
	}

	handler := httptransport.NewHandler(eng, loans, policies, models, guard, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, cfg.AdminJWTSecret, log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := audit.NewWorker(auditStore, publisher.Inbox(), sinks, log).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		log.Info("starting zkredit settlement core", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// bootstrapModelHash reads the initial model commitment from the environment,
// falling back to a fixed development value so a fresh checkout boots.
func bootstrapModelHash() id.Digest {
	if raw := os.Getenv("ZKREDIT_MODEL_HASH"); raw != "" {
		if d, err := id.ParseDigest(raw); err == nil {
			return d
		}
	}
	var d id.Digest
	d[31] = 1
	return d
}
