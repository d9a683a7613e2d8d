package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	"github.com/ssmadhavan006/zkredit/internal/watchdog"
	id "github.com/ssmadhavan006/zkredit/pkg/domain"
)

// PostgresStore persists watchdog state in PostgreSQL. This store is pure
// I/O; threshold and blacklist decisions belong in the service.
//
// Expected schema:
//
//	CREATE TABLE attack_records (
//	    actor       TEXT        NOT NULL,
//	    kind        TEXT        NOT NULL,
//	    fingerprint TEXT        NOT NULL,
//	    detail      TEXT        NOT NULL DEFAULT '',
//	    at          TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX attack_records_actor_idx ON attack_records (actor);
//
//	CREATE TABLE blacklist (
//	    actor TEXT PRIMARY KEY
//	);
//
//	CREATE TABLE slashing_events (
//	    actor     TEXT        NOT NULL,
//	    by_actor  TEXT        NOT NULL,
//	    amount    NUMERIC(78) NOT NULL,
//	    reason    TEXT        NOT NULL DEFAULT '',
//	    at        TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AppendAttack(ctx context.Context, record watchdog.AttackRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append attack: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attack_records (actor, kind, fingerprint, detail, at)
		VALUES ($1, $2, $3, $4, $5)
	`, record.Actor.String(), record.Kind.String(), record.Fingerprint.Hex(), record.Detail, record.At)
	if err != nil {
		return 0, fmt.Errorf("insert attack record: %w", err)
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attack_records WHERE actor = $1
	`, record.Actor.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attack records: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append attack: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) AttackCount(ctx context.Context, actor id.ActorID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attack_records WHERE actor = $1
	`, actor.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attack records: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListByActor(ctx context.Context, actor id.ActorID) ([]watchdog.AttackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT actor, kind, fingerprint, detail, at
		FROM attack_records
		WHERE actor = $1
		ORDER BY at
	`, actor.String())
	if err != nil {
		return nil, fmt.Errorf("list attack records: %w", err)
	}
	defer rows.Close()

	var out []watchdog.AttackRecord
	for rows.Next() {
		var (
			record         watchdog.AttackRecord
			rawActor       string
			rawKind        string
			rawFingerprint string
		)
		if err := rows.Scan(&rawActor, &rawKind, &rawFingerprint, &record.Detail, &record.At); err != nil {
			return nil, fmt.Errorf("scan attack record: %w", err)
		}
		record.Actor = id.ActorID(rawActor)
		record.Kind = watchdog.AttackKind(rawKind)
		if record.Fingerprint, err = id.ParseDigest(rawFingerprint); err != nil {
			return nil, fmt.Errorf("parse fingerprint: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetBlacklisted(ctx context.Context, actor id.ActorID, flagged bool) error {
	var err error
	if flagged {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO blacklist (actor) VALUES ($1)
			ON CONFLICT (actor) DO NOTHING
		`, actor.String())
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM blacklist WHERE actor = $1`, actor.String())
	}
	if err != nil {
		return fmt.Errorf("set blacklisted: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsBlacklisted(ctx context.Context, actor id.ActorID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM blacklist WHERE actor = $1)
	`, actor.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query blacklist: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) AppendSlashing(ctx context.Context, event watchdog.SlashingEvent) error {
	amount := "0"
	if event.Amount != nil {
		amount = event.Amount.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO slashing_events (actor, by_actor, amount, reason, at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.Actor.String(), event.By.String(), amount, event.Reason, event.At)
	if err != nil {
		return fmt.Errorf("insert slashing event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Totals(ctx context.Context) (watchdog.Stats, error) {
	var stats watchdog.Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM attack_records),
			(SELECT COUNT(*) FROM slashing_events)
	`).Scan(&stats.TotalAttacksBlocked, &stats.TotalSlashingEvents)
	if err != nil {
		return watchdog.Stats{}, fmt.Errorf("query watchdog totals: %w", err)
	}
	return stats, nil
}

// SlashedTotal sums all recorded slashing amounts, for the admin stats view.
func (s *PostgresStore) SlashedTotal(ctx context.Context) (*big.Int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0)::TEXT FROM slashing_events
	`).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("sum slashing amounts: %w", err)
	}
	total, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("parse slashing total %q", raw)
	}
	return total, nil
}
