package watchdog_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ssmadhavan006/zkredit/internal/watchdog"
	"github.com/ssmadhavan006/zkredit/internal/watchdog/store"
	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	dErrors "github.com/ssmadhavan006/zkredit/pkg/domain-errors"
	pa "github.com/ssmadhavan006/zkredit/pkg/platform/audit"
	"github.com/ssmadhavan006/zkredit/pkg/testutil"
)

type capturedEvents struct {
	events []pa.Event
}

func (c *capturedEvents) Emit(_ context.Context, event pa.Event) error {
	c.events = append(c.events, event)
	return nil
}

func (c *capturedEvents) actions() []string {
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.Action
	}
	return out
}

type ServiceSuite struct {
	suite.Suite
	admin    id.ActorID
	outsider id.ActorID
	attacker id.ActorID
	audit    *capturedEvents
	service  *watchdog.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.admin = testutil.Actor(s.T(), 1)
	s.outsider = testutil.Actor(s.T(), 2)
	s.attacker = testutil.Actor(s.T(), 66)
	s.audit = &capturedEvents{}

	service, err := watchdog.New(store.NewInMemory(), s.admin,
		watchdog.WithAuditPublisher(s.audit),
		watchdog.WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }))
	s.Require().NoError(err)
	s.service = service
}

func (s *ServiceSuite) recordAttacks(n int) {
	ctx := context.Background()
	for i := 0; i < n; i++ {
		err := s.service.RecordAttack(ctx, s.attacker, watchdog.KindReplay, testutil.DigestOf(byte(i+1)), "replayed proof")
		s.Require().NoError(err)
	}
}

func (s *ServiceSuite) TestRecordAttack() {
	ctx := context.Background()

	s.Run("unknown kind rejected", func() {
		err := s.service.RecordAttack(ctx, s.attacker, watchdog.AttackKind("bogus"), id.Digest{}, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("counter increments per attack", func() {
		s.recordAttacks(2)

		count, err := s.service.AttackCount(ctx, s.attacker)
		s.Require().NoError(err)
		s.Equal(2, count)

		flagged, err := s.service.IsBlacklisted(ctx, s.attacker)
		s.Require().NoError(err)
		s.False(flagged)
	})

	s.Run("third attack blacklists exactly once", func() {
		s.recordAttacks(4)

		flagged, err := s.service.IsBlacklisted(ctx, s.attacker)
		s.Require().NoError(err)
		s.True(flagged)

		blacklistings := 0
		for _, action := range s.audit.actions() {
			if action == string(pa.EventActorBlacklisted) {
				blacklistings++
			}
		}
		s.Equal(1, blacklistings)
	})

	s.Run("history preserves every record", func() {
		s.recordAttacks(3)

		records, err := s.service.History(ctx, s.attacker)
		s.Require().NoError(err)
		s.Require().Len(records, 3)
		for _, record := range records {
			s.Equal(watchdog.KindReplay, record.Kind)
			s.Equal(s.attacker, record.Actor)
		}
	})
}

func (s *ServiceSuite) TestRehabilitation() {
	ctx := context.Background()
	s.recordAttacks(3)

	s.Run("rehabilitation clears flag but keeps counter", func() {
		s.Require().NoError(s.service.Rehabilitate(ctx, s.admin, s.attacker))

		flagged, err := s.service.IsBlacklisted(ctx, s.attacker)
		s.Require().NoError(err)
		s.False(flagged)

		count, err := s.service.AttackCount(ctx, s.attacker)
		s.Require().NoError(err)
		s.Equal(3, count)
	})

	s.Run("next attack re-triggers blacklisting", func() {
		err := s.service.RecordAttack(ctx, s.attacker, watchdog.KindForgedData, testutil.DigestOf(99), "income below floor")
		s.Require().NoError(err)

		flagged, err := s.service.IsBlacklisted(ctx, s.attacker)
		s.Require().NoError(err)
		s.True(flagged)
	})

	s.Run("non-admin cannot rehabilitate", func() {
		err := s.service.Rehabilitate(ctx, s.outsider, s.attacker)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestBlacklistOverride() {
	ctx := context.Background()

	s.Run("admin can blacklist without attacks", func() {
		s.Require().NoError(s.service.Blacklist(ctx, s.admin, s.attacker))

		flagged, err := s.service.IsBlacklisted(ctx, s.attacker)
		s.Require().NoError(err)
		s.True(flagged)
	})

	s.Run("non-admin rejected", func() {
		err := s.service.Blacklist(ctx, s.outsider, s.attacker)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestExecuteSlashing() {
	ctx := context.Background()

	s.Run("admin slashes and amount is returned", func() {
		amount, err := s.service.ExecuteSlashing(ctx, s.admin, s.attacker, id.Units(50), "repeated replay attempts")
		s.Require().NoError(err)
		s.Zero(amount.Cmp(id.Units(50)))

		stats, err := s.service.Stats(ctx)
		s.Require().NoError(err)
		s.Equal(uint64(1), stats.TotalSlashingEvents)
	})

	s.Run("mutating the returned amount leaves the caller's value intact", func() {
		original := id.Units(50)
		amount, err := s.service.ExecuteSlashing(ctx, s.admin, s.attacker, original, "")
		s.Require().NoError(err)

		amount.SetInt64(0)
		s.Zero(original.Cmp(id.Units(50)))
	})

	s.Run("negative amount rejected", func() {
		_, err := s.service.ExecuteSlashing(ctx, s.admin, s.attacker, big.NewInt(-1), "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("nil amount rejected", func() {
		_, err := s.service.ExecuteSlashing(ctx, s.admin, s.attacker, nil, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("non-admin rejected", func() {
		_, err := s.service.ExecuteSlashing(ctx, s.outsider, s.attacker, id.Units(1), "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestStats() {
	ctx := context.Background()
	s.recordAttacks(2)
	_, err := s.service.ExecuteSlashing(ctx, s.admin, s.attacker, id.Units(10), "")
	s.Require().NoError(err)

	stats, err := s.service.Stats(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), stats.TotalAttacksBlocked)
	s.Equal(uint64(1), stats.TotalSlashingEvents)
}

func (s *ServiceSuite) TestRotateAdmin() {
	ctx := context.Background()

	s.Run("old admin loses authority", func() {
		s.Require().NoError(s.service.RotateAdmin(ctx, s.admin, s.outsider))

		err := s.service.Blacklist(ctx, s.admin, s.attacker)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		s.NoError(s.service.Blacklist(ctx, s.outsider, s.attacker))
	})

	s.Run("zero next admin rejected", func() {
		err := s.service.RotateAdmin(ctx, s.outsider, "")
		s.Require().Error(err)
	})
}

func (s *ServiceSuite) TestParseAttackKind() {
	s.Run("known kinds parse", func() {
		for _, raw := range []string{"replay", "forged-data", "model-tamper", "constraint-evasion", "provenance-forgery"} {
			kind, err := watchdog.ParseAttackKind(raw)
			s.Require().NoError(err)
			s.True(kind.Valid())
		}
	})

	s.Run("unknown kind rejected", func() {
		_, err := watchdog.ParseAttackKind("social-engineering")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
