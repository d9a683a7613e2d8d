//go:build integration

package fingerprint_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ssmadhavan006/zkredit/internal/ledger/store/fingerprint"
	"github.com/ssmadhavan006/zkredit/pkg/platform/sentinel"
	"github.com/ssmadhavan006/zkredit/pkg/testutil"
	"github.com/ssmadhavan006/zkredit/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *fingerprint.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = fingerprint.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestAddAndContains() {
	ctx := context.Background()
	fp := testutil.DigestOf(1)

	ok, err := s.store.Contains(ctx, fp)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.Add(ctx, fp))

	ok, err = s.store.Contains(ctx, fp)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisStoreSuite) TestSecondAddRefused() {
	ctx := context.Background()
	fp := testutil.DigestOf(2)

	s.Require().NoError(s.store.Add(ctx, fp))
	err := s.store.Add(ctx, fp)
	s.True(errors.Is(err, sentinel.ErrAlreadyUsed))
}

func (s *RedisStoreSuite) TestKeyHasNoTTL() {
	ctx := context.Background()
	fp := testutil.DigestOf(3)
	s.Require().NoError(s.store.Add(ctx, fp))

	ttl, err := s.redis.Client.TTL(ctx, "zkredit:fingerprint:"+fp.Hex()).Result()
	s.Require().NoError(err)
	s.Equal(-1, int(ttl))
}
