package config

import (
	"testing"

	"github.com/stretchr/testify/suite"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestDefaults() {
	cfg := FromEnv()

	s.Equal(":8080", cfg.Addr)
	s.Equal("info", cfg.LogLevel)
	s.Equal(id.ActorID("0x0000000000000000000000000000000000000001"), cfg.Admin)
	s.Zero(cfg.InitialLiquidity.Cmp(id.Units(1000)))
	s.Empty(cfg.RedisAddr)
	s.Empty(cfg.KafkaBrokers)
	s.Equal("zkredit.audit", cfg.KafkaTopic)
	s.Equal("bank", cfg.AttestationIssuer)
}

func (s *ConfigSuite) TestOverrides() {
	s.T().Setenv("ZKREDIT_ADDR", ":9090")
	s.T().Setenv("ZKREDIT_ADMIN_ACTOR", "0x00000000000000000000000000000000000000AA")
	s.T().Setenv("ZKREDIT_INITIAL_LIQUIDITY", id.Units(5000).String())
	s.T().Setenv("ZKREDIT_KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

	cfg := FromEnv()

	s.Equal(":9090", cfg.Addr)
	s.Equal(id.ActorID("0x00000000000000000000000000000000000000aa"), cfg.Admin)
	s.Zero(cfg.InitialLiquidity.Cmp(id.Units(5000)))
	s.Equal([]string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
}

func (s *ConfigSuite) TestInvalidValuesFallBack() {
	s.T().Setenv("ZKREDIT_ADMIN_ACTOR", "not-an-address")
	s.T().Setenv("ZKREDIT_INITIAL_LIQUIDITY", "-5")

	cfg := FromEnv()

	s.True(cfg.Admin.IsZero())
	s.Zero(cfg.InitialLiquidity.Cmp(id.Units(1000)))
}
