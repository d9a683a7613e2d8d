package domain

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ActorIDSuite struct {
	suite.Suite
}

func TestActorIDSuite(t *testing.T) {
	suite.Run(t, new(ActorIDSuite))
}

func (s *ActorIDSuite) TestParseActorID() {
	s.Run("valid address normalizes to lowercase", func() {
		actor, err := ParseActorID("0xAbCdEf0123456789abcdef0123456789ABCDEF01")
		s.Require().NoError(err)
		s.Equal("0xabcdef0123456789abcdef0123456789abcdef01", actor.String())
	})

	s.Run("surrounding whitespace trimmed", func() {
		actor, err := ParseActorID("  0x0000000000000000000000000000000000000001 ")
		s.Require().NoError(err)
		s.False(actor.IsZero())
	})

	s.Run("missing prefix rejected", func() {
		_, err := ParseActorID("abcdef0123456789abcdef0123456789abcdef01")
		s.Error(err)
	})

	s.Run("wrong length rejected", func() {
		_, err := ParseActorID("0xabcd")
		s.Error(err)
	})

	s.Run("non-hex character rejected", func() {
		_, err := ParseActorID("0xzzcdef0123456789abcdef0123456789abcdef01")
		s.Error(err)
	})

	s.Run("empty id is zero", func() {
		s.True(ActorID("").IsZero())
	})
}

type DigestSuite struct {
	suite.Suite
}

func TestDigestSuite(t *testing.T) {
	suite.Run(t, new(DigestSuite))
}

func (s *DigestSuite) TestParseDigest() {
	hex64 := "00000000000000000000000000000000000000000000000000000000000000ff"

	s.Run("bare hex accepted", func() {
		d, err := ParseDigest(hex64)
		s.Require().NoError(err)
		s.Equal(byte(0xff), d[31])
	})

	s.Run("0x prefix accepted", func() {
		d, err := ParseDigest("0x" + hex64)
		s.Require().NoError(err)
		s.Equal("0x"+hex64, d.Hex())
	})

	s.Run("wrong length rejected", func() {
		_, err := ParseDigest("0xff")
		s.Error(err)
	})

	s.Run("non-hex rejected", func() {
		_, err := ParseDigest("zz" + hex64[2:])
		s.Error(err)
	})
}

func (s *DigestSuite) TestDigestFromBytes() {
	raw := make([]byte, 32)
	raw[0] = 0xaa

	d, err := DigestFromBytes(raw)
	s.Require().NoError(err)
	s.Equal(byte(0xaa), d[0])

	_, err = DigestFromBytes(raw[:31])
	s.Error(err)
}

func (s *DigestSuite) TestZeroValue() {
	s.True(Digest{}.IsZero())

	d, err := ParseDigest("0x00000000000000000000000000000000000000000000000000000000000000ff")
	s.Require().NoError(err)
	s.False(d.IsZero())
}

func (s *DigestSuite) TestJSONRoundTrip() {
	d, err := ParseDigest("0x00000000000000000000000000000000000000000000000000000000000000ff")
	s.Require().NoError(err)

	raw, err := json.Marshal(d)
	s.Require().NoError(err)
	s.JSONEq(`"`+d.Hex()+`"`, string(raw))

	var back Digest
	s.Require().NoError(json.Unmarshal(raw, &back))
	s.Equal(d, back)
}

type AmountSuite struct {
	suite.Suite
}

func TestAmountSuite(t *testing.T) {
	suite.Run(t, new(AmountSuite))
}

func (s *AmountSuite) TestParseAmount() {
	s.Run("decimal string accepted", func() {
		v, err := ParseAmount("12345")
		s.Require().NoError(err)
		s.Zero(v.Cmp(big.NewInt(12345)))
	})

	s.Run("negative rejected", func() {
		_, err := ParseAmount("-1")
		s.Error(err)
	})

	s.Run("empty rejected", func() {
		_, err := ParseAmount("")
		s.Error(err)
	})

	s.Run("non-numeric rejected", func() {
		_, err := ParseAmount("12.5")
		s.Error(err)
	})

	s.Run("wider than 64 bits accepted", func() {
		v, err := ParseAmount(Units(1_000_000_000).String())
		s.Require().NoError(err)
		s.Zero(v.Cmp(Units(1_000_000_000)))
	})
}

func (s *AmountSuite) TestUnits() {
	s.Equal("3000000000000000000000", Units(3000).String())
	s.Zero(Units(0).Sign())
}

func (s *AmountSuite) TestFormatAmount() {
	s.Equal("0", FormatAmount(nil))
	s.Equal("42", FormatAmount(big.NewInt(42)))
}
