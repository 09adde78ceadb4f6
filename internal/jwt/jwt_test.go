package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/suite"
)

type JWTTestSuite struct {
	suite.Suite
	clock  *clockwork.FakeClock
	auth   Auth
	claims Claims
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}

func (s *JWTTestSuite) SetupTest() {
	s.clock = clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	s.auth = NewAuth("test-secret", WithClock(s.clock), WithIssuer("livecast"))
	s.claims = Claims{
		Name:             "Ada",
		Email:            "ada@example.com",
		Role:             "broadcaster",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "acct-1"},
	}
}

func (s *JWTTestSuite) TestSignAndVerify() {
	token, err := s.auth.Sign(s.claims, time.Hour)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(token, "eyJ"))

	got, err := s.auth.Verify(token)
	s.Require().NoError(err)
	s.Equal("acct-1", got.AccountID())
	s.Equal("Ada", got.Name)
	s.Equal("ada@example.com", got.Email)
	s.Equal("broadcaster", got.Role)
	s.Equal("livecast", got.Issuer)
}

func (s *JWTTestSuite) TestSignRequiresSubjectAndRole() {
	_, err := s.auth.Sign(Claims{Role: "viewer"}, time.Hour)
	s.ErrorIs(err, ErrInvalidClaims)

	_, err = s.auth.Sign(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "a"}}, time.Hour)
	s.ErrorIs(err, ErrInvalidClaims)
}

func (s *JWTTestSuite) TestVerifyEmpty() {
	_, err := s.auth.Verify("")
	s.ErrorIs(err, ErrNoToken)
}

func (s *JWTTestSuite) TestVerifyGarbage() {
	_, err := s.auth.Verify("eyJ.invalid.token")
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *JWTTestSuite) TestVerifyWrongSecret() {
	token, err := s.auth.Sign(s.claims, time.Hour)
	s.Require().NoError(err)

	other := NewAuth("other-secret", WithClock(s.clock), WithIssuer("livecast"))
	_, err = other.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *JWTTestSuite) TestVerifyExpired() {
	token, err := s.auth.Sign(s.claims, time.Minute)
	s.Require().NoError(err)

	s.clock.Advance(2 * time.Minute)
	_, err = s.auth.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *JWTTestSuite) TestVerifyRejectsOtherAlgorithm() {
	hs512 := NewAuth("test-secret", WithClock(s.clock), WithIssuer("livecast"), WithAlgorithm(jwt.SigningMethodHS512))
	token, err := hs512.Sign(s.claims, time.Hour)
	s.Require().NoError(err)

	_, err = s.auth.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}

func (s *JWTTestSuite) TestVerifyRejectsOtherIssuer() {
	foreign := NewAuth("test-secret", WithClock(s.clock), WithIssuer("elsewhere"))
	token, err := foreign.Sign(s.claims, time.Hour)
	s.Require().NoError(err)

	_, err = s.auth.Verify(token)
	s.ErrorIs(err, ErrInvalidToken)
}
