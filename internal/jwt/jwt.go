package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/imtaco/livecast/internal/errors"
)

type Option func(*jwtAuthImpl)

// WithIssuer stamps and requires the iss claim.
func WithIssuer(issuer string) Option {
	return func(j *jwtAuthImpl) { j.issuer = issuer }
}

// WithClock replaces the clock used for iat/exp.
func WithClock(clock clockwork.Clock) Option {
	return func(j *jwtAuthImpl) { j.clock = clock }
}

// WithAlgorithm selects one of HS256, HS384 or HS512. HS256 is the default.
func WithAlgorithm(method jwt.SigningMethod) Option {
	return func(j *jwtAuthImpl) { j.signingMethod = method }
}

func NewAuth(secret string, opts ...Option) Auth {
	j := &jwtAuthImpl{
		secret:        []byte(secret),
		signingMethod: jwt.SigningMethodHS256,
		clock:         clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

type jwtAuthImpl struct {
	secret        []byte
	signingMethod jwt.SigningMethod
	issuer        string
	clock         clockwork.Clock
}

func (j *jwtAuthImpl) Sign(claims Claims, ttl time.Duration) (string, error) {
	if claims.Subject == "" || claims.Role == "" {
		return "", errors.New(ErrInvalidClaims, "subject and role are required")
	}

	now := j.clock.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	if j.issuer != "" {
		claims.Issuer = j.issuer
	}

	token := jwt.NewWithClaims(j.signingMethod, &claims)
	return token.SignedString(j.secret)
}

func (j *jwtAuthImpl) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.signingMethod.Alg()}),
		jwt.WithTimeFunc(j.clock.Now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err, "failed to parse token")
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, errors.New(ErrInvalidToken, "missing required fields in token")
	}
	return claims, nil
}
