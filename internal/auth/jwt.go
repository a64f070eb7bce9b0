// Package auth verifies the HS256 bearer tokens that identify trip owners.
// Tokens come from the identity provider in front of NestMap; the token
// subject is the owner id of every trip the caller touches.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAudience = "nestmap-api"
	DefaultTokenTTL = time.Hour
)

var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrMissingSubject     = errors.New("access token has no subject")
)

// JWTConfig configures token verification. Zero Audience and TokenTTL take
// the package defaults.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	// TokenTTL is the lifetime of tokens minted by IssueAccessToken.
	TokenTTL time.Duration
	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration
	// Now overrides the clock.
	Now func() time.Time
}

// JWTService verifies access tokens and, for tooling and tests, mints them.
type JWTService struct {
	key    []byte
	issuer string
	aud    string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewJWTService(cfg JWTConfig) *JWTService {
	s := &JWTService{
		key:    []byte(cfg.SigningKey),
		issuer: cfg.Issuer,
		aud:    cfg.Audience,
		ttl:    cfg.TokenTTL,
		now:    cfg.Now,
	}
	if s.aud == "" {
		s.aud = DefaultAudience
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTokenTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.aud),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(s.now),
	)
	return s
}

// IssueAccessToken signs a token for userID and returns it with its expiry.
func (s *JWTService) IssueAccessToken(userID string) (string, time.Time, error) {
	now := s.now().Truncate(time.Second)
	exp := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        newTokenID(),
		Issuer:    s.issuer,
		Subject:   userID,
		Audience:  jwt.ClaimStrings{s.aud},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// ValidateAccessToken checks signature, issuer, audience and lifetime and
// returns the token subject.
func (s *JWTService) ValidateAccessToken(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := s.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrAccessTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	case claims.Subject == "":
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

func newTokenID() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
