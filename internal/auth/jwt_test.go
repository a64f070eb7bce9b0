package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestmap/nestmap/internal/auth"
)

const testKey = "test-secret-key-for-testing-only"

func newService(key, issuer, audience string) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{SigningKey: key, Issuer: issuer, Audience: audience})
}

// fixedClock returns a clock that reads *at.
func fixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := newService(testKey, "nestmap", "")

	token, expiresAt, err := svc.IssueAccessToken("usr_test123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(auth.DefaultTokenTTL), expiresAt, 2*time.Second)

	subject, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_test123", subject)
}

func TestJWTService_Expiry(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	svc := auth.NewJWTService(auth.JWTConfig{
		SigningKey: testKey,
		Issuer:     "nestmap",
		TokenTTL:   15 * time.Minute,
		Leeway:     30 * time.Second,
		Now:        fixedClock(&now),
	})

	token, expiresAt, err := svc.IssueAccessToken("usr_1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), expiresAt)

	now = now.Add(15*time.Minute + 20*time.Second)
	_, err = svc.ValidateAccessToken(token)
	assert.NoError(t, err, "inside leeway")

	now = now.Add(time.Minute)
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newService(testKey, "nestmap", "")

	for _, token := range []string{"", "not.a.valid.jwt", "xxx.yyy.zzz"} {
		_, err := svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidAccessToken, token)
	}
}

func TestJWTService_Mismatch(t *testing.T) {
	token, _, err := newService("key-one", "nestmap", "nestmap-api").IssueAccessToken("usr_test123")
	require.NoError(t, err)

	tests := []struct {
		name string
		svc  *auth.JWTService
	}{
		{"signing key", newService("key-two", "nestmap", "nestmap-api")},
		{"issuer", newService("key-one", "someone-else", "nestmap-api")},
		{"audience", newService("key-one", "nestmap", "other-api")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.ValidateAccessToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "usr_1",
		Issuer:    "nestmap",
		Audience:  jwt.ClaimStrings{auth.DefaultAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testKey))
	require.NoError(t, err)

	_, err = newService(testKey, "nestmap", "").ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_RequiresExpiry(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "usr_1", Issuer: "nestmap", Audience: jwt.ClaimStrings{auth.DefaultAudience}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testKey))
	require.NoError(t, err)

	_, err = newService(testKey, "nestmap", "").ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestJWTService_MissingSubject(t *testing.T) {
	svc := newService(testKey, "nestmap", "")

	token, _, err := svc.IssueAccessToken("")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrMissingSubject)
}
