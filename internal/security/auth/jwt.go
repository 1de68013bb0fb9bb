package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yourorg/jobtracker/internal/domain"
)

const signingAlgorithm = "HS256"

// TokenManager issues and verifies signed bearer tokens. Tokens bind a
// subject (the user's email) to an absolute expiry instant.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager with a symmetric secret and the
// default token lifetime.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if secret == "" {
		secret = "CHANGE_ME_IN_PROD"
	}
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue produces a compact signed token for the given subject, expiring at
// now + the configured TTL.
func (tm *TokenManager) Issue(subject string) (string, error) {
	return tm.IssueWithTTL(subject, tm.ttl)
}

// IssueWithTTL produces a token with an explicit lifetime.
func (tm *TokenManager) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Verify decodes a token and returns its subject. Every failure mode —
// malformed encoding, signature mismatch, unexpected algorithm, missing
// subject, expiry — collapses into domain.ErrInvalidToken so callers cannot
// tell them apart.
func (tm *TokenManager) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return tm.secret, nil
	}, jwt.WithValidMethods([]string{signingAlgorithm}))
	if err != nil || !token.Valid {
		return "", domain.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}

// ExtractBearer strips the Bearer scheme from an Authorization header value.
func ExtractBearer(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", domain.ErrInvalidToken
	}
	return parts[1], nil
}
