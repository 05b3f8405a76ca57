package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL applies when Issue is called without a positive ttl.
const DefaultTokenTTL = 30 * time.Minute

// TokenType is the token_type reported alongside issued tokens.
const TokenType = "bearer"

// Token validation failures. All of them collapse to ErrUnauthorized at the
// gate; the distinction is kept for logs.
var (
	ErrMalformed      = errors.New("token malformed")
	ErrExpired        = errors.New("token expired")
	ErrMissingSubject = errors.New("token has no subject")
)

// TokenService issues and validates HS256 session tokens. Tokens are
// stateless bearer capabilities: there is no revocation, exposure is bounded
// by the TTL alone.
type TokenService struct {
	secret     []byte
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenService builds a token service around a process-wide secret.
// A non-positive defaultTTL falls back to DefaultTokenTTL.
func NewTokenService(secret string, defaultTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), defaultTTL: defaultTTL, now: time.Now}, nil
}

// WithClock returns a copy of the service using now as its time source.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue signs a token for subject expiring ttl from now.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject is empty")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// expiryLeeway makes exp inclusive at whole-second precision: a token is
// expired only once the current second is past the embedded expiry.
const expiryLeeway = time.Second

// Validate verifies the signature and expiry and returns the subject.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(tokenStr), &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(expiryLeeway),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", mapJWTError(err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}

// mapJWTError translates jwt library errors into the validation kinds.
// Expiry is only reported once the signature has been verified, so a
// tampered token is never classified as expired.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return ErrExpired
	}
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
