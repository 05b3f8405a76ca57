package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"photoShare/internal/testutil"
)

const testSecret = "test-secret"

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTokens(t *testing.T, clock *testutil.Clock) *TokenService {
	t.Helper()
	s, err := NewTokenService(testSecret, 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return s.WithClock(clock.Now)
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	if _, err := NewTokenService("", time.Minute); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestIssueValidate_RoundTrip(t *testing.T) {
	s := newTokens(t, testutil.NewClock(t0))
	tok, err := s.Issue("admin", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	sub, err := s.Validate(tok)
	if err != nil || sub != "admin" {
		t.Fatalf("Validate = %q, %v", sub, err)
	}
}

func TestIssue_DefaultTTLIsThirtyMinutes(t *testing.T) {
	clock := testutil.NewClock(t0)
	s := newTokens(t, clock)
	tok, err := s.Issue("admin", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != DefaultTokenTTL {
		t.Fatalf("ttl = %v, want %v", got, DefaultTokenTTL)
	}

	clock.Advance(29 * time.Minute)
	if _, err := s.Validate(tok); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}
	clock.Advance(time.Minute)
	if _, err := s.Validate(tok); err != nil {
		t.Fatalf("token should be valid at exactly its expiry: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := s.Validate(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("past expiry err = %v, want ErrExpired", err)
	}
}

func TestIssue_CustomTTL(t *testing.T) {
	clock := testutil.NewClock(t0)
	s := newTokens(t, clock)
	tok, err := s.Issue("admin", 5*time.Second)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	clock.Advance(6 * time.Second)
	if _, err := s.Validate(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestIssue_RejectsEmptySubject(t *testing.T) {
	s := newTokens(t, testutil.NewClock(t0))
	if _, err := s.Issue("  ", 0); err == nil {
		t.Fatalf("expected error for empty subject")
	}
}

func TestValidate_PastExpiryIsOnlyExpired(t *testing.T) {
	s := newTokens(t, testutil.NewClock(t0))
	for _, ago := range []time.Duration{time.Second, time.Minute, 24 * time.Hour} {
		tok := testutil.SignHS256(t, testSecret, jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(t0.Add(-ago)),
		})
		_, err := s.Validate(tok)
		if !errors.Is(err, ErrExpired) {
			t.Fatalf("expired %v ago: err = %v, want ErrExpired", ago, err)
		}
		if errors.Is(err, ErrMalformed) || errors.Is(err, ErrMissingSubject) {
			t.Fatalf("expired %v ago: err carries another kind: %v", ago, err)
		}
	}
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	tok := testutil.SignHS256(t, testSecret, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(t0),
	})
	for _, tc := range []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{"before", t0.Add(-time.Second), false},
		{"equal", t0, false},
		{"same second", t0.Add(500 * time.Millisecond), false},
		{"next second", t0.Add(time.Second), true},
	} {
		sub, err := newTokens(t, testutil.NewClock(tc.now)).Validate(tok)
		if tc.expired {
			if !errors.Is(err, ErrExpired) {
				t.Fatalf("%s: err = %v, want ErrExpired", tc.name, err)
			}
			continue
		}
		if err != nil || sub != "admin" {
			t.Fatalf("%s: Validate = %q, %v", tc.name, sub, err)
		}
	}
}

func TestValidate_MissingSubject(t *testing.T) {
	s := newTokens(t, testutil.NewClock(t0))
	tok := testutil.SignHS256(t, testSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(t0.Add(time.Minute)),
	})
	if _, err := s.Validate(tok); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("err = %v, want ErrMissingSubject", err)
	}
}

func TestValidate_Malformed(t *testing.T) {
	s := newTokens(t, testutil.NewClock(t0))
	good, err := s.Issue("admin", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	noExp := testutil.SignHS256(t, testSecret, jwt.RegisteredClaims{Subject: "admin"})
	wrongSecret := testutil.SignHS256(t, "other-secret", jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(t0.Add(time.Minute)),
	})
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(t0.Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"two segments": strings.Join(strings.Split(good, ".")[:2], "."),
		"no exp":       noExp,
		"wrong secret": wrongSecret,
		"alg none":     none,
	}
	for name, tok := range cases {
		if _, err := s.Validate(tok); !errors.Is(err, ErrMalformed) {
			t.Errorf("%s: err = %v, want ErrMalformed", name, err)
		}
	}
}

func TestValidate_SignatureBitFlipIsMalformed(t *testing.T) {
	s := newTokens(t, testutil.NewClock(t0))
	tok, err := s.Issue("admin", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(tok, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	for bit := 0; bit < len(sig)*8; bit++ {
		flipped := append([]byte(nil), sig...)
		flipped[bit/8] ^= 1 << (bit % 8)
		forged := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(flipped)
		sub, err := s.Validate(forged)
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("bit %d: Validate = %q, %v; want ErrMalformed", bit, sub, err)
		}
	}
}

func TestValidate_TamperedPayloadIsMalformed(t *testing.T) {
	s := newTokens(t, testutil.NewClock(t0))
	tok, err := s.Issue("admin", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(tok, ".")
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"root","exp":4102444800}`))
	if _, err := s.Validate(parts[0] + "." + payload + "." + parts[2]); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}
