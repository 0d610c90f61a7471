package auth

import (
	"testing"
	"time"
)

func testJWTConfig(ttl time.Duration) *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      ttl,
	}
}

func TestValidateToken_RoundTrip(t *testing.T) {
	cfg := testJWTConfig(time.Minute)

	token, err := GenerateToken(cfg, 42, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateToken(cfg, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	cfg := testJWTConfig(-time.Minute)

	token, err := GenerateToken(cfg, 42, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ValidateToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig(time.Minute)

	token, err := GenerateToken(cfg, 42, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	other := testJWTConfig(time.Minute)
	other.Secret = []byte("different-secret")
	if _, err := ValidateToken(other, token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestValidateToken_RejectsWrongIssuerOrAudience(t *testing.T) {
	cfg := testJWTConfig(time.Minute)

	token, err := GenerateToken(cfg, 42, "alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	badIssuer := testJWTConfig(time.Minute)
	badIssuer.Issuer = "someone-else"
	if _, err := ValidateToken(badIssuer, token); err == nil {
		t.Fatalf("expected issuer mismatch to be rejected")
	}

	badAudience := testJWTConfig(time.Minute)
	badAudience.Audience = "someone-else"
	if _, err := ValidateToken(badAudience, token); err == nil {
		t.Fatalf("expected audience mismatch to be rejected")
	}
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	cfg := testJWTConfig(time.Minute)

	if _, err := ValidateToken(cfg, "not-a-token"); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
}
