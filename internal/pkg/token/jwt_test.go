package token

import (
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	now := time.Now()

	t.Run("Round Trip", func(t *testing.T) {
		tok, err := Generate("sid-1", "uid-1", "admin@example.com", "secret", now, now.Add(time.Hour))
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		claims, err := Validate(tok, "secret")
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if claims.SessionID != "sid-1" || claims.UID != "uid-1" || claims.Email != "admin@example.com" {
			t.Errorf("unexpected claims: %+v", claims)
		}
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		tok, _ := Generate("sid-1", "uid-1", "a@b.com", "secret", now, now.Add(time.Hour))
		if _, err := Validate(tok, "other"); err == nil {
			t.Fatal("expected error for wrong secret")
		}
	})

	t.Run("Expired", func(t *testing.T) {
		tok, _ := Generate("sid-1", "uid-1", "a@b.com", "secret", now.Add(-2*time.Hour), now.Add(-time.Hour))
		if _, err := Validate(tok, "secret"); err == nil {
			t.Fatal("expected error for expired token")
		}
		claims, err := ParseIgnoringExpiry(tok, "secret")
		if err != nil {
			t.Fatalf("ParseIgnoringExpiry() error = %v", err)
		}
		if claims.SessionID != "sid-1" {
			t.Errorf("SessionID = %q, want sid-1", claims.SessionID)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := Validate("not-a-token", "secret"); err == nil {
			t.Fatal("expected error for malformed token")
		}
	})
}
