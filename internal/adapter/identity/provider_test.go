package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/V4T54L/waste-watch/internal/domain"
	"github.com/V4T54L/waste-watch/internal/domain/mocks"
)

func newTestProvider() (*Provider, *mocks.MockIdentityRepository, *mocks.MockSessionRepository) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ids := &mocks.MockIdentityRepository{}
	sessions := &mocks.MockSessionRepository{}
	p := NewProvider(ids, sessions, logger, Options{
		Secret:     "test-secret",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	return p, ids, sessions
}

func TestProvider_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates Normalized Identity", func(t *testing.T) {
		p, ids, _ := newTestProvider()
		id, err := p.SignUp(ctx, "  Admin@Example.com ", "secret1", "Ada")
		if err != nil {
			t.Fatalf("SignUp() error = %v", err)
		}
		if id.Email != "admin@example.com" {
			t.Errorf("Email = %q, want admin@example.com", id.Email)
		}
		stored := ids.Identities[id.UID]
		if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
			t.Errorf("password not hashed: %q", stored.PasswordHash)
		}
	})

	t.Run("Rejects Weak Password", func(t *testing.T) {
		p, _, _ := newTestProvider()
		_, err := p.SignUp(ctx, "a@example.com", "12345", "A")
		if !errors.Is(err, domain.ErrAuthentication) {
			t.Fatalf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("Rejects Malformed Email", func(t *testing.T) {
		p, _, _ := newTestProvider()
		_, err := p.SignUp(ctx, "not-an-email", "secret1", "A")
		if !errors.Is(err, domain.ErrAuthentication) {
			t.Fatalf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("Rejects Duplicate Email", func(t *testing.T) {
		p, _, _ := newTestProvider()
		if _, err := p.SignUp(ctx, "a@example.com", "secret1", "A"); err != nil {
			t.Fatalf("first SignUp() error = %v", err)
		}
		_, err := p.SignUp(ctx, "A@example.com", "secret2", "B")
		if !errors.Is(err, domain.ErrAuthentication) {
			t.Fatalf("expected ErrAuthentication, got %v", err)
		}
	})
}

func TestProvider_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	p, _, sessions := newTestProvider()
	if _, err := p.SignUp(ctx, "admin@example.com", "secret1", "Ada"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	t.Run("Wrong Password", func(t *testing.T) {
		_, err := p.SignIn(ctx, "admin@example.com", "wrong-password")
		if !errors.Is(err, domain.ErrAuthentication) {
			t.Fatalf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("Unknown Email", func(t *testing.T) {
		_, err := p.SignIn(ctx, "nobody@example.com", "secret1")
		if !errors.Is(err, domain.ErrAuthentication) {
			t.Fatalf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("Sign In Resolve Sign Out", func(t *testing.T) {
		s, err := p.SignIn(ctx, "ADMIN@example.com", "secret1")
		if err != nil {
			t.Fatalf("SignIn() error = %v", err)
		}
		if len(sessions.Sessions) != 1 {
			t.Fatalf("expected 1 stored session, got %d", len(sessions.Sessions))
		}

		resolved, err := p.Resolve(ctx, s.Token)
		if err != nil || resolved == nil {
			t.Fatalf("Resolve() = %v, %v", resolved, err)
		}
		if resolved.Identity.Email != "admin@example.com" || resolved.ID != s.ID {
			t.Errorf("unexpected resolved session: %+v", resolved)
		}

		if err := p.SignOut(ctx, s.Token); err != nil {
			t.Fatalf("SignOut() error = %v", err)
		}
		if err := p.SignOut(ctx, s.Token); err != nil {
			t.Fatalf("second SignOut() error = %v", err)
		}
		resolved, err = p.Resolve(ctx, s.Token)
		if err != nil || resolved != nil {
			t.Fatalf("expected no session after sign-out, got %v, %v", resolved, err)
		}
	})

	t.Run("Garbage Token", func(t *testing.T) {
		resolved, err := p.Resolve(ctx, "garbage")
		if err != nil || resolved != nil {
			t.Fatalf("Resolve(garbage) = %v, %v", resolved, err)
		}
		if err := p.SignOut(ctx, "garbage"); err != nil {
			t.Fatalf("SignOut(garbage) error = %v", err)
		}
	})

	t.Run("Deleted Identity Ends Session", func(t *testing.T) {
		s, err := p.SignIn(ctx, "admin@example.com", "secret1")
		if err != nil {
			t.Fatalf("SignIn() error = %v", err)
		}
		if err := p.DeleteIdentity(ctx, s.Identity.UID); err != nil {
			t.Fatalf("DeleteIdentity() error = %v", err)
		}
		resolved, err := p.Resolve(ctx, s.Token)
		if err != nil || resolved != nil {
			t.Fatalf("expected nil session, got %v, %v", resolved, err)
		}
		if _, ok := sessions.Sessions[s.ID]; ok {
			t.Error("orphaned session was not dropped")
		}
	})
}

func TestProvider_SessionStoreFailure(t *testing.T) {
	ctx := context.Background()
	p, _, sessions := newTestProvider()
	if _, err := p.SignUp(ctx, "admin@example.com", "secret1", "Ada"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	sessions.SaveErr = errors.New("redis down")

	_, err := p.SignIn(ctx, "admin@example.com", "secret1")
	if err == nil || errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected a store error, got %v", err)
	}
}
