// Package identity is the credential authority behind the session gate:
// identities with bcrypt password hashes, server-side sessions, and signed
// bearer tokens naming those sessions.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/V4T54L/waste-watch/internal/domain"
	"github.com/V4T54L/waste-watch/internal/pkg/token"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// Options configures a Provider.
type Options struct {
	Secret     string
	SessionTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Provider implements domain.IdentityProvider.
type Provider struct {
	identities domain.IdentityRepository
	sessions   domain.SessionRepository
	logger     *slog.Logger
	secret     string
	ttl        time.Duration
	cost       int
	now        func() time.Time
}

// NewProvider creates a Provider over the given stores.
func NewProvider(identities domain.IdentityRepository, sessions domain.SessionRepository, logger *slog.Logger, opts Options) *Provider {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Provider{
		identities: identities,
		sessions:   sessions,
		logger:     logger.With("component", "identity_provider"),
		secret:     opts.Secret,
		ttl:        ttl,
		cost:       cost,
		now:        time.Now,
	}
}

// SignIn checks the password and opens a new session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = normalize(email)
	identity, err := p.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", domain.ErrAuthentication)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrAuthentication)
	}

	issued := p.now()
	rec := domain.SessionRecord{
		ID:        uuid.NewString(),
		UID:       identity.UID,
		Email:     identity.Email,
		ExpiresAt: issued.Add(p.ttl),
	}
	if err := p.sessions.Save(ctx, rec, p.ttl); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	signed, err := token.Generate(rec.ID, rec.UID, rec.Email, p.secret, issued, rec.ExpiresAt)
	if err != nil {
		if delErr := p.sessions.Delete(ctx, rec.ID); delErr != nil {
			p.logger.Error("failed to drop unsigned session", "error", delErr, "session_id", rec.ID)
		}
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	return &domain.Session{
		ID:        rec.ID,
		Token:     signed,
		Identity:  *identity,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// SignUp validates and stores a new identity.
func (p *Provider) SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	email = normalize(email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email", domain.ErrAuthentication)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrAuthentication, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity := domain.Identity{
		UID:          uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	}
	if err := p.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return &identity, nil
}

// SignOut deletes the session named by token. Tokens that cannot be parsed
// name no session and are ignored; expired tokens still end their session.
func (p *Provider) SignOut(ctx context.Context, tokenString string) error {
	claims, err := token.ParseIgnoringExpiry(tokenString, p.secret)
	if err != nil {
		p.logger.Debug("sign-out with unusable token", "error", err)
		return nil
	}
	return p.sessions.Delete(ctx, claims.SessionID)
}

// Resolve returns the live session behind token, or nil when the token is
// invalid, expired or its session has ended.
func (p *Provider) Resolve(ctx context.Context, tokenString string) (*domain.Session, error) {
	claims, err := token.Validate(tokenString, p.secret)
	if err != nil {
		return nil, nil
	}

	rec, err := p.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if rec.UID != claims.UID {
		return nil, nil
	}

	identity, err := p.identities.FindByID(ctx, rec.UID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Identity is gone; the session cannot outlive it.
			if delErr := p.sessions.Delete(ctx, rec.ID); delErr != nil {
				p.logger.Warn("failed to drop orphaned session", "error", delErr, "session_id", rec.ID)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}

	return &domain.Session{
		ID:        rec.ID,
		Token:     tokenString,
		Identity:  *identity,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// DeleteIdentity removes the identity with uid.
func (p *Provider) DeleteIdentity(ctx context.Context, uid string) error {
	return p.identities.Delete(ctx, uid)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
