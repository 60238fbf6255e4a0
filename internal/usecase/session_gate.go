package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/V4T54L/waste-watch/internal/adapter/metrics"
	"github.com/V4T54L/waste-watch/internal/domain"
)

// SessionGate turns credential operations into an admin session.
// A sign-in either ends Authorized or leaves no session behind.
type SessionGate struct {
	provider domain.IdentityProvider
	admins   domain.AdminRepository
	profiles domain.ProfileRepository
	logger   *slog.Logger
	metrics  *metrics.DashboardMetrics
	now      func() time.Time
}

// NewSessionGate creates a new SessionGate. m may be nil.
func NewSessionGate(provider domain.IdentityProvider, admins domain.AdminRepository, profiles domain.ProfileRepository, logger *slog.Logger, m *metrics.DashboardMetrics) *SessionGate {
	return &SessionGate{
		provider: provider,
		admins:   admins,
		profiles: profiles,
		logger:   logger.With("component", "session_gate"),
		metrics:  m,
		now:      time.Now,
	}
}

// SignIn authenticates the credentials and admits the session only if the
// email is on the admin allowlist. Any other outcome signs the new session
// out again before returning.
func (g *SessionGate) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, span := otel.Tracer("session-gate").Start(ctx, "SignIn")
	defer span.End()

	session, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		g.observe("bad_credentials")
		if errors.Is(err, domain.ErrAuthentication) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}

	isAdmin, err := g.IsAdmin(ctx, session.Identity.Email)
	if err != nil {
		g.observe("error")
		g.logger.Error("admin check failed during sign-in", "error", err, "email", email)
		g.teardown(ctx, session)
		return nil, fmt.Errorf("%w: admin check: %v", domain.ErrAuthentication, err)
	}
	if !isAdmin {
		g.observe("not_admin")
		g.logger.Warn("rejected sign-in for non-admin", "email", email)
		g.teardown(ctx, session)
		return nil, domain.ErrAuthorization
	}

	g.observe("admin")
	g.logger.Info("admin signed in", "email", email, "uid", session.Identity.UID)
	return session, nil
}

// SignUp creates an identity and provisions its profile. If the profile
// cannot be written the identity is deleted again, so an account exists only
// when fully provisioned.
func (g *SessionGate) SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	identity, err := g.provider.SignUp(ctx, email, password, displayName)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthentication, err)
	}

	now := g.now().UTC()
	profile := domain.UserProfile{
		UID:          identity.UID,
		Name:         displayName,
		Email:        identity.Email,
		UserPoint:    0,
		DepartmentID: "",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := g.profiles.Create(ctx, profile); err != nil {
		g.logger.Error("failed to provision profile, rolling back identity", "error", err, "uid", identity.UID)
		if delErr := g.provider.DeleteIdentity(ctx, identity.UID); delErr != nil {
			g.logger.Error("failed to roll back identity after profile failure", "error", delErr, "uid", identity.UID)
			return nil, errors.Join(fmt.Errorf("provision profile: %w", err), fmt.Errorf("roll back identity: %w", delErr))
		}
		return nil, fmt.Errorf("provision profile: %w", err)
	}

	g.logger.Info("account created", "uid", identity.UID, "email", identity.Email)
	return identity, nil
}

// SignOut ends the session behind token. It is idempotent; a failure is
// logged and returned for the caller to report.
func (g *SessionGate) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := g.provider.SignOut(ctx, token); err != nil {
		g.logger.Warn("sign-out failed", "error", err)
		return err
	}
	return nil
}

// CurrentSession returns the identity signed in with token, or nil.
func (g *SessionGate) CurrentSession(ctx context.Context, token string) (*domain.Identity, error) {
	session, err := g.ResolveSession(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}
	identity := session.Identity
	return &identity, nil
}

// ResolveSession returns the full live session behind token, or nil.
func (g *SessionGate) ResolveSession(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, nil
	}
	return g.provider.Resolve(ctx, token)
}

// UserProfile returns the profile of uid or domain.ErrNotFound.
func (g *SessionGate) UserProfile(ctx context.Context, uid string) (*domain.UserProfile, error) {
	return g.profiles.Get(ctx, uid)
}

// IsAdmin is the single allowlist policy: an email is an admin iff an
// allowlist entry with an equal email exists. Comparison ignores case and
// surrounding space.
func (g *SessionGate) IsAdmin(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return false, nil
	}
	return g.admins.IsAdmin(ctx, email)
}

func (g *SessionGate) teardown(ctx context.Context, session *domain.Session) {
	if err := g.provider.SignOut(ctx, session.Token); err != nil {
		g.logger.Error("failed to sign out rejected session", "error", err, "uid", session.Identity.UID)
	}
}

func (g *SessionGate) observe(outcome string) {
	if g.metrics != nil {
		g.metrics.SignIns.WithLabelValues(outcome).Inc()
	}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
