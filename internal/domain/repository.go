package domain

import (
	"context"
	"errors"
	"time"
)

// ErrEmailTaken is returned by IdentityRepository.Create for a duplicate email.
var ErrEmailTaken = errors.New("email already registered")

// WasteLogRepository reads log records ordered by timestamp descending.
type WasteLogRepository interface {
	// FetchPage returns at most limit records strictly after the cursor.
	// A nil cursor starts at the most recent record.
	FetchPage(ctx context.Context, after *Cursor, limit int) ([]LogRecord, error)
}

// ReferenceRepository resolves waste type keys against the reference collection.
type ReferenceRepository interface {
	// GetWasteType returns ErrNotFound when no entry exists for key.
	GetWasteType(ctx context.Context, key string) (*ReferenceTypeEntry, error)
}

// ProfileRepository persists user profiles.
type ProfileRepository interface {
	Create(ctx context.Context, p UserProfile) error
	// Get returns ErrNotFound when no profile exists for uid.
	Get(ctx context.Context, uid string) (*UserProfile, error)
}

// AdminRepository answers the admin allowlist question.
type AdminRepository interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
	Add(ctx context.Context, email string) error
}

// IdentityRepository stores provider identities.
type IdentityRepository interface {
	Create(ctx context.Context, id Identity) error
	// FindByEmail returns ErrNotFound when no identity has that email.
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, uid string) (*Identity, error)
	Delete(ctx context.Context, uid string) error
}

// SessionRepository keeps server-side session state.
type SessionRepository interface {
	Save(ctx context.Context, rec SessionRecord, ttl time.Duration) error
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

// IdentityProvider is the credential authority used by the session gate.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, displayName string) (*Identity, error)
	// SignOut ends the session behind token. Unknown tokens are not an error.
	SignOut(ctx context.Context, token string) error
	// Resolve returns the live session behind token, or nil if there is none.
	Resolve(ctx context.Context, token string) (*Session, error)
	DeleteIdentity(ctx context.Context, uid string) error
}
