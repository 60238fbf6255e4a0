package domain

import "time"

// Identity is an account known to the identity provider.
type Identity struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is an authenticated session issued by the identity provider.
type Session struct {
	ID        string    `json:"-"`
	Token     string    `json:"token"`
	Identity  Identity  `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionRecord is the server-side state kept for a live session.
type SessionRecord struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserProfile is the application profile provisioned at sign-up.
type UserProfile struct {
	UID          string    `json:"uid"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	UserPoint    int       `json:"user_point"`
	DepartmentID string    `json:"department_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
