package domain

import "errors"

var (
	// ErrAuthentication covers bad credentials and identity provider rejections.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization is returned when valid credentials do not belong to an admin.
	ErrAuthorization = errors.New("not an admin")
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransientFetch wraps network or store failures while reading pages.
	ErrTransientFetch = errors.New("transient fetch failure")
	// ErrFetchInProgress is returned when a viewer is asked to load while a load is outstanding.
	ErrFetchInProgress = errors.New("fetch already in progress")
	// ErrInvalidCursor is returned for cursors that cannot be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")
)
