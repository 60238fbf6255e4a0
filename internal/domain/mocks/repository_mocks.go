package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/V4T54L/waste-watch/internal/domain"
)

// MockWasteLogRepository serves pages out of an in-memory record set.
type MockWasteLogRepository struct {
	mu       sync.Mutex
	Records  []domain.LogRecord
	FetchErr error
	// FailTimes makes the first FailTimes calls return FetchErr.
	FailTimes int
	Calls     int
	Cursors   []*domain.Cursor
	// Block, when set, is waited on before a page is returned.
	Block chan struct{}
}

func (m *MockWasteLogRepository) FetchPage(ctx context.Context, after *domain.Cursor, limit int) ([]domain.LogRecord, error) {
	m.mu.Lock()
	m.Calls++
	m.Cursors = append(m.Cursors, after)
	call := m.Calls
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil && (m.FailTimes == 0 || call <= m.FailTimes) {
		return nil, m.FetchErr
	}

	sorted := make([]domain.LogRecord, len(m.Records))
	copy(sorted, m.Records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	start := 0
	if after != nil {
		start = len(sorted)
		for i, r := range sorted {
			if r.ID == after.ID {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[start:end], nil
}

// MockReferenceRepository resolves keys from a map.
type MockReferenceRepository struct {
	mu      sync.Mutex
	Entries map[string]domain.ReferenceTypeEntry
	Errs    map[string]error
	Lookups []string
}

func (m *MockReferenceRepository) GetWasteType(ctx context.Context, key string) (*domain.ReferenceTypeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups = append(m.Lookups, key)
	if err, ok := m.Errs[key]; ok {
		return nil, err
	}
	e, ok := m.Entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

// MockProfileRepository stores profiles in memory.
type MockProfileRepository struct {
	mu        sync.Mutex
	Profiles  map[string]domain.UserProfile
	CreateErr error
	GetErr    error
}

func (m *MockProfileRepository) Create(ctx context.Context, p domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if m.Profiles == nil {
		m.Profiles = make(map[string]domain.UserProfile)
	}
	m.Profiles[p.UID] = p
	return nil
}

func (m *MockProfileRepository) Get(ctx context.Context, uid string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.Profiles[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// MockAdminRepository is an allowlist backed by a set of emails.
type MockAdminRepository struct {
	mu       sync.Mutex
	Emails   map[string]bool
	CheckErr error
	Checks   []string
}

func (m *MockAdminRepository) IsAdmin(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Checks = append(m.Checks, email)
	if m.CheckErr != nil {
		return false, m.CheckErr
	}
	return m.Emails[email], nil
}

func (m *MockAdminRepository) Add(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Emails == nil {
		m.Emails = make(map[string]bool)
	}
	m.Emails[email] = true
	return nil
}

// MockIdentityRepository stores identities in memory.
type MockIdentityRepository struct {
	mu         sync.Mutex
	Identities map[string]domain.Identity
	CreateErr  error
	FindErr    error
	DeleteErr  error
	Deleted    []string
}

func (m *MockIdentityRepository) Create(ctx context.Context, id domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if m.Identities == nil {
		m.Identities = make(map[string]domain.Identity)
	}
	for _, existing := range m.Identities {
		if strings.EqualFold(existing.Email, id.Email) {
			return domain.ErrEmailTaken
		}
	}
	m.Identities[id.UID] = id
	return nil
}

func (m *MockIdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for _, id := range m.Identities {
		if strings.EqualFold(id.Email, email) {
			found := id
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockIdentityRepository) FindByID(ctx context.Context, uid string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	id, ok := m.Identities[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &id, nil
}

func (m *MockIdentityRepository) Delete(ctx context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Identities, uid)
	m.Deleted = append(m.Deleted, uid)
	return nil
}

// MockSessionRepository keeps sessions in a map and honours expiry.
type MockSessionRepository struct {
	mu        sync.Mutex
	Sessions  map[string]domain.SessionRecord
	SaveErr   error
	DeleteErr error
}

func (m *MockSessionRepository) Save(ctx context.Context, rec domain.SessionRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.Sessions == nil {
		m.Sessions = make(map[string]domain.SessionRecord)
	}
	m.Sessions[rec.ID] = rec
	return nil
}

func (m *MockSessionRepository) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Sessions[id]
	if !ok || time.Now().After(rec.ExpiresAt) {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Sessions, id)
	return nil
}

// MockIdentityProvider is a scripted identity provider for gate tests.
type MockIdentityProvider struct {
	mu sync.Mutex
	// Passwords maps email to the accepted password.
	Passwords  map[string]string
	Identities map[string]domain.Identity
	Live       map[string]*domain.Session
	SignUpErr  error
	SignOutErr error
	ResolveErr error
	DeleteErr  error
	SignOuts   []string
	Deleted    []string
}

func (m *MockIdentityProvider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pw, ok := m.Passwords[email]; !ok || pw != password {
		return nil, domain.ErrAuthentication
	}
	id := m.Identities[email]
	if id.Email == "" {
		id = domain.Identity{UID: "uid-" + email, Email: email}
	}
	s := &domain.Session{
		ID:        "sid-" + email,
		Token:     "token-" + email,
		Identity:  id,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if m.Live == nil {
		m.Live = make(map[string]*domain.Session)
	}
	m.Live[s.Token] = s
	return s, nil
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SignUpErr != nil {
		return nil, m.SignUpErr
	}
	id := domain.Identity{UID: "uid-" + email, Email: email, DisplayName: displayName, CreatedAt: time.Now()}
	if m.Identities == nil {
		m.Identities = make(map[string]domain.Identity)
	}
	if m.Passwords == nil {
		m.Passwords = make(map[string]string)
	}
	m.Identities[email] = id
	m.Passwords[email] = password
	return &id, nil
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SignOuts = append(m.SignOuts, token)
	if m.SignOutErr != nil {
		return m.SignOutErr
	}
	delete(m.Live, token)
	return nil
}

func (m *MockIdentityProvider) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ResolveErr != nil {
		return nil, m.ResolveErr
	}
	return m.Live[token], nil
}

func (m *MockIdentityProvider) DeleteIdentity(ctx context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, uid)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for email, id := range m.Identities {
		if id.UID == uid {
			delete(m.Identities, email)
			delete(m.Passwords, email)
		}
	}
	return nil
}
