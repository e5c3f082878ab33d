package services

import (
	"context"
	"testing"
	"time"

	"sessionauth/internal/models"
	"sessionauth/internal/repository"
	"sessionauth/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// Мок-репозиторий пользователей с той же семантикой, что и SQL в repository.
type mockUserRepo struct {
	users   map[string]*models.User
	failAll error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) copyOf(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *models.User) error {
	if m.failAll != nil {
		return m.failAll
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.users[user.ID] = m.copyOf(user)
	return nil
}

func (m *mockUserRepo) IsEmailTaken(_ context.Context, email string) (bool, error) {
	if m.failAll != nil {
		return false, m.failAll
	}
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, u := range m.users {
		if u.Email == email {
			return m.copyOf(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.copyOf(u), nil
}

func (m *mockUserRepo) SetPasswordResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordResetTokenHash = &tokenHash
	u.PasswordResetExpires = &expiresAt
	return nil
}

func (m *mockUserRepo) ConsumePasswordResetToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	for _, u := range m.users {
		if u.PasswordResetTokenHash != nil && *u.PasswordResetTokenHash == tokenHash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			u.PasswordResetTokenHash = nil
			u.PasswordResetExpires = nil
			return m.copyOf(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string, changedAt time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordChangedAt = &changedAt
	u.PasswordResetTokenHash = nil
	u.PasswordResetExpires = nil
	return nil
}

type mockSessionStore struct {
	sessions   map[string]*models.Session
	failCreate error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*models.Session)}
}

func (m *mockSessionStore) CreateSession(_ context.Context, s *models.Session) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	c := *s
	m.sessions[s.ID] = &c
	return nil
}

func (m *mockSessionStore) GetSession(_ context.Context, id string, f repository.ActiveFilter) (*models.Session, error) {
	if f.At.IsZero() {
		return nil, repository.ErrFilterRequired
	}
	s, ok := m.sessions[id]
	if !ok || !s.Active || !s.ExpiresAt.After(f.At) {
		return nil, repository.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (m *mockSessionStore) DeactivateSession(_ context.Context, id string, at time.Time) error {
	s, ok := m.sessions[id]
	if !ok || !s.Active {
		return repository.ErrNotFound
	}
	s.Active = false
	s.ExpiresAt = at
	return nil
}

func (m *mockSessionStore) DeactivateUserSessions(_ context.Context, userID string, at time.Time) (int64, error) {
	var n int64
	for _, s := range m.sessions {
		if s.UserID == userID && s.Active {
			s.Active = false
			s.ExpiresAt = at
			n++
		}
	}
	return n, nil
}

func (m *mockSessionStore) activeCount(now time.Time) int {
	n := 0
	for _, s := range m.sessions {
		if s.UsableAt(now) {
			n++
		}
	}
	return n
}

// failingCodec подписывает как настоящий codec, но Mint возвращает mintErr.
type failingCodec struct {
	*utils.TokenCodec
	mintErr error
}

func (c *failingCodec) Mint(string, string, time.Time) (string, error) {
	return "", c.mintErr
}

const (
	testSessionTTL = 90 * 24 * time.Hour
	testResetTTL   = 10 * time.Minute
)

type testEnv struct {
	clock     *testClock
	users     *mockUserRepo
	store     *mockSessionStore
	codec     *utils.TokenCodec
	passwords *PasswordService
	sessions  *SessionManager
	auth      *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &testClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	users := newMockUserRepo()
	store := newMockSessionStore()
	codec := utils.NewTokenCodec("test-secret-test-secret-test-secret", clock.now)

	passwords, err := NewPasswordService(users, utils.NewPasswordHasher(bcrypt.MinCost), testResetTTL, clock.now, nil)
	require.NoError(t, err)
	sessions := NewSessionManager(store, testSessionTTL, clock.now, nil)

	return &testEnv{
		clock:     clock,
		users:     users,
		store:     store,
		codec:     codec,
		passwords: passwords,
		sessions:  sessions,
		auth:      NewAuthService(users, passwords, sessions, codec, utils.NewSanitizer(), nil),
	}
}

func (e *testEnv) signup(t *testing.T, email, password string) *AuthResult {
	t.Helper()
	res, err := e.auth.Signup(context.Background(), models.SignupRequest{
		Name:            "Test User",
		Email:           email,
		Password:        password,
		PasswordConfirm: password,
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) signin(t *testing.T, email, password string) *AuthResult {
	t.Helper()
	res, err := e.auth.Signin(context.Background(), models.SigninRequest{Email: email, Password: password})
	require.NoError(t, err)
	return res
}
