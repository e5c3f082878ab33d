package services

import (
	"context"
	"errors"
	"time"

	"sessionauth/internal/logger"
	"sessionauth/internal/metrics"
	"sessionauth/internal/models"
	"sessionauth/internal/repository"

	"go.uber.org/zap"
)

type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string, f repository.ActiveFilter) (*models.Session, error)
	DeactivateSession(ctx context.Context, id string, at time.Time) error
	DeactivateUserSessions(ctx context.Context, userID string, at time.Time) (int64, error)
}

type SessionManager struct {
	store   SessionStore
	ttl     time.Duration
	now     func() time.Time
	metrics metrics.Recorder
}

func NewSessionManager(store SessionStore, ttl time.Duration, now func() time.Time, rec metrics.Recorder) *SessionManager {
	if now == nil {
		now = time.Now
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &SessionManager{store: store, ttl: ttl, now: now, metrics: rec}
}

// CreateSession заводит активную сессию на ttl. Ошибку хранилища отдаёт как есть:
// без сохранённой сессии токен выпускать нельзя.
func (m *SessionManager) CreateSession(ctx context.Context, userID string) (*models.Session, error) {
	now := m.now().UTC()
	s := &models.Session{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		Active:    true,
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Debug("Сессия создана", zap.String("session_id", s.ID), zap.String("user_id", userID))
	return s, nil
}

// RevokeSession гасит сессию (active=false, expires_at=now). Повторный вызов отдаёт ErrSessionNotFound.
func (m *SessionManager) RevokeSession(ctx context.Context, sessionID string) error {
	err := m.store.DeactivateSession(ctx, sessionID, m.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	m.metrics.SessionsRevoked(1)
	logger.WithCtx(ctx).Info("Сессия деактивирована", zap.String("session_id", sessionID))
	return nil
}

// RevokeUserSessions гасит все активные сессии пользователя.
func (m *SessionManager) RevokeUserSessions(ctx context.Context, userID string) (int64, error) {
	n, err := m.store.DeactivateUserSessions(ctx, userID, m.now().UTC())
	if err != nil {
		return 0, err
	}
	m.metrics.SessionsRevoked(int(n))
	if n > 0 {
		logger.WithCtx(ctx).Info("Сессии пользователя деактивированы", zap.String("user_id", userID), zap.Int64("count", n))
	}
	return n, nil
}

// ResolveActiveSession возвращает сессию, только если она активна и не истекла.
func (m *SessionManager) ResolveActiveSession(ctx context.Context, sessionID string) (*models.Session, error) {
	now := m.now().UTC()
	s, err := m.store.GetSession(ctx, sessionID, repository.ActiveAt(now))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	// хранилище уже отфильтровало, но контракт проверяем и здесь
	if !s.UsableAt(now) {
		return nil, ErrSessionInvalid
	}
	return s, nil
}
