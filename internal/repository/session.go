package repository

import (
	"context"
	"time"

	"sessionauth/internal/logger"
	"sessionauth/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActiveFilter: обязательный параметр любого чтения сессий:
// вернутся только активные сессии с expires_at > At.
type ActiveFilter struct {
	At time.Time
}

func ActiveAt(t time.Time) ActiveFilter {
	return ActiveFilter{At: t}
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, s *models.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.UserID, s.CreatedAt, s.ExpiresAt, s.Active,
	)
	if err != nil {
		logger.Log.Error("Ошибка создания сессии (repo)", zap.String("user_id", s.UserID), zap.Error(err))
		return storeErr(err)
	}
	return nil
}

func (r *SessionRepository) GetSession(ctx context.Context, id string, f ActiveFilter) (*models.Session, error) {
	if f.At.IsZero() {
		return nil, ErrFilterRequired
	}
	var s models.Session
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, created_at, expires_at, active
		FROM sessions
		WHERE id = $1 AND active AND expires_at > $2`,
		id, f.At,
	).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &s.Active)
	if err != nil {
		return nil, storeErr(err)
	}
	return &s, nil
}

// DeactivateSession гасит активную сессию. Уже погашенная или несуществующая: ErrNotFound.
func (r *SessionRepository) DeactivateSession(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions SET active = false, expires_at = $2
		WHERE id = $1 AND active`,
		id, at,
	)
	if err != nil {
		logger.Log.Error("Ошибка деактивации сессии (repo)", zap.String("session_id", id), zap.Error(err))
		return storeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SessionRepository) DeactivateUserSessions(ctx context.Context, userID string, at time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions SET active = false, expires_at = $2
		WHERE user_id = $1 AND active`,
		userID, at,
	)
	if err != nil {
		logger.Log.Error("Ошибка деактивации сессий пользователя (repo)", zap.String("user_id", userID), zap.Error(err))
		return 0, storeErr(err)
	}
	return tag.RowsAffected(), nil
}

// ExpireSessions снимает флаг active с сессий, чей срок уже вышел. Чтение их и так не видит,
// а так таблица не врёт про число активных сессий.
func (r *SessionRepository) ExpireSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE sessions SET active = false
		WHERE active AND expires_at <= $1`,
		now,
	)
	if err != nil {
		logger.Log.Error("Ошибка закрытия просроченных сессий (repo)", zap.Error(err))
		return 0, storeErr(err)
	}
	return tag.RowsAffected(), nil
}
