package repository

import (
	"context"
	"time"

	"sessionauth/internal/logger"
	"sessionauth/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userColumns = `id, name, email, password_hash, password_changed_at,
	password_reset_token_hash, password_reset_expires, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.PasswordChangedAt,
		&u.PasswordResetTokenHash,
		&u.PasswordResetExpires,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	logger.Log.Info("Создание пользователя (repo)", zap.String("email", user.Email))
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `
	INSERT INTO users (id, name, email, password_hash)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		logger.Log.Error("Ошибка создания пользователя (repo)", zap.Error(err))
		return storeErr(err)
	}
	return nil
}

func (r *UserRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	logger.Log.Debug("Проверка email на уникальность (repo)")
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		logger.Log.Error("Ошибка проверки email (repo)", zap.Error(err))
		return false, storeErr(err)
	}
	return exists, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	logger.Log.Debug("Получение пользователя по ID (repo)", zap.String("user_id", id))
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

// SetPasswordResetToken выставляет хеш и срок действия одним UPDATE.
func (r *UserRepository) SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_reset_token_hash = $2, password_reset_expires = $3, updated_at = now()
		WHERE id = $1`,
		userID, tokenHash, expiresAt,
	)
	if err != nil {
		logger.Log.Error("Ошибка сохранения токена сброса (repo)", zap.String("user_id", userID), zap.Error(err))
		return storeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumePasswordResetToken находит пользователя по хешу непросроченного токена
// и в том же запросе очищает поля сброса, так что токен срабатывает ровно один раз.
func (r *UserRepository) ConsumePasswordResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	query := `
	UPDATE users
	SET password_reset_token_hash = NULL, password_reset_expires = NULL, updated_at = now()
	WHERE password_reset_token_hash = $1 AND password_reset_expires > $2
	RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRow(ctx, query, tokenHash, now))
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

// UpdatePassword меняет хеш, фиксирует время смены и сбрасывает незавершённый сброс пароля.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string, changedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $2,
		    password_changed_at = $3,
		    password_reset_token_hash = NULL,
		    password_reset_expires = NULL,
		    updated_at = now()
		WHERE id = $1`,
		userID, passwordHash, changedAt,
	)
	if err != nil {
		logger.Log.Error("Ошибка обновления пароля (repo)", zap.String("user_id", userID), zap.Error(err))
		return storeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
