package services

import (
	"context"
	"errors"
	"time"

	"sessionauth/internal/logger"
	"sessionauth/internal/metrics"
	"sessionauth/internal/models"
	"sessionauth/internal/repository"
	"sessionauth/internal/utils"

	"go.uber.org/zap"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ConsumePasswordResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string, changedAt time.Time) error
}

// PasswordService отвечает за пароль (проверка, смена, одноразовые токены сброса).
type PasswordService struct {
	repo     UserRepo
	hasher   *utils.PasswordHasher
	tokenTTL time.Duration
	now      func() time.Time
	metrics  metrics.Recorder

	// хеш-пустышка: сравниваем с ним, когда пользователя нет, чтобы время ответа не выдавало email
	dummyHash string
}

func NewPasswordService(repo UserRepo, hasher *utils.PasswordHasher, tokenTTL time.Duration, now func() time.Time, rec metrics.Recorder) (*PasswordService, error) {
	if now == nil {
		now = time.Now
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &PasswordService{
		repo:      repo,
		hasher:    hasher,
		tokenTTL:  tokenTTL,
		now:       now,
		metrics:   rec,
		dummyHash: dummy,
	}, nil
}

func (s *PasswordService) HashPassword(plain string) (string, error) {
	return s.hasher.Hash(plain)
}

func (s *PasswordService) VerifyPassword(plain, hash string) bool {
	return s.hasher.Verify(plain, hash)
}

// VerifyAgainstNothing тратит столько же времени, сколько настоящая проверка, и всегда false.
func (s *PasswordService) VerifyAgainstNothing(plain string) bool {
	_ = s.hasher.Verify(plain, s.dummyHash)
	return false
}

// ChangedPasswordAfter: менялся ли пароль после выпуска токена.
func (s *PasswordService) ChangedPasswordAfter(user *models.User, tokenIssuedAt time.Time) bool {
	return user.ChangedPasswordAfter(tokenIssuedAt)
}

// CreatePasswordResetToken генерирует одноразовый токен. В базе: только sha256-хеш и срок.
// Открытый токен возвращается один раз и не логируется.
func (s *PasswordService) CreatePasswordResetToken(ctx context.Context, user *models.User) (string, error) {
	plain, digest, err := utils.GenerateResetToken()
	if err != nil {
		logger.WithCtx(ctx).Error("Ошибка генерации токена для сброса", zap.Error(err), zap.String("user_id", user.ID))
		return "", err
	}

	expires := s.now().UTC().Add(s.tokenTTL)
	if err := s.repo.SetPasswordResetToken(ctx, user.ID, digest, expires); err != nil {
		logger.WithCtx(ctx).Error("Ошибка сохранения токена сброса пароля", zap.String("user_id", user.ID), zap.Error(err))
		return "", err
	}

	s.metrics.PasswordReset("requested")
	logger.WithCtx(ctx).Info("Выдан токен сброса пароля",
		zap.String("user_id", user.ID),
		zap.Time("expires_at", expires),
	)
	return plain, nil
}

// ConsumeResetToken находит пользователя по хешу токена и сразу гасит токен,
// чем бы ни закончилась дальнейшая смена пароля.
func (s *PasswordService) ConsumeResetToken(ctx context.Context, plainToken string) (*models.User, error) {
	if plainToken == "" {
		return nil, ErrTokenInvalidOrExpired
	}
	user, err := s.repo.ConsumePasswordResetToken(ctx, utils.HashResetToken(plainToken), s.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		logger.WithCtx(ctx).Warn("Неверный или просроченный токен при сбросе пароля")
		return nil, ErrTokenInvalidOrExpired
	}
	if err != nil {
		return nil, err
	}
	s.metrics.PasswordReset("consumed")
	return user, nil
}

// SetPassword сохраняет новый хеш и время смены пароля; возвращает это время.
func (s *PasswordService) SetPassword(ctx context.Context, userID, newPassword string) (time.Time, error) {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		logger.WithCtx(ctx).Error("Ошибка генерации хеша пароля", zap.Error(err), zap.String("user_id", userID))
		return time.Time{}, err
	}

	changedAt := s.now().UTC()
	if err := s.repo.UpdatePassword(ctx, userID, hash, changedAt); err != nil {
		logger.WithCtx(ctx).Error("Ошибка обновления пароля пользователя", zap.String("user_id", userID), zap.Error(err))
		return time.Time{}, err
	}

	logger.WithCtx(ctx).Info("Пароль изменён", zap.String("user_id", userID))
	return changedAt, nil
}
