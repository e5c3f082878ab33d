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

type tokenCodec interface {
	Mint(userID, sessionID string, expiresAt time.Time) (string, error)
	Verify(tokenString string) (*utils.TokenClaims, error)
}

type AuthService struct {
	repo      UserRepo
	passwords *PasswordService
	sessions  *SessionManager
	codec     tokenCodec
	sanitizer *utils.Sanitizer
	metrics   metrics.Recorder
}

func NewAuthService(
	repo UserRepo,
	passwords *PasswordService,
	sessions *SessionManager,
	codec tokenCodec,
	sanitizer *utils.Sanitizer,
	rec metrics.Recorder,
) *AuthService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AuthService{
		repo:      repo,
		passwords: passwords,
		sessions:  sessions,
		codec:     codec,
		sanitizer: sanitizer,
		metrics:   rec,
	}
}

// AuthResult: выданный bearer-токен и публичный профиль.
type AuthResult struct {
	Token string               `json:"token"`
	User  models.PublicProfile `json:"user"`
}

// issueToken создаёт сессию и подписывает на неё токен. Если подпись не удалась,
// только что созданная сессия гасится, чтобы не оставлять висящих активных сессий.
func (s *AuthService) issueToken(ctx context.Context, user *models.User) (*AuthResult, error) {
	sess, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		logger.WithCtx(ctx).Error("Ошибка создания сессии", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	token, err := s.codec.Mint(user.ID, sess.ID, sess.ExpiresAt)
	if err != nil {
		logger.WithCtx(ctx).Error("Ошибка подписи токена", zap.String("user_id", user.ID), zap.Error(err))
		if rerr := s.sessions.RevokeSession(context.WithoutCancel(ctx), sess.ID); rerr != nil {
			logger.WithCtx(ctx).Error("Не удалось погасить осиротевшую сессию",
				zap.String("session_id", sess.ID), zap.Error(rerr))
		}
		return nil, err
	}

	return &AuthResult{Token: token, User: user.Public()}, nil
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*AuthResult, error) {
	req.Email = models.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}

	email := req.Email
	name := s.sanitizer.Text(req.Name)
	if name == "" {
		return nil, &Error{Kind: ErrValidation, Msg: "name: cannot be blank."}
	}
	logger.WithCtx(ctx).Info("Регистрация пользователя (service)", zap.String("email", email))

	taken, err := s.repo.IsEmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hashed, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		logger.WithCtx(ctx).Error("Ошибка хеширования пароля", zap.Error(err))
		return nil, err
	}

	user := &models.User{Name: name, Email: email, PasswordHash: hashed}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		// гонка двух регистраций на один email ловится уникальным индексом
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.metrics.Signup()
	logger.WithCtx(ctx).Info("Пользователь зарегистрирован (service)", zap.String("user_id", user.ID))

	return s.issueToken(ctx, user)
}

// Signin не сообщает, что именно не так: нет такого email или неверный пароль.
func (s *AuthService) Signin(ctx context.Context, req models.SigninRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	email := models.NormalizeEmail(req.Email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.passwords.VerifyAgainstNothing(req.Password)
		s.metrics.Signin(false)
		logger.WithCtx(ctx).Warn("Вход: пользователь не найден (service)")
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, err
	}

	if !s.passwords.VerifyPassword(req.Password, user.PasswordHash) {
		s.metrics.Signin(false)
		logger.WithCtx(ctx).Warn("Вход: неверный пароль (service)", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	res, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	s.metrics.Signin(true)
	logger.WithCtx(ctx).Info("Вход выполнен (service)", zap.String("user_id", user.ID))
	return res, nil
}

// Signout идемпотентен: уже погашенная сессия не считается ошибкой.
func (s *AuthService) Signout(ctx context.Context, sessionID string) error {
	err := s.sessions.RevokeSession(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		logger.WithCtx(ctx).Info("Выход: сессия уже неактивна", zap.String("session_id", sessionID))
		return nil
	}
	return err
}

// ForgotPassword возвращает открытый токен сброса. Доставка письмом: не здесь.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) (string, error) {
	req.Email = models.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return "", validationErr(err)
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		logger.WithCtx(ctx).Warn("Сброс пароля: email не найден")
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	return s.passwords.CreatePasswordResetToken(ctx, user)
}

// ResetPassword гасит токен сброса, ставит новый пароль, закрывает все старые сессии
// и выдаёт новый токен.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken string, req models.ResetPasswordRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}

	user, err := s.passwords.ConsumeResetToken(ctx, resetToken)
	if err != nil {
		return nil, err
	}

	if _, err := s.passwords.SetPassword(ctx, user.ID, req.Password); err != nil {
		return nil, err
	}
	if _, err := s.sessions.RevokeUserSessions(ctx, user.ID); err != nil {
		return nil, err
	}
	s.metrics.PasswordReset("completed")

	return s.issueToken(ctx, user)
}

// UpdatePassword требует текущий пароль и всегда завершает текущую сессию,
// а заодно и все остальные сессии пользователя.
func (s *AuthService) UpdatePassword(ctx context.Context, user *models.User, sessionID string, req models.UpdatePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return validationErr(err)
	}

	if !s.passwords.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		logger.WithCtx(ctx).Warn("Старый пароль не совпадает", zap.String("user_id", user.ID))
		return ErrWrongPassword
	}

	if _, err := s.passwords.SetPassword(ctx, user.ID, req.NewPassword); err != nil {
		return err
	}

	if err := s.sessions.RevokeSession(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	if _, err := s.sessions.RevokeUserSessions(ctx, user.ID); err != nil {
		return err
	}
	return nil
}

// Authenticate проверяет доступ к защищённому маршруту: подпись и срок токена,
// существование пользователя, смена пароля после выпуска, активность сессии.
// Наружу любая неудача отдаётся как ErrNotLoggedIn, причина видна только в логах и метриках.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*models.User, *utils.TokenClaims, error) {
	log := logger.WithCtx(ctx)

	if bearer == "" {
		return s.reject("missing_token")
	}

	claims, err := s.codec.Verify(bearer)
	if err != nil {
		log.Warn("Protect: неверный или просроченный токен", zap.Error(err))
		return s.reject("invalid_token")
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn("Protect: пользователь токена больше не существует", zap.String("user_id", claims.UserID))
		return s.reject("user_gone")
	}
	if err != nil {
		return nil, nil, err
	}

	if s.passwords.ChangedPasswordAfter(user, claims.IssuedAt) {
		log.Warn("Protect: пароль сменён после выпуска токена", zap.String("user_id", user.ID))
		return s.reject("password_changed")
	}

	if _, err := s.sessions.ResolveActiveSession(ctx, claims.SessionID); err != nil {
		if errors.Is(err, ErrSessionInvalid) {
			log.Warn("Protect: сессия неактивна", zap.String("session_id", claims.SessionID))
			return s.reject("session_inactive")
		}
		return nil, nil, err
	}

	return user, claims, nil
}

func (s *AuthService) reject(reason string) (*models.User, *utils.TokenClaims, error) {
	s.metrics.ProtectRejected(reason)
	return nil, nil, ErrNotLoggedIn
}
