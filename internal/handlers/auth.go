package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"sessionauth/internal/logger"
	"sessionauth/internal/middleware"
	"sessionauth/internal/models"
	"sessionauth/internal/services"
	"sessionauth/internal/utils/helpers"

	"go.uber.org/zap"
)

type authService interface {
	Signup(ctx context.Context, req models.SignupRequest) (*services.AuthResult, error)
	Signin(ctx context.Context, req models.SigninRequest) (*services.AuthResult, error)
	Signout(ctx context.Context, sessionID string) error
	ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) (string, error)
	ResetPassword(ctx context.Context, resetToken string, req models.ResetPasswordRequest) (*services.AuthResult, error)
	UpdatePassword(ctx context.Context, user *models.User, sessionID string, req models.UpdatePasswordRequest) error
}

type AuthHandler struct {
	authService authService
}

func NewAuthHandler(authService authService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// tokenResponse: ответ с bearer-токеном и публичным профилем.
type tokenResponse struct {
	Status string               `json:"status" example:"success"`
	Token  string               `json:"token"`
	Data   models.PublicProfile `json:"data"`
}

type profileResponse struct {
	Status string               `json:"status" example:"success"`
	Data   models.PublicProfile `json:"data"`
}

type errorResponse struct {
	Status string `json:"status" example:"fail"`
	Error  string `json:"error"`
}

// Signup godoc
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body models.SignupRequest true "Данные регистрации"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} errorResponse "Ошибка валидации или email занят"
// @Router /signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendToken(w, http.StatusOK, res)
}

// Signin godoc
// @Summary Вход по email и паролю
// @Tags auth
// @Accept json
// @Produce json
// @Param input body models.SigninRequest true "Данные для входа"
// @Success 200 {object} tokenResponse
// @Failure 401 {object} errorResponse "Неверный email или пароль"
// @Router /signin [post]
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req models.SigninRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authService.Signin(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendToken(w, http.StatusOK, res)
}

// Signout godoc
// @Summary Выход: деактивация текущей сессии
// @Tags auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} helpers.Response
// @Failure 401 {object} errorResponse
// @Router /signout [patch]
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, services.ErrNotLoggedIn)
		return
	}

	if err := h.authService.Signout(r.Context(), claims.SessionID); err != nil {
		writeError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info("Пользователь вышел")
	helpers.Success(w, http.StatusOK, struct{}{})
}

// Me godoc
// @Summary Профиль текущего пользователя
// @Tags auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} profileResponse
// @Failure 401 {object} errorResponse
// @Router /me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, services.ErrNotLoggedIn)
		return
	}
	helpers.JSON(w, http.StatusOK, profileResponse{Status: helpers.StatusSuccess, Data: user.Public()})
}

func sendToken(w http.ResponseWriter, status int, res *services.AuthResult) {
	helpers.JSON(w, status, tokenResponse{Status: helpers.StatusSuccess, Token: res.Token, Data: res.User})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		logger.WithCtx(r.Context()).Warn("Слишком большое тело запроса", zap.Int64("limit", tooLarge.Limit))
		helpers.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	logger.WithCtx(r.Context()).Warn("Ошибка декодирования JSON", zap.Error(err))
	helpers.Error(w, http.StatusBadRequest, "invalid JSON")
	return false
}

// statusFor сопоставляет класс ошибки сервиса одному HTTP-статусу.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := logger.WithCtx(r.Context())

	switch status {
	case http.StatusServiceUnavailable:
		log.Error("Хранилище недоступно", zap.String("path", r.URL.Path), zap.Error(err))
		helpers.Error(w, status, "service temporarily unavailable")
	case http.StatusInternalServerError:
		log.Error("Внутренняя ошибка", zap.String("path", r.URL.Path), zap.Error(err))
		helpers.Error(w, status, "internal server error")
	default:
		log.Warn("Запрос отклонён", zap.Int("status", status), zap.Error(err))
		helpers.Error(w, status, err.Error())
	}
}
