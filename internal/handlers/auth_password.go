package handlers

import (
	"net/http"

	"sessionauth/internal/logger"
	"sessionauth/internal/middleware"
	"sessionauth/internal/models"
	"sessionauth/internal/services"
	"sessionauth/internal/utils/helpers"

	"github.com/gorilla/mux"
)

type resetTokenResponse struct {
	Status     string `json:"status" example:"success"`
	ResetToken string `json:"resetToken"`
}

// ForgotPassword godoc
// @Summary Запрос токена сброса пароля
// @Description Выдаёт одноразовый токен сброса (действует PASSWORD_RESET_TTL). В базе хранится только его хеш.
// @Tags password
// @Accept json
// @Produce json
// @Param input body models.ForgotPasswordRequest true "Email пользователя"
// @Success 200 {object} resetTokenResponse
// @Failure 404 {object} errorResponse "Нет пользователя с таким email"
// @Router /forgotPassword [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.authService.ForgotPassword(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info("Выдан токен сброса пароля")
	helpers.JSON(w, http.StatusOK, resetTokenResponse{Status: helpers.StatusSuccess, ResetToken: token})
}

// ResetPassword godoc
// @Summary Сброс пароля по токену
// @Description Токен одноразовый. Все прежние сессии пользователя закрываются, выдаётся новый токен.
// @Tags password
// @Accept json
// @Produce json
// @Param resetToken path string true "Токен сброса"
// @Param input body models.ResetPasswordRequest true "Новый пароль"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} errorResponse "Токен неверен или истёк"
// @Router /resetPassword/{resetToken} [patch]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authService.ResetPassword(r.Context(), mux.Vars(r)["resetToken"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sendToken(w, http.StatusOK, res)
}

// UpdatePassword godoc
// @Summary Смена пароля авторизованным пользователем
// @Description Требует текущий пароль. После смены все сессии пользователя закрываются, нужен повторный вход.
// @Tags password
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.UpdatePasswordRequest true "Текущий и новый пароль"
// @Success 200 {object} helpers.Response
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse "Текущий пароль неверен"
// @Router /updatePassword [patch]
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, okUser := middleware.UserFromContext(r.Context())
	claims, okClaims := middleware.ClaimsFromContext(r.Context())
	if !okUser || !okClaims {
		writeError(w, r, services.ErrNotLoggedIn)
		return
	}

	var req models.UpdatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.UpdatePassword(r.Context(), user, claims.SessionID, req); err != nil {
		writeError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info("Пароль изменён, сессии закрыты")
	helpers.Success(w, http.StatusOK, struct{}{})
}
