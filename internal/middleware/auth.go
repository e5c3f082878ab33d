package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sessionauth/internal/logger"
	"sessionauth/internal/models"
	"sessionauth/internal/services"
	"sessionauth/internal/utils"
	"sessionauth/internal/utils/helpers"

	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*models.User, *utils.TokenClaims, error)
}

// Protect пропускает запрос дальше, только если токен валиден, пользователь жив,
// пароль не менялся после выпуска токена и сессия активна.
func Protect(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			user, claims, err := auth.Authenticate(r.Context(), BearerToken(r))
			if err != nil {
				if errors.Is(err, services.ErrUnauthenticated) {
					helpers.Error(w, http.StatusUnauthorized, err.Error())
					return
				}
				logger.WithCtx(r.Context()).Error("Protect: ошибка проверки доступа", zap.Error(err))
				if errors.Is(err, services.ErrStoreUnavailable) {
					helpers.Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
					return
				}
				helpers.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := WithAuth(r.Context(), user, claims)
			logger.WithCtx(ctx).Debug("Protect: доступ разрешён")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken достаёт токен из заголовка "Authorization: Bearer <token>"; пусто, если его нет.
func BearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
