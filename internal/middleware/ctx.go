package middleware

import (
	"context"

	"sessionauth/internal/models"
	"sessionauth/internal/reqctx"
	"sessionauth/internal/utils"
)

type ctxKey string

const (
	ContextUser   ctxKey = "user"
	ContextClaims ctxKey = "claims"
)

// WithAuth кладёт в контекст пользователя и claims токена, прошедшего Protect.
func WithAuth(ctx context.Context, user *models.User, claims *utils.TokenClaims) context.Context {
	ctx = context.WithValue(ctx, ContextUser, user)
	ctx = context.WithValue(ctx, ContextClaims, claims)
	ctx = reqctx.WithUserID(ctx, user.ID)
	return reqctx.WithSessionID(ctx, claims.SessionID)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ContextUser).(*models.User)
	return u, ok && u != nil
}

func ClaimsFromContext(ctx context.Context) (*utils.TokenClaims, bool) {
	c, ok := ctx.Value(ContextClaims).(*utils.TokenClaims)
	return c, ok && c != nil
}
