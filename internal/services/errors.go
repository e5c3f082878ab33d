package services

import (
	"errors"

	"sessionauth/internal/repository"
)

// Классы ошибок; каждый маппится ровно в один HTTP-статус.
var (
	ErrValidation       = errors.New("validation error")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = repository.ErrStoreUnavailable
)

// Error: конкретная ошибка с сообщением для клиента и классом из списка выше.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

var (
	ErrTokenInvalidOrExpired = &Error{Kind: ErrValidation, Msg: "token is invalid or has expired"}
	ErrEmailTaken            = &Error{Kind: ErrValidation, Msg: "email is already registered"}
	ErrInvalidCredentials    = &Error{Kind: ErrUnauthenticated, Msg: "incorrect email or password"}
	ErrWrongPassword         = &Error{Kind: ErrUnauthenticated, Msg: "your current password is wrong"}
	ErrNotLoggedIn           = &Error{Kind: ErrUnauthenticated, Msg: "you are not logged in, please log in to get access"}
	ErrSessionInvalid        = &Error{Kind: ErrUnauthenticated, Msg: "session is revoked or expired"}
	ErrUserNotFound          = &Error{Kind: ErrNotFound, Msg: "there is no user with this email address"}

	// ErrSessionNotFound: RevokeSession не нашёл активной сессии; вызывающий решает, ошибка ли это.
	ErrSessionNotFound = errors.New("session not found")
)

func validationErr(err error) error {
	return &Error{Kind: ErrValidation, Msg: err.Error()}
}
