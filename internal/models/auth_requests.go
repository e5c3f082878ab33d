package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// bcrypt игнорирует всё после 72 байт
const (
	PasswordMinLen = 8
	PasswordMaxLen = 72
)

type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(PasswordMinLen, PasswordMaxLen)),
		validation.Field(&r.PasswordConfirm, validation.Required, validation.In(r.Password).Error("passwords are not the same")),
	)
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SigninRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type ResetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required, validation.Length(PasswordMinLen, PasswordMaxLen)),
		validation.Field(&r.PasswordConfirm, validation.Required, validation.In(r.Password).Error("passwords are not the same")),
	)
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate не проверяет currentPassword на длину: старые пароли могли быть заданы по другим правилам.
func (r UpdatePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(PasswordMinLen, PasswordMaxLen)),
		validation.Field(&r.ConfirmPassword, validation.Required, validation.In(r.NewPassword).Error("passwords are not the same")),
	)
}

// NormalizeEmail: email уникален без учёта регистра.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
