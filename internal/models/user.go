package models

import "time"

type User struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	PasswordHash           string     `json:"-"`
	PasswordChangedAt      *time.Time `json:"-"`
	PasswordResetTokenHash *string    `json:"-"`
	PasswordResetExpires   *time.Time `json:"-"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// PublicProfile: то, что отдаётся клиенту наружу.
type PublicProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{Name: u.Name, Email: u.Email}
}

// ChangedPasswordAfter сообщает, менялся ли пароль после выпуска токена.
// iat в JWT хранится с точностью до секунды, поэтому сравниваем в секундах.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}
