package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"sessionauth/internal/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{
	"id", "name", "email", "password_hash", "password_changed_at",
	"password_reset_token_hash", "password_reset_expires", "created_at", "updated_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock
}

func TestUserRepository_CreateUser(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO users \(id, name, email, password_hash\)`).
		WithArgs(pgxmock.AnyArg(), "Ann", "a@x.com", "hash").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &models.User{Name: "Ann", Email: "a@x.com", PasswordHash: "hash"}
	err := NewUserRepository(mock).CreateUser(context.Background(), u)

	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, now, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser_Duplicate(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "Ann", "a@x.com", "hash").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	err := NewUserRepository(mock).CreateUser(context.Background(), &models.User{Name: "Ann", Email: "a@x.com", PasswordHash: "hash"})

	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUserByEmail(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
					WithArgs("a@x.com").
					WillReturnRows(pgxmock.NewRows(userCols).
						AddRow("u1", "Ann", "a@x.com", "hash", nil, nil, nil, now, now))
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
					WithArgs("a@x.com").
					WillReturnRows(pgxmock.NewRows(userCols))
			},
			wantErr: ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
					WithArgs("a@x.com").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: ErrStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			u, err := NewUserRepository(mock).GetUserByEmail(context.Background(), "a@x.com")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, u)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "u1", u.ID)
				assert.Nil(t, u.PasswordChangedAt)
				assert.Nil(t, u.PasswordResetTokenHash)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_ConsumePasswordResetToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("clears fields and returns user", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`UPDATE users\s+SET password_reset_token_hash = NULL, password_reset_expires = NULL.*WHERE password_reset_token_hash = \$1 AND password_reset_expires > \$2\s+RETURNING`).
			WithArgs("digest", now).
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow("u1", "Ann", "a@x.com", "hash", nil, nil, nil, now, now))

		u, err := NewUserRepository(mock).ConsumePasswordResetToken(context.Background(), "digest", now)
		require.NoError(t, err)
		assert.Equal(t, "u1", u.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown or expired", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`UPDATE users`).
			WithArgs("digest", now).
			WillReturnRows(pgxmock.NewRows(userCols))

		_, err := NewUserRepository(mock).ConsumePasswordResetToken(context.Background(), "digest", now)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_SetPasswordResetToken(t *testing.T) {
	mock := newMock(t)
	exp := time.Date(2026, 1, 1, 12, 10, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE users\s+SET password_reset_token_hash = \$2, password_reset_expires = \$3`).
		WithArgs("u1", "digest", exp).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewUserRepository(mock).SetPasswordResetToken(context.Background(), "u1", "digest", exp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword_Missing(t *testing.T) {
	mock := newMock(t)
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE users\s+SET password_hash = \$2`).
		WithArgs("ghost", "hash", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := NewUserRepository(mock).UpdatePassword(context.Background(), "ghost", "hash", at)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
