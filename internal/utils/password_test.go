package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("Secret123!")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123!", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.True(t, h.Verify("Secret123!", hash))
	assert.False(t, h.Verify("secret123!", hash))
	assert.False(t, h.Verify("Secret123!", "not-a-hash"))

	again, err := h.Hash("Secret123!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt is per hash")

	_, err = h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestGenerateResetToken(t *testing.T) {
	plain, digest, err := GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, plain, 64)
	assert.Len(t, digest, 64)
	assert.NotEqual(t, plain, digest)
	assert.Equal(t, digest, HashResetToken(plain))

	other, _, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, plain, other)
}
