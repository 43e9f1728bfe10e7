package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendflow/spendflow/internal/auth"
)

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, auth.CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, auth.CheckPassword(hash, "wrong password"))
}

func TestPassword_UniqueSalts(t *testing.T) {
	a, err := auth.HashPassword("same input")
	require.NoError(t, err)

	b, err := auth.HashPassword("same input")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
