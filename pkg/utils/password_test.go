package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSecret(t *testing.T) {
	hashed, err := HashSecret("S3cret!pass")
	require.NoError(t, err)
	assert.True(t, CheckSecret(hashed, "S3cret!pass"))
	assert.False(t, CheckSecret(hashed, "other"))
}

func TestGenerateAccessKey(t *testing.T) {
	a, err := GenerateAccessKey()
	require.NoError(t, err)
	b, err := GenerateAccessKey()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Abcdef1!"))
	for _, weak := range []string{"Ab1!", "abcdefg1!", "ABCDEFG1!", "Abcdefgh!", "Abcdefgh1"} {
		assert.ErrorIs(t, ValidatePassword(weak), ErrWeakPassword, weak)
	}
}
