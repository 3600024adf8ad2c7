package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPassword(t *testing.T) {
	old := PasswordCost
	PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { PasswordCost = old })

	h, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.True(t, CompareHashAndPassword(h, "secret123"))
	assert.False(t, CompareHashAndPassword(h, "secret124"))
	assert.False(t, NeedsRehash(h))

	PasswordCost = bcrypt.MinCost + 1
	assert.True(t, NeedsRehash(h))
	assert.False(t, NeedsRehash("not-a-hash"))

	_, err = HashPassword(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
