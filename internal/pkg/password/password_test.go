package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h, err := Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", h)

	assert.True(t, Verify("correct horse", h))
	assert.False(t, Verify("battery staple", h))
}

func TestVerify_EmptyInputs(t *testing.T) {
	h, err := bcrypt.GenerateFromPassword([]byte("x"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.False(t, Verify("", string(h)))
	assert.False(t, Verify("x", ""))
}

func TestVerify_MalformedHash(t *testing.T) {
	assert.False(t, Verify("secret", "not-a-bcrypt-hash"))
}

func TestEqualize_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { Equalize("anything") })
}
