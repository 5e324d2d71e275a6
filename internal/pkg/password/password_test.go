package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHash_SaltRandomization(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	d1, err := h.Hash("secret1")
	require.NoError(t, err)
	d2, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
	assert.True(t, h.Verify("secret1", d1))
	assert.True(t, h.Verify("secret1", d2))
}

func TestVerify_Mismatch(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	d, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.False(t, h.Verify("wrong-password", d))
}

func TestVerify_MalformedDigestTreatedAsMismatch(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("secret1", "not-a-bcrypt-digest"))
	assert.False(t, h.Verify("secret1", ""))
}

func TestNewHasher_OutOfRangeCostFallsBack(t *testing.T) {
	h := NewHasher(99)

	d, err := h.Hash("secret1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(d))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
