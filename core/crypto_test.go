package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipher(t *testing.T) {
	c := NewCipher("test-encryption-key")

	enc, err := c.Encrypt("sessão confidencial")
	require.NoError(t, err)
	assert.NotEqual(t, "sessão confidencial", enc)
	assert.Equal(t, "sessão confidencial", c.Decrypt(enc))

	t.Run("empty", func(t *testing.T) {
		enc, err := c.Encrypt("")
		require.NoError(t, err)
		assert.Empty(t, enc)
		assert.Empty(t, c.Decrypt(""))
	})

	t.Run("plain text falls back", func(t *testing.T) {
		assert.Equal(t, "not encrypted", c.Decrypt("not encrypted"))
	})

	t.Run("wrong key falls back", func(t *testing.T) {
		other := NewCipher("another-key")
		assert.Equal(t, enc, other.Decrypt(enc))
	})
}
