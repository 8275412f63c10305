package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_Lifecycle(t *testing.T) {
	s := NewTokenStore(keyring.NewArrayKeyring(nil))

	tok, err := s.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.SaveToken("abc"))
	require.NoError(t, s.SaveToken("def"))

	tok, err = s.Token()
	require.NoError(t, err)
	assert.Equal(t, "def", tok)

	require.NoError(t, s.ClearToken())
	require.NoError(t, s.ClearToken(), "clearing twice must be harmless")

	tok, err = s.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)
}
