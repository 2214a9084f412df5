package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	hashed, err := Hash("Officer@2024")
	require.NoError(t, err)
	assert.True(t, Verify("Officer@2024", hashed))
	assert.False(t, Verify("officer@2024", hashed))
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("Clerk@2024"))
	assert.ErrorIs(t, Validate("short1"), ErrWeak)
	assert.ErrorIs(t, Validate("onlyletters"), ErrWeak)
	assert.ErrorIs(t, Validate("1234567890"), ErrWeak)
}
