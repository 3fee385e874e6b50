package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	store, err := NewStore("device-secret-for-tests")
	require.NoError(t, err)

	blob, err := store.Encrypt("sk-ant-api03-abcdef")
	require.NoError(t, err)
	assert.NotEqual(t, "sk-ant-api03-abcdef", blob)

	plain, err := store.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-api03-abcdef", plain)

	// random nonce: same plaintext encrypts differently
	blob2, err := store.Encrypt("sk-ant-api03-abcdef")
	require.NoError(t, err)
	assert.NotEqual(t, blob, blob2)
}

func TestEmptyInOut(t *testing.T) {
	store, err := NewStore("device-secret-for-tests")
	require.NoError(t, err)

	blob, err := store.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, blob)

	plain, err := store.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestDecryptFailures(t *testing.T) {
	store, err := NewStore("device-secret-for-tests")
	require.NoError(t, err)

	_, err = store.Decrypt("not base64!!!")
	assert.Error(t, err)

	_, err = store.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	// a different secret cannot open the blob
	blob, err := store.Encrypt("payload")
	require.NoError(t, err)
	other, err := NewStore("another-secret")
	require.NoError(t, err)
	_, err = other.Decrypt(blob)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNewStoreRequiresSecret(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

func TestValidateAPIKey(t *testing.T) {
	assert.NoError(t, ValidateAPIKey("anthropic", "sk-ant-api03-xyz"))
	assert.Error(t, ValidateAPIKey("anthropic", "sk-xyz"))
	assert.NoError(t, ValidateAPIKey("openai", "sk-proj-xyz"))
	assert.Error(t, ValidateAPIKey("openai", "pk-xyz"))
	assert.NoError(t, ValidateAPIKey("deepseek", "sk-xyz"))
	assert.Error(t, ValidateAPIKey("deepseek", "xyz"))
	assert.NoError(t, ValidateAPIKey("google", "AIzaSyA-1234567890123456789"))
	assert.Error(t, ValidateAPIKey("google", "short"))
	assert.NoError(t, ValidateAPIKey("custom", "anything-goes"))
	assert.Error(t, ValidateAPIKey("custom", "   "))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "sk-ant-...wxyz", MaskAPIKey("sk-ant-api03-abcdwxyz"))
	assert.Equal(t, "***", MaskAPIKey("short"))
	assert.Equal(t, "***", MaskAPIKey(""))
}
