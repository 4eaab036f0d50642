package security

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(testKey(t))
	require.NoError(t, err)

	plaintext := []byte(`{"steps":8200,"source":"Apple Watch"}`)
	sealed, err := s.Seal(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "Apple Watch")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSealer_InvalidKey(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33} {
		_, err := NewSealer(make([]byte, size))
		assert.Error(t, err, "key size %d", size)
	}

	_, err := NewSealerFromBase64("not base64!")
	assert.ErrorContains(t, err, "failed to decode encryption key")

	_, err = NewSealerFromBase64(base64.StdEncoding.EncodeToString(make([]byte, 16)))
	assert.ErrorContains(t, err, "must be 32 bytes")
}

func TestSealer_DifferentCiphertexts(t *testing.T) {
	s, err := NewSealer(testKey(t))
	require.NoError(t, err)

	a, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"))
	require.NoError(t, err)

	assert.False(t, bytes.Equal(a, b), "nonce must differ per seal")
}

func TestSealer_RejectsTampering(t *testing.T) {
	s, err := NewSealer(testKey(t))
	require.NoError(t, err)

	_, err = s.Open([]byte("short"))
	assert.ErrorContains(t, err, "ciphertext too short")

	sealed, err := s.Seal([]byte("payload"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff
	_, err = s.Open(sealed)
	assert.ErrorContains(t, err, "failed to decrypt")

	other, err := NewSealer(testKey(t))
	require.NoError(t, err)
	sealed, err = s.Seal([]byte("payload"))
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.Error(t, err)
}

func TestProperty_SealOpenRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey(t))
	require.NoError(t, err)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("open(seal(x)) == x", prop.ForAll(
		func(x string) bool {
			sealed, err := s.Seal([]byte(x))
			if err != nil {
				return false
			}
			opened, err := s.Open(sealed)
			return err == nil && string(opened) == x
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
