package shares

import (
	"encoding/base64"
	"testing"

	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/ruteri/wingedcap-client/vaultconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShamirSplitter_SplitCombine(t *testing.T) {
	secret := []byte("the treasure is buried under the old oak")
	splitter := ShamirSplitter{}

	shares, err := splitter.Split(secret, 5, 3)
	require.NoError(t, err)
	require.Len(t, shares, 5)

	// Every threshold combination recovers the secret.
	sets, err := vaultconf.Generate(5, 3)
	require.NoError(t, err)
	for _, set := range sets {
		subset := make([]string, len(set))
		for i, idx := range set {
			subset[i] = shares[idx]
		}
		recovered, err := splitter.Combine(subset)
		require.NoError(t, err, "set %v", set)
		assert.Equal(t, secret, recovered)
	}

	// More shares than required work as well.
	recovered, err := splitter.Combine(shares)
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)
}

func TestShamirSplitter_TooFewShares(t *testing.T) {
	splitter := ShamirSplitter{}
	shares, err := splitter.Split([]byte("secret"), 4, 3)
	require.NoError(t, err)

	_, err = splitter.Combine(shares[:2])
	assert.ErrorIs(t, err, ErrDigestMismatch)

	_, err = splitter.Combine(shares[:1])
	assert.ErrorIs(t, err, ErrInvalidShare)
}

func TestShamirSplitter_OneOfN(t *testing.T) {
	splitter := ShamirSplitter{}
	shares, err := splitter.Split([]byte("open to anyone"), 3, 1)
	require.NoError(t, err)
	require.Len(t, shares, 3)

	for _, share := range shares {
		recovered, err := splitter.Combine([]string{share})
		require.NoError(t, err)
		assert.Equal(t, "open to anyone", string(recovered))
	}

	shares, err = splitter.Split([]byte("solo"), 1, 1)
	require.NoError(t, err)
	recovered, err := splitter.Combine(shares)
	require.NoError(t, err)
	assert.Equal(t, "solo", string(recovered))
}

func TestShamirSplitter_CorruptShare(t *testing.T) {
	splitter := ShamirSplitter{}
	shares, err := splitter.Split([]byte("do not tamper"), 3, 2)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(shares[0])
	require.NoError(t, err)
	raw[1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = splitter.Combine([]string{tampered, shares[1]})
	assert.Error(t, err)

	_, err = splitter.Combine([]string{"!!not base64!!", shares[1]})
	assert.ErrorIs(t, err, ErrInvalidShare)

	copyShares, err := splitter.Split([]byte("do not tamper"), 3, 1)
	require.NoError(t, err)
	_, err = splitter.Combine([]string{copyShares[0], shares[1]})
	assert.ErrorIs(t, err, ErrMixedShares)
}

func TestShamirSplitter_InvalidParameters(t *testing.T) {
	splitter := ShamirSplitter{}

	_, err := splitter.Split([]byte("x"), 3, 0)
	assert.ErrorIs(t, err, interfaces.ErrInvalidThreshold)

	_, err = splitter.Split([]byte("x"), 3, 4)
	assert.ErrorIs(t, err, interfaces.ErrInvalidThreshold)

	_, err = splitter.Split([]byte("x"), 256, 2)
	assert.ErrorIs(t, err, interfaces.ErrInvalidThreshold)

	_, err = splitter.Split(nil, 3, 2)
	assert.Error(t, err)

	_, err = splitter.Combine(nil)
	assert.ErrorIs(t, err, ErrInvalidShare)
}
