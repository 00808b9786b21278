package httpserver

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStoreLifecycle(t *testing.T) {
	clk := clock.NewMock()
	ks := NewKeyStore(clk)

	id, err := ks.Create(60)
	require.NoError(t, err)
	require.NoError(t, ks.Bind(id, "share-0"))

	state, share, err := ks.Get(id)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Locked, state)
	assert.Empty(t, share)

	// Pinging just before the deadline pushes it back.
	clk.Add(59 * time.Second)
	state, err = ks.Ping(id)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Locked, state)

	clk.Add(59 * time.Second)
	state, _, err = ks.Get(id)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Locked, state, "get must not refresh but the deadline is not reached yet")

	clk.Add(60 * time.Second)
	state, share, err = ks.Get(id)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Unlocked, state)
	assert.Equal(t, "share-0", share)

	// Unlocking is permanent.
	state, err = ks.Ping(id)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Unlocked, state)
	state, _, err = ks.Get(id)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Unlocked, state)
}

func TestKeyStoreUnlocksAtDeadline(t *testing.T) {
	clk := clock.NewMock()
	ks := NewKeyStore(clk)

	id, err := ks.Create(10)
	require.NoError(t, err)

	clk.Add(10 * time.Second)
	state, err := ks.Ping(id)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Unlocked, state)
}

func TestKeyStoreBind(t *testing.T) {
	clk := clock.NewMock()
	ks := NewKeyStore(clk)

	id, err := ks.Create(10)
	require.NoError(t, err)

	assert.ErrorIs(t, ks.Bind(id, ""), ErrEmptyShare)
	require.NoError(t, ks.Bind(id, "a"))
	assert.ErrorIs(t, ks.Bind(id, "b"), ErrAlreadyBound)

	other, err := ks.Create(10)
	require.NoError(t, err)
	clk.Add(11 * time.Second)
	assert.ErrorIs(t, ks.Bind(other, "late"), ErrKeyUnlocked)

	// An unbound slot unlocks with an empty share.
	state, share, err := ks.Get(other)
	require.NoError(t, err)
	assert.Equal(t, interfaces.Unlocked, state)
	assert.Empty(t, share)
}

func TestKeyStoreErrors(t *testing.T) {
	ks := NewKeyStore(clock.NewMock())

	_, err := ks.Create(0)
	assert.ErrorIs(t, err, ErrInvalidTimelock)

	_, err = ks.Ping("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	_, _, err = ks.Get("missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.ErrorIs(t, ks.Bind("missing", "x"), ErrKeyNotFound)

	a, err := ks.Create(1)
	require.NoError(t, err)
	b, err := ks.Create(1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, ks.Len())
}
