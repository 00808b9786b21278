package aggregate

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/ruteri/wingedcap-client/fanout"
	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var errTransport = &interfaces.TransportError{Host: "h", Op: "ping_key", Err: errors.New("connection refused")}

func testKeys(n int) []interfaces.Key {
	keys := make([]interfaces.Key, n)
	for i := range keys {
		keys[i] = interfaces.Key{Host: string(rune('a' + i)), PK: "pk", ID: "id"}
	}
	return keys
}

func pingResults(keys []interfaces.Key, outcomes ...interface{}) []fanout.Result[interfaces.Key, interfaces.LockState] {
	res := make([]fanout.Result[interfaces.Key, interfaces.LockState], len(keys))
	for i, o := range outcomes {
		res[i].Input = keys[i]
		switch v := o.(type) {
		case interfaces.LockState:
			res[i].Value = v
		case error:
			res[i].Err = v
		}
	}
	return res
}

// joinSplitter combines by concatenation and refuses shares marked corrupt.
type joinSplitter struct{}

func (joinSplitter) Split(secret []byte, total, required int) ([]string, error) {
	return nil, errors.New("not used")
}

func (joinSplitter) Combine(shares []string) ([]byte, error) {
	for _, s := range shares {
		if s == "corrupt" {
			return nil, errors.New("bad share")
		}
	}
	return []byte(strings.Join(shares, "")), nil
}

func TestSenderStateExample(t *testing.T) {
	keys := testKeys(3)
	sets := interfaces.VaultSets{{0, 1}, {1, 2}}

	states := SenderKeyStates(pingResults(keys, interfaces.Unlocked, interfaces.Locked, interfaces.Unlocked), testLogger)
	state := ProcessSenderState(states, sets)
	assert.Equal(t, interfaces.Locked, state.State)
	assert.Empty(t, state.UnlockedSets)

	states = SenderKeyStates(pingResults(keys, interfaces.Unlocked, interfaces.Unlocked, interfaces.Unlocked), testLogger)
	state = ProcessSenderState(states, sets)
	assert.Equal(t, interfaces.Unlocked, state.State)
	assert.Equal(t, []int{0, 1}, state.UnlockedSets)
	assert.Len(t, state.Keys, 3)
}

func TestSenderStateFailClosed(t *testing.T) {
	keys := testKeys(2)
	sets := interfaces.VaultSets{{0, 1}, {1}}

	states := SenderKeyStates(pingResults(keys, interfaces.Unlocked, errTransport), testLogger)
	assert.Equal(t, interfaces.Locked, states[1].State)
	assert.Equal(t, keys[1], states[1].Key)

	state := ProcessSenderState(states, sets)
	assert.Equal(t, interfaces.Locked, state.State)
}

func TestSenderStateSingleCombination(t *testing.T) {
	keys := testKeys(3)
	sets := interfaces.VaultSets{{0}, {1}, {2}}

	states := SenderKeyStates(pingResults(keys, errTransport, interfaces.Locked, interfaces.Unlocked), testLogger)
	state := ProcessSenderState(states, sets)
	assert.Equal(t, interfaces.Unlocked, state.State)
	assert.Equal(t, []int{2}, state.UnlockedSets)
}

func TestSenderStateEmptySets(t *testing.T) {
	state := ProcessSenderState(nil, nil)
	assert.Equal(t, interfaces.Locked, state.State)

	// An empty combination is never satisfied, even with no keys.
	state = ProcessSenderState(nil, interfaces.VaultSets{{}})
	assert.Equal(t, interfaces.Locked, state.State)

	keys := testKeys(2)
	states := SenderKeyStates(pingResults(keys, interfaces.Unlocked, interfaces.Unlocked), testLogger)
	state = ProcessSenderState(states, interfaces.VaultSets{})
	assert.Equal(t, interfaces.Locked, state.State)
}

func TestSenderStateOutOfRangeIndex(t *testing.T) {
	keys := testKeys(1)
	states := SenderKeyStates(pingResults(keys, interfaces.Unlocked), testLogger)
	state := ProcessSenderState(states, interfaces.VaultSets{{0, 5}})
	assert.Equal(t, interfaces.Locked, state.State)
}

func getResults(keys []interfaces.Key, outcomes ...interface{}) []fanout.Result[interfaces.Key, interfaces.GetKeyOutput] {
	res := make([]fanout.Result[interfaces.Key, interfaces.GetKeyOutput], len(keys))
	for i, o := range outcomes {
		res[i].Input = keys[i]
		switch v := o.(type) {
		case string:
			res[i].Value = interfaces.GetKeyOutput{State: interfaces.Unlocked, Share: v}
		case interfaces.LockState:
			res[i].Value = interfaces.GetKeyOutput{State: v}
		case error:
			res[i].Err = v
		}
	}
	return res
}

func TestReceiverStateDuplicatesKept(t *testing.T) {
	keys := testKeys(3)
	sets := interfaces.VaultSets{{0}, {1}, {2}}

	states := ReceiverKeyStates(getResults(keys, "secret", "secret", interfaces.Locked), testLogger)
	state := ProcessReceiverState(states, sets, joinSplitter{}, testLogger)

	require.Equal(t, interfaces.Unlocked, state.State)
	assert.Equal(t, []string{"secret", "secret"}, state.Messages())
	assert.Equal(t, interfaces.KeyIndexArray{0}, state.UnlockedSets[0].Set)
	assert.Equal(t, interfaces.KeyIndexArray{1}, state.UnlockedSets[1].Set)
}

func TestReceiverStateCombinationOrder(t *testing.T) {
	keys := testKeys(3)
	sets := interfaces.VaultSets{{2, 0}}

	states := ReceiverKeyStates(getResults(keys, "a", "b", "c"), testLogger)
	state := ProcessReceiverState(states, sets, joinSplitter{}, testLogger)

	require.Equal(t, interfaces.Unlocked, state.State)
	assert.Equal(t, []string{"ca"}, state.Messages())
}

func TestReceiverStateSkipsCorruptCombination(t *testing.T) {
	keys := testKeys(3)
	sets := interfaces.VaultSets{{0, 1}, {1, 2}}

	states := ReceiverKeyStates(getResults(keys, "corrupt", "x", "y"), testLogger)
	state := ProcessReceiverState(states, sets, joinSplitter{}, testLogger)

	require.Equal(t, interfaces.Unlocked, state.State)
	require.Len(t, state.UnlockedSets, 1)
	assert.Equal(t, "xy", state.UnlockedSets[0].DecryptedData)
}

func TestReceiverStateAllCombinationsFail(t *testing.T) {
	keys := testKeys(2)
	sets := interfaces.VaultSets{{0, 1}}

	states := ReceiverKeyStates(getResults(keys, "corrupt", "x"), testLogger)
	state := ProcessReceiverState(states, sets, joinSplitter{}, testLogger)

	assert.Equal(t, interfaces.Locked, state.State)
	assert.Empty(t, state.UnlockedSets)
}

func TestReceiverStateFailClosed(t *testing.T) {
	keys := testKeys(2)
	sets := interfaces.VaultSets{{0, 1}, {0}}

	// Transport failure on key 1, key 0 unlocked but without a share.
	results := getResults(keys, interfaces.Unlocked, errTransport)
	states := ReceiverKeyStates(results, testLogger)
	assert.Equal(t, interfaces.Locked, states[0].State)
	assert.Equal(t, interfaces.Locked, states[1].State)
	assert.Empty(t, states[1].Share)

	state := ProcessReceiverState(states, sets, joinSplitter{}, testLogger)
	assert.Equal(t, interfaces.Locked, state.State)
}

func TestReceiverStateLocked(t *testing.T) {
	keys := testKeys(2)
	sets := interfaces.VaultSets{{0, 1}}

	states := ReceiverKeyStates(getResults(keys, "a", interfaces.Locked), testLogger)
	state := ProcessReceiverState(states, sets, joinSplitter{}, testLogger)
	assert.Equal(t, interfaces.Locked, state.State)
}

func TestReceiverStateEmptySets(t *testing.T) {
	state := ProcessReceiverState(nil, nil, joinSplitter{}, testLogger)
	assert.Equal(t, interfaces.Locked, state.State)
	assert.Empty(t, state.Messages())
}
