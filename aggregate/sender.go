package aggregate

import (
	"log/slog"

	"github.com/ruteri/wingedcap-client/fanout"
	"github.com/ruteri/wingedcap-client/interfaces"
)

// SenderKeyStates maps ping results to key states. Failed pings are Locked.
func SenderKeyStates(results []fanout.Result[interfaces.Key, interfaces.LockState], log *slog.Logger) []interfaces.SenderKeyState {
	if log == nil {
		log = slog.Default()
	}

	states := make([]interfaces.SenderKeyState, len(results))
	for i, r := range results {
		state := interfaces.Locked
		switch {
		case r.Err != nil:
			log.Debug("Ping failed, assuming locked", "key", r.Input.String(), "err", r.Err)
		case r.Value == interfaces.Unlocked:
			state = interfaces.Unlocked
		}
		states[i] = interfaces.SenderKeyState{Key: r.Input, State: state}
	}
	return states
}

// ProcessSenderState computes the sender view. The record is Unlocked iff at
// least one combination has every key Unlocked.
func ProcessSenderState(keys []interfaces.SenderKeyState, sets interfaces.VaultSets) interfaces.SenderState {
	unlocked := make([]bool, len(keys))
	for i, k := range keys {
		unlocked[i] = k.State == interfaces.Unlocked
	}

	res := interfaces.SenderState{
		State: interfaces.Locked,
		Keys:  append([]interfaces.SenderKeyState{}, keys...),
	}
	for i, set := range sets {
		if satisfied(set, unlocked) {
			res.UnlockedSets = append(res.UnlockedSets, i)
		}
	}
	if len(res.UnlockedSets) > 0 {
		res.State = interfaces.Unlocked
	}
	return res
}

// satisfied reports whether set is non-empty and all of its keys are unlocked.
// Indices outside the key list make the set unsatisfiable.
func satisfied(set interfaces.KeyIndexArray, unlocked []bool) bool {
	if len(set) == 0 {
		return false
	}
	for _, idx := range set {
		if idx < 0 || idx >= len(unlocked) || !unlocked[idx] {
			return false
		}
	}
	return true
}
