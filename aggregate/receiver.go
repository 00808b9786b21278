package aggregate

import (
	"log/slog"

	"github.com/ruteri/wingedcap-client/fanout"
	"github.com/ruteri/wingedcap-client/interfaces"
)

// ReceiverKeyStates maps get results to key states. Failed calls, and unlocks
// that came without a share, are Locked.
func ReceiverKeyStates(results []fanout.Result[interfaces.Key, interfaces.GetKeyOutput], log *slog.Logger) []interfaces.ReceiverKeyState {
	if log == nil {
		log = slog.Default()
	}

	states := make([]interfaces.ReceiverKeyState, len(results))
	for i, r := range results {
		states[i] = interfaces.ReceiverKeyState{Key: r.Input, State: interfaces.Locked}
		switch {
		case r.Err != nil:
			log.Debug("Get failed, assuming locked", "key", r.Input.String(), "err", r.Err)
		case r.Value.State == interfaces.Unlocked && r.Value.Share == "":
			log.Warn("Key reported unlocked without a share", "key", r.Input.String())
		case r.Value.State == interfaces.Unlocked:
			states[i].State = interfaces.Unlocked
			states[i].Share = r.Value.Share
		}
	}
	return states
}

// ProcessReceiverState computes the receiver view. Every satisfied combination
// is handed to the splitter with its shares in combination order, and each one
// that combines yields an UnlockedSet. Combinations that fail to combine are
// skipped. The record is Unlocked iff at least one combination decrypted.
// Identical plaintexts from different combinations are all kept.
func ProcessReceiverState(keys []interfaces.ReceiverKeyState, sets interfaces.VaultSets, splitter interfaces.SecretSplitter, log *slog.Logger) interfaces.ReceiverState {
	if log == nil {
		log = slog.Default()
	}

	unlocked := make([]bool, len(keys))
	for i, k := range keys {
		unlocked[i] = k.State == interfaces.Unlocked && k.Share != ""
	}

	res := interfaces.ReceiverState{State: interfaces.Locked}
	for _, set := range sets {
		if !satisfied(set, unlocked) {
			continue
		}

		shares := make([]string, len(set))
		for i, idx := range set {
			shares[i] = keys[idx].Share
		}

		plaintext, err := splitter.Combine(shares)
		if err != nil {
			log.Debug("Skipping set", "err", &interfaces.CombineError{Set: set, Err: err})
			continue
		}

		res.UnlockedSets = append(res.UnlockedSets, interfaces.UnlockedSet{
			Set:           append(interfaces.KeyIndexArray{}, set...),
			DecryptedData: string(plaintext),
		})
	}

	if len(res.UnlockedSets) > 0 {
		res.State = interfaces.Unlocked
	}
	return res
}
