package interfaces

import (
	"fmt"
)

// LockState is the lock status of a single key or of a whole record.
type LockState int

const (
	// Locked means the timelock has not elapsed, or the state could not be confirmed.
	Locked LockState = iota
	// Unlocked means the timelock elapsed and the share is readable.
	Unlocked
)

// String returns the state name.
func (s LockState) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s LockState) MarshalText() ([]byte, error) {
	switch s {
	case Locked, Unlocked:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("invalid lock state %d", int(s))
	}
}

// UnmarshalText decodes a state name.
func (s *LockState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "locked":
		*s = Locked
	case "unlocked":
		*s = Unlocked
	default:
		return fmt.Errorf("invalid lock state %q", string(text))
	}
	return nil
}

// SenderKeyState is the outcome of pinging one key.
type SenderKeyState struct {
	Key   Key       `json:"key"`
	State LockState `json:"state"`
}

// ReceiverKeyState is the outcome of fetching one key.
// Share is only set when State is Unlocked.
type ReceiverKeyState struct {
	Key   Key       `json:"key"`
	State LockState `json:"state"`
	Share string    `json:"-"`
}

// SenderState is the aggregate view of a sender record after one ping round.
// It is Unlocked as soon as any combination has all of its keys unlocked,
// which for the sender means the secret may already be readable.
type SenderState struct {
	State LockState        `json:"state"`
	Keys  []SenderKeyState `json:"keys"`
	// UnlockedSets lists the indices (into the record's sets) of every satisfied combination.
	UnlockedSets []int `json:"unlocked_sets,omitempty"`
}

// UnlockedSet is one combination whose shares combined into plaintext.
type UnlockedSet struct {
	Set           KeyIndexArray `json:"set"`
	DecryptedData string        `json:"decrypted_data"`
}

// ReceiverState is the aggregate view of a receiver record after one get round.
type ReceiverState struct {
	State        LockState     `json:"state"`
	UnlockedSets []UnlockedSet `json:"unlocked_sets,omitempty"`
}

// Messages returns the decrypted plaintexts in set order. Duplicates are kept.
func (s ReceiverState) Messages() []string {
	res := make([]string, 0, len(s.UnlockedSets))
	for _, set := range s.UnlockedSets {
		res = append(res, set.DecryptedData)
	}
	return res
}
