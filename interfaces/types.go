package interfaces

import (
	"fmt"
)

// Server is the endpoint identity of one key server.
type Server struct {
	Host string `json:"host"`
	PK   string `json:"pk"`
}

// ServerMeta is display-only information about who runs a key server.
// It never takes part in protocol logic.
type ServerMeta struct {
	Provider string `json:"provider,omitempty"`
	Hoster   string `json:"hoster,omitempty"`
	Location string `json:"location,omitempty"`
}

// ServerWithMeta is a Server as handed out by a hub or pasted by the user.
type ServerWithMeta struct {
	Host string      `json:"host"`
	PK   string      `json:"pk"`
	Meta *ServerMeta `json:"meta,omitempty"`
}

// Server drops the display metadata.
func (s ServerWithMeta) Server() Server {
	return Server{Host: s.Host, PK: s.PK}
}

// Key names one share slot: a Server plus the identifier that server assigned at creation.
type Key struct {
	Host string `json:"host"`
	PK   string `json:"pk"`
	ID   string `json:"id"`
}

// Server returns the server holding the key.
func (k Key) Server() Server {
	return Server{Host: k.Host, PK: k.PK}
}

// String returns a short human readable reference, used in logs.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Host, k.ID)
}

// KeyWithMeta is the stored form of a sender key.
type KeyWithMeta struct {
	Host string      `json:"host"`
	PK   string      `json:"pk"`
	ID   string      `json:"id"`
	Meta *ServerMeta `json:"meta,omitempty"`
}

// Key strips the display metadata.
func (k KeyWithMeta) Key() Key {
	return Key{Host: k.Host, PK: k.PK, ID: k.ID}
}

// MaxKeys is the largest number of keys a record can have. Shares are
// points over GF(2^8), so there are at most 255 of them.
const MaxKeys = 255

// KeyIndexArray is one threshold combination: indices into the owning record's key list.
type KeyIndexArray []int

// VaultSets is the ordered collection of combinations, any one of which unlocks the secret.
type VaultSets []KeyIndexArray

// Validate checks the sets against the number of keys in the owning record.
// Every index must address an existing key, and no combination may be empty
// unless the record has no keys at all.
func (sets VaultSets) Validate(keyCount int) error {
	for i, set := range sets {
		if len(set) == 0 && keyCount > 0 {
			return fmt.Errorf("%w: set %d", ErrEmptySet, i)
		}
		for _, idx := range set {
			if idx < 0 || idx >= keyCount {
				return fmt.Errorf("%w: set %d references key %d of %d", ErrIndexOutOfRange, i, idx, keyCount)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the sets.
func (sets VaultSets) Clone() VaultSets {
	if sets == nil {
		return nil
	}
	res := make(VaultSets, len(sets))
	for i, set := range sets {
		res[i] = append(KeyIndexArray{}, set...)
	}
	return res
}

// Sender is the part of a sender record the ping protocol needs.
type Sender struct {
	Keys []Key     `json:"keys"`
	Sets VaultSets `json:"sets"`
}

// Validate checks the record invariants.
func (s Sender) Validate() error {
	return s.Sets.Validate(len(s.Keys))
}

// Receiver is the part of a receiver record the get protocol needs.
// It is wire compatible with Sender.
type Receiver struct {
	Keys []Key     `json:"keys"`
	Sets VaultSets `json:"sets"`
}

// Validate checks the record invariants.
func (r Receiver) Validate() error {
	return r.Sets.Validate(len(r.Keys))
}

// SenderStored is a sender record as kept in local storage.
type SenderStored struct {
	Label string        `json:"label"`
	Keys  []KeyWithMeta `json:"keys"`
	Sets  VaultSets     `json:"sets"`
}

// Sender strips the record down to what is needed to ping it.
func (s SenderStored) Sender() Sender {
	keys := make([]Key, len(s.Keys))
	for i, k := range s.Keys {
		keys[i] = k.Key()
	}
	return Sender{Keys: keys, Sets: s.Sets.Clone()}
}

// Receiver is the reference a recipient needs to fetch the shares later.
// It is the sender record with sender-only fields dropped.
func (s SenderStored) Receiver() Receiver {
	sender := s.Sender()
	return Receiver(sender)
}

// ReceiverStored returns the receiver record under the given label.
func (s SenderStored) ReceiverStored(label string) ReceiverStored {
	receiver := s.Receiver()
	return ReceiverStored{Label: label, Keys: receiver.Keys, Sets: receiver.Sets}
}

// Validate checks the record invariants.
func (s SenderStored) Validate() error {
	return s.Sets.Validate(len(s.Keys))
}

// ReceiverStored is a receiver record as kept in local storage.
type ReceiverStored struct {
	Label string    `json:"label"`
	Keys  []Key     `json:"keys"`
	Sets  VaultSets `json:"sets"`
}

// Receiver strips the label.
func (r ReceiverStored) Receiver() Receiver {
	return Receiver{Keys: append([]Key{}, r.Keys...), Sets: r.Sets.Clone()}
}

// Validate checks the record invariants.
func (r ReceiverStored) Validate() error {
	return r.Sets.Validate(len(r.Keys))
}
