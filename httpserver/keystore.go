package httpserver

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/ruteri/wingedcap-client/interfaces"
)

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrInvalidTimelock = errors.New("timelock must be positive")
	ErrAlreadyBound    = errors.New("key already bound")
	ErrKeyUnlocked     = errors.New("key already unlocked")
	ErrEmptyShare      = errors.New("empty share")
)

type slot struct {
	timelock time.Duration
	deadline time.Time
	unlocked bool
	share    string
}

// KeyStore keeps timelocked key slots in memory.
type KeyStore struct {
	mu    sync.Mutex
	clock clock.Clock
	slots map[string]*slot
}

// NewKeyStore creates an empty key store. A nil clock means the wall clock.
func NewKeyStore(clk clock.Clock) *KeyStore {
	if clk == nil {
		clk = clock.New()
	}
	return &KeyStore{
		clock: clk,
		slots: make(map[string]*slot),
	}
}

// Create mints a slot locked for timelock seconds and returns its id.
func (ks *KeyStore) Create(timelock uint64) (string, error) {
	if timelock == 0 {
		return "", ErrInvalidTimelock
	}

	id := uuid.NewString()
	d := time.Duration(timelock) * time.Second

	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.slots[id] = &slot{
		timelock: d,
		deadline: ks.clock.Now().Add(d),
	}
	return id, nil
}

// Bind stores the share of a locked, not yet bound slot.
func (ks *KeyStore) Bind(id, share string) error {
	if share == "" {
		return ErrEmptyShare
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	s, err := ks.lookup(id)
	if err != nil {
		return err
	}
	if s.unlocked {
		return ErrKeyUnlocked
	}
	if s.share != "" {
		return ErrAlreadyBound
	}
	s.share = share
	return nil
}

// Ping refreshes the deadline of a locked slot and returns its state.
func (ks *KeyStore) Ping(id string) (interfaces.LockState, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	s, err := ks.lookup(id)
	if err != nil {
		return interfaces.Locked, err
	}
	if s.unlocked {
		return interfaces.Unlocked, nil
	}
	s.deadline = ks.clock.Now().Add(s.timelock)
	return interfaces.Locked, nil
}

// Get returns the state of a slot and, once unlocked, its share.
func (ks *KeyStore) Get(id string) (interfaces.LockState, string, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	s, err := ks.lookup(id)
	if err != nil {
		return interfaces.Locked, "", err
	}
	if !s.unlocked {
		return interfaces.Locked, "", nil
	}
	return interfaces.Unlocked, s.share, nil
}

// Len returns the number of slots.
func (ks *KeyStore) Len() int {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return len(ks.slots)
}

// lookup finds a slot and settles its lock state. Callers hold mu.
func (ks *KeyStore) lookup(id string) (*slot, error) {
	s, ok := ks.slots[id]
	if !ok {
		return nil, ErrKeyNotFound
	}
	if !s.unlocked && !ks.clock.Now().Before(s.deadline) {
		s.unlocked = true
	}
	return s, nil
}
