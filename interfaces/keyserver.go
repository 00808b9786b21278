package interfaces

import (
	"context"
)

// GetKeyOutput is the answer of a key server to a get request.
// Share is empty unless State is Unlocked.
type GetKeyOutput struct {
	State LockState
	Share string
}

// KeyServerClient performs the remote operations against one key server at a time.
//
// Every failure (network, timeout, non-success status, undecodable or unauthenticated
// response) is reported as a *TransportError. Implementations bound the latency of
// each call themselves; callers do not impose timeouts on top.
type KeyServerClient interface {
	// CreateKey asks the server to mint a new slot locked for timelock seconds
	// after the last ping. Returns the identifier the server assigned.
	CreateKey(ctx context.Context, server Server, timelock uint64) (string, error)

	// BindKey stores a share payload in a freshly created slot.
	BindKey(ctx context.Context, key Key, share string) error

	// PingKey refreshes the timelock of a still locked slot and reports its state.
	// It never returns share material.
	PingKey(ctx context.Context, key Key) (LockState, error)

	// GetKey reads the share of a slot whose timelock has elapsed.
	GetKey(ctx context.Context, key Key) (GetKeyOutput, error)
}

// HubClient hands out key servers to use for new secrets.
type HubClient interface {
	GetServer(ctx context.Context) (ServerWithMeta, error)
}

// SecretSplitter splits a secret into shares and combines them back.
// Both operations are pure and synchronous.
type SecretSplitter interface {
	// Split returns exactly total shares, any required of which recover the secret.
	Split(secret []byte, total, required int) ([]string, error)

	// Combine recovers the secret from a set of shares.
	Combine(shares []string) ([]byte, error)
}
