package api

import (
	"github.com/ruteri/wingedcap-client/interfaces"
)

const (
	CreateKeyEndpoint = "/create_key"
	BindKeyEndpoint   = "/bind_key"
	PingKeyEndpoint   = "/ping_key"
	GetKeyEndpoint    = "/get_key"
	GetServerEndpoint = "/get_server"
)

// Envelope is the HTTP body in both directions. Payload is ECIES ciphertext.
type Envelope struct {
	Payload []byte `json:"payload"`
}

// ErrorResponse is returned unsealed with any non-200 status.
type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateKeyInput struct {
	// Timelock is the number of seconds after the last ping before the key unlocks.
	Timelock uint64 `json:"timelock"`
}

type CreateKeyOutput struct {
	ID string `json:"id"`
}

type BindKeyInput struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type BindKeyOutput struct{}

type PingKeyInput struct {
	ID string `json:"id"`
}

type PingKeyOutput struct {
	State interfaces.LockState `json:"state"`
}

type GetKeyInput struct {
	ID string `json:"id"`
}

// GetKeyOutput carries the share in Key once the slot is unlocked.
type GetKeyOutput struct {
	State interfaces.LockState `json:"state"`
	Key   string               `json:"key,omitempty"`
}

type GetServerInput struct{}
