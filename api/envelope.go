package api

import (
	"crypto/ecdh"
	"encoding/json"
	"fmt"

	"github.com/ruteri/wingedcap-client/cryptoutils"
)

// SealedRequest is the plaintext of a request envelope.
type SealedRequest struct {
	ReplyPK string          `json:"reply_pk"`
	Body    json.RawMessage `json:"body"`
}

// SealRequest encrypts body to the server key, attaching the key the reply must be sealed to.
func SealRequest(serverPub, replyPub *ecdh.PublicKey, body any) (*Envelope, error) {
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	plaintext, err := json.Marshal(SealedRequest{
		ReplyPK: cryptoutils.PublicKeyHex(replyPub),
		Body:    bodyJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sealed request: %w", err)
	}

	payload, err := cryptoutils.EncryptWithPublicKey(serverPub, plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to seal request: %w", err)
	}
	return &Envelope{Payload: payload}, nil
}

// OpenRequest decrypts a request envelope with the server key, decodes its
// body into out and returns the key the reply must be sealed to.
func OpenRequest(serverKey *ecdh.PrivateKey, env *Envelope, out any) (*ecdh.PublicKey, error) {
	plaintext, err := cryptoutils.DecryptWithPrivateKey(serverKey, env.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to open request: %w", err)
	}

	var req SealedRequest
	if err := json.Unmarshal(plaintext, &req); err != nil {
		return nil, fmt.Errorf("failed to parse sealed request: %w", err)
	}

	replyPub, err := cryptoutils.ParsePublicKeyHex(req.ReplyPK)
	if err != nil {
		return nil, fmt.Errorf("invalid reply key: %w", err)
	}

	if err := json.Unmarshal(req.Body, out); err != nil {
		return nil, fmt.Errorf("failed to parse request body: %w", err)
	}
	return replyPub, nil
}

// SealResponse encrypts a response body to the reply key of the request.
func SealResponse(replyPub *ecdh.PublicKey, body any) (*Envelope, error) {
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response body: %w", err)
	}
	payload, err := cryptoutils.EncryptWithPublicKey(replyPub, bodyJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to seal response: %w", err)
	}
	return &Envelope{Payload: payload}, nil
}

// OpenResponse decrypts a response envelope with the one-time reply key.
func OpenResponse(replyKey *ecdh.PrivateKey, env *Envelope, out any) error {
	plaintext, err := cryptoutils.DecryptWithPrivateKey(replyKey, env.Payload)
	if err != nil {
		return fmt.Errorf("failed to open response: %w", err)
	}
	if err := json.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("failed to parse response body: %w", err)
	}
	return nil
}
