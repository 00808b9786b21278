// Package shares splits secrets into key shares and combines them back using
// Shamir's Secret Sharing.
package shares

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/hashicorp/vault/shamir"
	"github.com/ruteri/wingedcap-client/interfaces"
)

const (
	// schemeCopy shares carry the whole secret. Used for 1-of-N vaults,
	// which Shamir's scheme cannot express.
	schemeCopy byte = 0
	// schemeShamir shares carry one Shamir part.
	schemeShamir byte = 1

	digestSize = 16
)

var (
	ErrInvalidShare   = errors.New("invalid share")
	ErrMixedShares    = errors.New("shares use different schemes")
	ErrDigestMismatch = errors.New("combined secret failed integrity check")
)

// ShamirSplitter implements interfaces.SecretSplitter.
//
// The secret is extended with a truncated SHA-256 digest before splitting, so
// that combining too few, mismatched or corrupted shares is detected instead
// of silently producing garbage.
type ShamirSplitter struct{}

var _ interfaces.SecretSplitter = ShamirSplitter{}

// Split splits secret into total shares, any required of which recover it.
func (ShamirSplitter) Split(secret []byte, total, required int) ([]string, error) {
	if len(secret) == 0 {
		return nil, errors.New("cannot split an empty secret")
	}
	if required < 1 || required > total {
		return nil, fmt.Errorf("%w: %d of %d", interfaces.ErrInvalidThreshold, required, total)
	}
	if total > interfaces.MaxKeys {
		return nil, fmt.Errorf("%w: at most %d shares supported", interfaces.ErrInvalidThreshold, interfaces.MaxKeys)
	}

	body := seal(secret)
	defer wipeBytes(body)

	shares := make([]string, total)
	if required == 1 {
		for i := range shares {
			shares[i] = encode(schemeCopy, body)
		}
		return shares, nil
	}

	parts, err := shamir.Split(body, total, required)
	if err != nil {
		return nil, fmt.Errorf("failed to split secret: %w", err)
	}
	for i, part := range parts {
		shares[i] = encode(schemeShamir, part)
		wipeBytes(part)
	}
	return shares, nil
}

// Combine recovers the secret from shares.
func (ShamirSplitter) Combine(shares []string) ([]byte, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("%w: no shares", ErrInvalidShare)
	}

	scheme := byte(0)
	parts := make([][]byte, len(shares))
	for i, share := range shares {
		s, part, err := decode(share)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			scheme = s
		} else if s != scheme {
			return nil, ErrMixedShares
		}
		parts[i] = part
	}

	var body []byte
	switch scheme {
	case schemeCopy:
		body = parts[0]
	case schemeShamir:
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: need at least two shamir shares", ErrInvalidShare)
		}
		combined, err := shamir.Combine(parts)
		if err != nil {
			return nil, fmt.Errorf("failed to combine shares: %w", err)
		}
		body = combined
	}

	return unseal(body)
}

func seal(secret []byte) []byte {
	digest := sha256.Sum256(secret)
	body := make([]byte, 0, len(secret)+digestSize)
	body = append(body, secret...)
	return append(body, digest[:digestSize]...)
}

func unseal(body []byte) ([]byte, error) {
	if len(body) <= digestSize {
		return nil, ErrDigestMismatch
	}
	secret := body[:len(body)-digestSize]
	digest := sha256.Sum256(secret)
	if !bytes.Equal(digest[:digestSize], body[len(body)-digestSize:]) {
		return nil, ErrDigestMismatch
	}
	return append([]byte{}, secret...), nil
}

func encode(scheme byte, part []byte) string {
	buf := make([]byte, 0, len(part)+1)
	buf = append(buf, scheme)
	buf = append(buf, part...)
	return base64.StdEncoding.EncodeToString(buf)
}

func decode(share string) (byte, []byte, error) {
	raw, err := base64.StdEncoding.DecodeString(share)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}
	if len(raw) < 2 {
		return 0, nil, fmt.Errorf("%w: too short", ErrInvalidShare)
	}
	switch raw[0] {
	case schemeCopy, schemeShamir:
		return raw[0], raw[1:], nil
	default:
		return 0, nil, fmt.Errorf("%w: unknown scheme %d", ErrInvalidShare, raw[0])
	}
}

// Securely wipe data from memory
func wipeBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
