package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	ivSize  = 12
	keySize = 32
)

var hkdfInfo = []byte("wingedcap/ecies/v1")

// GenerateKey creates a new P-256 key pair.
func GenerateKey() (*ecdh.PrivateKey, error) {
	return ecdh.P256().GenerateKey(rand.Reader)
}

// PublicKeyHex encodes a public key as carried in the "pk" field.
func PublicKeyHex(pub *ecdh.PublicKey) string {
	return hex.EncodeToString(pub.Bytes())
}

// ParsePublicKeyHex decodes a "pk" field.
func ParsePublicKeyHex(pk string) (*ecdh.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(pk, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex format: %w", err)
	}
	pub, err := ecdh.P256().NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

// PrivateKeyHex encodes a private key scalar.
func PrivateKeyHex(priv *ecdh.PrivateKey) string {
	return hex.EncodeToString(priv.Bytes())
}

// ParsePrivateKeyHex decodes a private key scalar.
func ParsePrivateKeyHex(s string) (*ecdh.PrivateKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid hex format: %w", err)
	}
	priv, err := ecdh.P256().NewPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return priv, nil
}

// EncryptWithPublicKey encrypts data to the given public key.
// A fresh ephemeral key is generated for each encryption operation.
func EncryptWithPublicKey(publicKey *ecdh.PublicKey, data []byte) ([]byte, error) {
	if publicKey == nil {
		return nil, errors.New("missing public key")
	}

	ephemeralKey, err := GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral key: %w", err)
	}

	sharedSecret, err := ephemeralKey.ECDH(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive shared secret: %w", err)
	}

	ephemeralPublicKeyBytes := ephemeralKey.PublicKey().Bytes()
	aesGCM, err := newGCM(sharedSecret, ephemeralPublicKeyBytes, publicKey.Bytes())
	if err != nil {
		return nil, err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	ciphertext := aesGCM.Seal(nil, iv, data, nil)

	result := make([]byte, 2+len(ephemeralPublicKeyBytes)+ivSize+len(ciphertext))
	binary.BigEndian.PutUint16(result[0:2], uint16(len(ephemeralPublicKeyBytes)))
	copy(result[2:], ephemeralPublicKeyBytes)
	copy(result[2+len(ephemeralPublicKeyBytes):], iv)
	copy(result[2+len(ephemeralPublicKeyBytes)+ivSize:], ciphertext)

	return result, nil
}

// DecryptWithPrivateKey decrypts data produced by EncryptWithPublicKey.
func DecryptWithPrivateKey(privateKey *ecdh.PrivateKey, encryptedData []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("missing private key")
	}
	if len(encryptedData) < 2 {
		return nil, errors.New("encrypted data too short")
	}

	ephemeralKeyLen := int(binary.BigEndian.Uint16(encryptedData[0:2]))
	if len(encryptedData) < 2+ephemeralKeyLen+ivSize {
		return nil, errors.New("encrypted data has invalid format")
	}

	ephemeralKeyBytes := encryptedData[2 : 2+ephemeralKeyLen]
	ephemeralKey, err := ecdh.P256().NewPublicKey(ephemeralKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal ephemeral public key: %w", err)
	}

	sharedSecret, err := privateKey.ECDH(ephemeralKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive shared secret: %w", err)
	}

	aesGCM, err := newGCM(sharedSecret, ephemeralKeyBytes, privateKey.PublicKey().Bytes())
	if err != nil {
		return nil, err
	}

	ivStart := 2 + ephemeralKeyLen
	iv := encryptedData[ivStart : ivStart+ivSize]
	ciphertext := encryptedData[ivStart+ivSize:]

	plaintext, err := aesGCM.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

func newGCM(sharedSecret, ephemeralPub, recipientPub []byte) (cipher.AEAD, error) {
	salt := make([]byte, 0, len(ephemeralPub)+len(recipientPub))
	salt = append(salt, ephemeralPub...)
	salt = append(salt, recipientPub...)

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, sharedSecret, salt, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(aesBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
