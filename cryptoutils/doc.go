// Package cryptoutils seals key server requests and responses.
//
// Every message exchanged with a key server is encrypted to the recipient's
// P-256 public key with ECIES:
//
//   - NIST P-256 ECDH between a fresh ephemeral key and the recipient key
//   - HKDF-SHA256 over the shared secret, salted with both public keys
//   - AES-256-GCM for authenticated encryption
//
// # Encryption Format
//
// The encrypted data follows this binary format:
//
//	[ephemeral key length (2 bytes)][ephemeral key][iv (12 bytes)][ciphertext]
//
// Public keys travel as the hex encoding of the uncompressed curve point,
// which is the form of the "pk" field of servers and keys.
package cryptoutils
