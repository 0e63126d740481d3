package crypto

import (
	"github.com/annchain/keymanager/common"
	"golang.org/x/crypto/sha3"
)

const (
	// SignatureLength is r(32) || s(32) || v(1).
	SignatureLength = 65
	// RecoveryIDOffset points to the byte holding the recovery id.
	RecoveryIDOffset = 64
	// DigestLength is the size of the hash a signature commits to.
	DigestLength = 32
)

type CryptoType int

const (
	CryptoTypeSecp256k1 CryptoType = iota
)

type PrivateKey struct {
	Type  CryptoType
	Bytes []byte
}

// PublicKey holds the 65 byte uncompressed point (0x04 || X || Y).
type PublicKey struct {
	Type  CryptoType
	Bytes []byte
}

func PrivateKeyFromBytes(typev CryptoType, bytes []byte) PrivateKey {
	return PrivateKey{Type: typev, Bytes: bytes}
}

func PublicKeyFromBytes(typev CryptoType, bytes []byte) PublicKey {
	return PublicKey{Type: typev, Bytes: bytes}
}

// Keccak256 calculates and returns the Keccak256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates and returns the Keccak256 hash of the input data,
// converting it to an internal Hash data structure.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.Sum(h.Bytes[:0])
	return h
}

// PubkeyBytesToAddress derives the 20 byte address from an uncompressed public key:
// the last 20 bytes of keccak256(X || Y).
func PubkeyBytesToAddress(uncompressed []byte) common.Address {
	if len(uncompressed) == 65 {
		uncompressed = uncompressed[1:]
	}
	return common.BytesToAddress(Keccak256(uncompressed)[12:])
}
