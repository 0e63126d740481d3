package crypto

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/hexutil"
	secp256k1 "github.com/btcsuite/btcd/btcec"
)

var (
	ErrInvalidSignatureLen = errors.New("invalid signature length")
	ErrInvalidRecoveryID   = errors.New("invalid signature recovery id")
	ErrInvalidSignature    = errors.New("invalid signature values")
	ErrInvalidDigestLen    = errors.New("digest must be 32 bytes")
)

var (
	secp256k1N     = secp256k1.S256().N
	secp256k1halfN = new(big.Int).Rsh(secp256k1N, 1)
)

// SignerSecp256k1 produces and checks 65 byte recoverable signatures in the
// r || s || v layout, v being 27 or 28.
type SignerSecp256k1 struct {
}

func (s *SignerSecp256k1) GetCryptoType() CryptoType {
	return CryptoTypeSecp256k1
}

func (s *SignerSecp256k1) RandomKeyPair() (publicKey PublicKey, privateKey PrivateKey, err error) {
	priv, err := secp256k1.NewPrivateKey(secp256k1.S256())
	if err != nil {
		return
	}
	privKeyBytes := [32]byte{}
	copy(privKeyBytes[:], common.LeftPadBytes(priv.Serialize(), 32))
	privateKey = PrivateKeyFromBytes(CryptoTypeSecp256k1, privKeyBytes[:])
	publicKey = s.PubKey(privateKey)
	return
}

func (s *SignerSecp256k1) PrivateKeyFromHex(str string) (PrivateKey, error) {
	b, err := hexutil.DecodeLoose(str)
	if err != nil {
		return PrivateKey{}, err
	}
	if len(b) != 32 {
		return PrivateKey{}, fmt.Errorf("private key has length %d, want 32", len(b))
	}
	return PrivateKeyFromBytes(CryptoTypeSecp256k1, b), nil
}

func (s *SignerSecp256k1) PubKey(privKey PrivateKey) PublicKey {
	_, pub := secp256k1.PrivKeyFromBytes(secp256k1.S256(), privKey.Bytes)
	return PublicKeyFromBytes(CryptoTypeSecp256k1, pub.SerializeUncompressed())
}

// Address calculate the address from the pubkey
func (s *SignerSecp256k1) Address(pubKey PublicKey) common.Address {
	return PubkeyBytesToAddress(pubKey.Bytes)
}

// Sign signs a 32 byte digest. The digest is signed as is, callers hash first.
func (s *SignerSecp256k1) Sign(privKey PrivateKey, digest []byte) ([]byte, error) {
	if len(digest) != DigestLength {
		return nil, ErrInvalidDigestLen
	}
	priv, _ := secp256k1.PrivKeyFromBytes(secp256k1.S256(), privKey.Bytes)
	compact, err := secp256k1.SignCompact(secp256k1.S256(), priv, digest, false)
	if err != nil {
		return nil, err
	}
	// compact is [27 + recid] || r || s
	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	sig[RecoveryIDOffset] = compact[0]
	return sig, nil
}

// Ecrecover returns the uncompressed public key that created the given signature.
func (s *SignerSecp256k1) Ecrecover(digest, sig []byte) ([]byte, error) {
	if len(digest) != DigestLength {
		return nil, ErrInvalidDigestLen
	}
	if len(sig) != SignatureLength {
		return nil, ErrInvalidSignatureLen
	}
	v := sig[RecoveryIDOffset]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return nil, ErrInvalidRecoveryID
	}
	r := new(big.Int).SetBytes(sig[:32])
	ss := new(big.Int).SetBytes(sig[32:64])
	if !ValidateSignatureValues(r, ss) {
		return nil, ErrInvalidSignature
	}

	compact := make([]byte, SignatureLength)
	compact[0] = 27 + v
	copy(compact[1:], sig[:64])
	pub, _, err := secp256k1.RecoverCompact(secp256k1.S256(), compact, digest)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// RecoverAddress returns the address of the key that produced sig over digest.
func (s *SignerSecp256k1) RecoverAddress(digest common.Hash, sig []byte) (common.Address, error) {
	pub, err := s.Ecrecover(digest.Bytes[:], sig)
	if err != nil {
		return common.Address{}, err
	}
	return PubkeyBytesToAddress(pub), nil
}

// Verify reports whether sig over digest was produced by the key behind addr.
func (s *SignerSecp256k1) Verify(addr common.Address, digest common.Hash, sig []byte) bool {
	recovered, err := s.RecoverAddress(digest, sig)
	if err != nil {
		return false
	}
	return recovered == addr
}

// ValidateSignatureValues checks r and s are in range and s is in the lower half
// of the curve order, so a signature has exactly one accepted encoding.
func ValidateSignatureValues(r, s *big.Int) bool {
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	return r.Cmp(secp256k1N) < 0 && s.Cmp(secp256k1halfN) <= 0
}
