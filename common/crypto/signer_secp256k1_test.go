package crypto

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/annchain/keymanager/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrivHex = "289c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032"
	testAddrHex = "0x970e8128ab834e8eac17ab8e3812f010678cf791"
)

func TestKeccak256(t *testing.T) {
	assert.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		hex.EncodeToString(Keccak256(nil)))
	h := Keccak256Hash([]byte("foo"))
	assert.Equal(t, Keccak256([]byte("foo")), h.ToBytes())
}

func TestSignerAddress(t *testing.T) {
	signer := SignerSecp256k1{}
	priv, err := signer.PrivateKeyFromHex(testPrivHex)
	require.NoError(t, err)

	pub := signer.PubKey(priv)
	assert.Len(t, pub.Bytes, 65)
	assert.Equal(t, testAddrHex, signer.Address(pub).Hex())
}

func TestSignerSecp(t *testing.T) {
	signer := SignerSecp256k1{}

	pub, priv, err := signer.RandomKeyPair()
	require.NoError(t, err)
	address := signer.Address(pub)

	digest := Keccak256Hash([]byte("This is a test"))
	sig, err := signer.Sign(priv, digest.ToBytes())
	require.NoError(t, err)
	assert.Len(t, sig, SignatureLength)
	assert.True(t, sig[RecoveryIDOffset] == 27 || sig[RecoveryIDOffset] == 28)

	recovered, err := signer.RecoverAddress(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, address, recovered)
	assert.True(t, signer.Verify(address, digest, sig))

	// raw 0/1 recovery ids are accepted too
	raw := common.CopyBytes(sig)
	raw[RecoveryIDOffset] -= 27
	recovered, err = signer.RecoverAddress(digest, raw)
	require.NoError(t, err)
	assert.Equal(t, address, recovered)

	other := Keccak256Hash([]byte("This is another test"))
	assert.False(t, signer.Verify(address, other, sig))
}

func TestSignerRejectsMalformed(t *testing.T) {
	signer := SignerSecp256k1{}
	_, priv, err := signer.RandomKeyPair()
	require.NoError(t, err)
	digest := Keccak256Hash([]byte("malformed"))
	sig, err := signer.Sign(priv, digest.ToBytes())
	require.NoError(t, err)

	_, err = signer.RecoverAddress(digest, sig[:64])
	assert.Equal(t, ErrInvalidSignatureLen, err)

	bad := common.CopyBytes(sig)
	bad[RecoveryIDOffset] = 29
	_, err = signer.RecoverAddress(digest, bad)
	assert.Equal(t, ErrInvalidRecoveryID, err)

	zero := make([]byte, SignatureLength)
	zero[RecoveryIDOffset] = 27
	_, err = signer.RecoverAddress(digest, zero)
	assert.Equal(t, ErrInvalidSignature, err)

	// the high-s twin of a valid signature is rejected
	s := new(big.Int).SetBytes(sig[32:64])
	highS := new(big.Int).Sub(secp256k1N, s)
	malleable := common.CopyBytes(sig)
	copy(malleable[32:64], common.LeftPadBytes(highS.Bytes(), 32))
	malleable[RecoveryIDOffset] = 55 - sig[RecoveryIDOffset]
	_, err = signer.RecoverAddress(digest, malleable)
	assert.Equal(t, ErrInvalidSignature, err)

	_, err = signer.Sign(priv, []byte("short"))
	assert.Equal(t, ErrInvalidDigestLen, err)
}
