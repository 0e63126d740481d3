package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/annchain/keymanager/common"
	"github.com/annchain/keymanager/common/crypto"
	"github.com/annchain/keymanager/common/hexutil"
	"github.com/annchain/keymanager/common/utilfuncs"
	"github.com/spf13/cobra"
)

var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Generate a secp256k1 key for a committee member",
	Run: func(cmd *cobra.Command, args []string) {
		utilfuncs.PanicIfError(genKey(os.Stdout), "generate key")
	},
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Produce a 65 byte recoverable signature over a digest",
	Long:  `Produce a 65 byte recoverable signature over --digest, or over keccak256(--message) when no digest is given`,
	Run: func(cmd *cobra.Command, args []string) {
		key, _ := cmd.Flags().GetString("key")
		digest, _ := cmd.Flags().GetString("digest")
		message, _ := cmd.Flags().GetString("message")
		if digest == "" {
			digest = crypto.Keccak256Hash([]byte(message)).Hex()
		}
		sig, err := signDigest(key, digest)
		utilfuncs.PanicIfError(err, "sign")
		fmt.Println("digest:   ", digest)
		fmt.Println("signature:", sig)
	},
}

func genKey(w io.Writer) error {
	signer := &crypto.SignerSecp256k1{}
	pub, priv, err := signer.RandomKeyPair()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "private key: %s\nsig key:     %s\naddress:     %s\n",
		hexutil.Encode(priv.Bytes), hexutil.Encode(pub.Bytes), signer.Address(pub).Hex())
	return err
}

func signDigest(keyHex string, digestHex string) (string, error) {
	signer := &crypto.SignerSecp256k1{}
	priv, err := signer.PrivateKeyFromHex(keyHex)
	if err != nil {
		return "", fmt.Errorf("key: %v", err)
	}
	digest, err := common.HexToHash(digestHex)
	if err != nil {
		return "", fmt.Errorf("digest: %v", err)
	}
	sig, err := signer.Sign(priv, digest.ToBytes())
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

func init() {
	rootCmd.AddCommand(genkeyCmd, signCmd)
	signCmd.Flags().StringP("key", "k", "", "Private key in hex")
	signCmd.Flags().String("digest", "", "32 byte digest in hex")
	signCmd.Flags().String("message", "", "Message to hash when no digest is given")
	_ = signCmd.MarkFlagRequired("key")
}
