// Package ethereum manages the ECDSA identities of the system: callers are
// identified by the Ethereum address recovered from the signature they
// attach to a request.
package ethereum

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/vocdoni/confidential-tally/util"
)

// SignatureLength is the size in bytes of an ECDSA signature with the
// recovery id appended.
const SignatureLength = 65

// SignKeys is an ECDSA keypair used to sign requests.
type SignKeys struct {
	Public  *ecdsa.PublicKey
	Private *ecdsa.PrivateKey
}

// NewSignKeys creates an empty SignKeys.
func NewSignKeys() *SignKeys {
	return &SignKeys{}
}

// Generate creates a fresh random keypair.
func (k *SignKeys) Generate() error {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return err
	}
	k.Private = key
	k.Public = &key.PublicKey
	return nil
}

// AddHexKey imports a private key from its hex representation.
func (k *SignKeys) AddHexKey(privHex string) error {
	key, err := ethcrypto.HexToECDSA(util.TrimHex(privHex))
	if err != nil {
		return err
	}
	k.Private = key
	k.Public = &key.PublicKey
	return nil
}

// HexString returns the compressed public key and the private key as hex
// strings.
func (k *SignKeys) HexString() (string, string) {
	pub := fmt.Sprintf("%x", ethcrypto.CompressPubkey(k.Public))
	priv := fmt.Sprintf("%x", ethcrypto.FromECDSA(k.Private))
	return pub, priv
}

// Address returns the Ethereum address derived from the public key.
func (k *SignKeys) Address() common.Address {
	return ethcrypto.PubkeyToAddress(*k.Public)
}

// Sign signs a message with the Ethereum personal-message prefix and
// returns the 65 byte signature.
func (k *SignKeys) Sign(message []byte) ([]byte, error) {
	if k.Private == nil {
		return nil, fmt.Errorf("no private key available")
	}
	return ethcrypto.Sign(Hash(message), k.Private)
}

// Hash returns the keccak256 hash of the message with the Ethereum
// personal-message prefix applied.
func Hash(message []byte) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return ethcrypto.Keccak256([]byte(prefixed))
}

// AddrFromSignature recovers the address that signed message. The
// signature must be in the 65 byte [R || S || V] format.
func AddrFromSignature(message, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(signature))
	}
	// normalize the recovery id (some signers use 27/28)
	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := ethcrypto.SigToPub(Hash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("cannot recover public key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}
