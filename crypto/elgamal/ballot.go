package elgamal

import (
	"fmt"
	"math/big"

	"github.com/vocdoni/confidential-tally/crypto/ecc"
)

// Ballot is the encrypted vote payload a voter submits: the encrypted
// binary choice plus the proof that it encodes 0 or 1. The tally engine
// treats the ciphertext as opaque and only asks for the proof verdict.
type Ballot struct {
	Choice *Ciphertext  `json:"choice"`
	Proof  *BallotProof `json:"proof"`
}

// NewBallot encrypts choice (0 = no, 1 = yes) under the proposal public
// key and attaches the validity proof. This is the client-side encryption
// boundary; the engine never sees the plaintext or the randomness.
func NewBallot(publicKey ecc.Point, choice uint64) (*Ballot, error) {
	if choice > 1 {
		return nil, fmt.Errorf("choice %d is not binary", choice)
	}
	ct := NewCiphertext()
	_, k, err := ct.Encrypt(new(big.Int).SetUint64(choice), publicKey, nil)
	if err != nil {
		return nil, err
	}
	proof, err := ProveBinary(publicKey, ct, choice, k)
	if err != nil {
		return nil, fmt.Errorf("failed to build validity proof: %w", err)
	}
	return &Ballot{Choice: ct, Proof: proof}, nil
}

// Verify checks the ballot carries a complete ciphertext and a valid
// binary proof for it.
func (b *Ballot) Verify(publicKey ecc.Point) error {
	if b == nil || b.Choice == nil || b.Choice.C1 == nil || b.Choice.C2 == nil {
		return fmt.Errorf("incomplete ballot")
	}
	if b.Proof == nil {
		return fmt.Errorf("missing validity proof")
	}
	return b.Proof.Verify(publicKey, b.Choice)
}
