package elgamal

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/confidential-tally/types"
)

func TestBallotProof(t *testing.T) {
	c := qt.New(t)

	publicKey, _, err := GenerateKey()
	c.Assert(err, qt.IsNil)

	for _, choice := range []uint64{0, 1} {
		ballot, err := NewBallot(publicKey, choice)
		c.Assert(err, qt.IsNil)
		c.Assert(ballot.Verify(publicKey), qt.IsNil)
	}
}

func TestBallotProofRejectsNonBinary(t *testing.T) {
	c := qt.New(t)

	publicKey, _, err := GenerateKey()
	c.Assert(err, qt.IsNil)

	_, err = NewBallot(publicKey, 2)
	c.Assert(err, qt.IsNotNil)

	// a proof for one ciphertext must not verify against another
	ballot, err := NewBallot(publicKey, 1)
	c.Assert(err, qt.IsNil)
	other := NewCiphertext()
	_, _, err = other.Encrypt(big.NewInt(2), publicKey, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(ballot.Proof.Verify(publicKey, other), qt.IsNotNil)
}

func TestBallotProofTampered(t *testing.T) {
	c := qt.New(t)

	publicKey, _, err := GenerateKey()
	c.Assert(err, qt.IsNil)

	ballot, err := NewBallot(publicKey, 1)
	c.Assert(err, qt.IsNil)

	// flip a response scalar
	tampered := *ballot.Proof
	z := new(big.Int).Add(tampered.Z0.MathBigInt(), big.NewInt(1))
	tampered.Z0 = (*types.BigInt)(z)
	c.Assert(tampered.Verify(publicKey, ballot.Choice), qt.IsNotNil)
}

func TestBallotJSONRoundtrip(t *testing.T) {
	c := qt.New(t)

	publicKey, _, err := GenerateKey()
	c.Assert(err, qt.IsNil)

	ballot, err := NewBallot(publicKey, 1)
	c.Assert(err, qt.IsNil)

	data, err := json.Marshal(ballot)
	c.Assert(err, qt.IsNil)

	decoded := &Ballot{}
	c.Assert(json.Unmarshal(data, decoded), qt.IsNil)
	c.Assert(decoded.Verify(publicKey), qt.IsNil)
}

func TestDecryptionProof(t *testing.T) {
	c := qt.New(t)

	publicKey, privateKey, err := GenerateKey()
	c.Assert(err, qt.IsNil)

	yes := NewCiphertext()
	_, _, err = yes.Encrypt(big.NewInt(3), publicKey, nil)
	c.Assert(err, qt.IsNil)
	no := NewCiphertext()
	_, _, err = no.Encrypt(big.NewInt(2), publicKey, nil)
	c.Assert(err, qt.IsNil)

	const requestID = "req-1"
	cts := []*Ciphertext{yes, no}
	cleartexts := []uint64{3, 2}

	proof, err := ProveDecryption(privateKey, requestID, cts, cleartexts)
	c.Assert(err, qt.IsNil)
	c.Assert(proof.Verify(publicKey, requestID, cts, cleartexts), qt.IsNil)

	// wrong request id
	c.Assert(proof.Verify(publicKey, "req-2", cts, cleartexts), qt.IsNotNil)

	// wrong cleartexts
	c.Assert(proof.Verify(publicKey, requestID, cts, []uint64{2, 3}), qt.IsNotNil)
}
