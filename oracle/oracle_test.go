package oracle

import (
	"context"
	"math/big"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/confidential-tally/crypto/elgamal"
	"github.com/vocdoni/confidential-tally/types"
)

type captureHandler struct {
	mu         sync.Mutex
	requestID  string
	cleartexts []uint64
	proof      *elgamal.DecryptionProof
}

func (h *captureHandler) HandleDecryptionCallback(_ context.Context, requestID string,
	cleartexts []uint64, proof *elgamal.DecryptionProof) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requestID = requestID
	h.cleartexts = cleartexts
	h.proof = proof
	return nil
}

func TestRequestDecryption(t *testing.T) {
	c := qt.New(t)

	orc, err := New()
	c.Assert(err, qt.IsNil)
	handler := &captureHandler{}
	orc.SetHandler(handler)

	// encrypt 5 and 3 under the oracle key
	var serialized []types.HexBytes
	var ciphertexts []*elgamal.Ciphertext
	for _, m := range []int64{5, 3} {
		ct := elgamal.NewCiphertext()
		_, _, err := ct.Encrypt(big.NewInt(m), orc.PublicKey(), nil)
		c.Assert(err, qt.IsNil)
		ciphertexts = append(ciphertexts, ct)
		serialized = append(serialized, ct.Serialize())
	}

	err = orc.RequestDecryption(context.Background(), "req-1", serialized)
	c.Assert(err, qt.IsNil)
	orc.Wait()

	handler.mu.Lock()
	defer handler.mu.Unlock()
	c.Assert(handler.requestID, qt.Equals, "req-1")
	c.Assert(handler.cleartexts, qt.DeepEquals, []uint64{5, 3})
	c.Assert(handler.proof, qt.IsNotNil)
	c.Assert(handler.proof.Verify(orc.PublicKey(), "req-1", ciphertexts, handler.cleartexts), qt.IsNil)
}

func TestRequestDecryptionNoHandler(t *testing.T) {
	c := qt.New(t)
	orc, err := New()
	c.Assert(err, qt.IsNil)
	err = orc.RequestDecryption(context.Background(), "req-1", nil)
	c.Assert(err, qt.IsNotNil)
}

func TestRequestDecryptionMalformed(t *testing.T) {
	c := qt.New(t)
	orc, err := New()
	c.Assert(err, qt.IsNil)
	orc.SetHandler(&captureHandler{})
	err = orc.RequestDecryption(context.Background(), "req-1",
		[]types.HexBytes{{0x01, 0x02}})
	c.Assert(err, qt.IsNotNil)
}
