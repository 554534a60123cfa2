package elgamal

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/vocdoni/confidential-tally/crypto/ecc"
)

// sizes in bytes of the serialized forms
const (
	sizePoint      = 64 // uncompressed affine BN254 G1 point
	SizeCiphertext = 2 * sizePoint
)

// Ciphertext is an ElGamal encrypted message with homomorphic properties.
// It encapsulates the two curve points of the ciphertext.
type Ciphertext struct {
	C1 ecc.Point `json:"c1"`
	C2 ecc.Point `json:"c2"`
}

// NewCiphertext creates a zero-valued Ciphertext.
func NewCiphertext() *Ciphertext {
	return &Ciphertext{C1: ecc.NewG1(), C2: ecc.NewG1()}
}

// Encrypt encrypts a message using the public key. The randomness k can be
// provided or nil to generate a fresh one. It returns z and the k used.
func (z *Ciphertext) Encrypt(message *big.Int, publicKey ecc.Point, k *big.Int) (*Ciphertext, *big.Int, error) {
	var err error
	if k == nil {
		if k, err = RandK(); err != nil {
			return nil, nil, fmt.Errorf("elgamal encryption failed: %w", err)
		}
	}
	z.C1, z.C2 = EncryptWithK(publicKey, message, k)
	return z, k, nil
}

// SetPlaintext sets z to the trivial encryption of message with zero
// randomness: (0, m*G). It is the homomorphic identity for message 0 and
// the way constant terms enter a fold.
func (z *Ciphertext) SetPlaintext(message *big.Int) *Ciphertext {
	z.C1.SetZero()
	z.C2.ScalarBaseMult(message)
	return z
}

// Add adds two Ciphertexts and stores the result in z, which is also
// returned. The plaintext of z is the sum of the plaintexts of x and y.
func (z *Ciphertext) Add(x, y *Ciphertext) *Ciphertext {
	z.C1.SafeAdd(x.C1, y.C1)
	z.C2.SafeAdd(x.C2, y.C2)
	return z
}

// Sub subtracts y from x and stores the result in z, which is also
// returned. The plaintext of z is the difference of the plaintexts.
func (z *Ciphertext) Sub(x, y *Ciphertext) *Ciphertext {
	negC1 := y.C1.New()
	negC1.Neg(y.C1)
	negC2 := y.C2.New()
	negC2.Neg(y.C2)
	z.C1.SafeAdd(x.C1, negC1)
	z.C2.SafeAdd(x.C2, negC2)
	return z
}

// Serialize returns the canonical byte representation: C1 followed by C2,
// SizeCiphertext bytes in total.
func (z *Ciphertext) Serialize() []byte {
	buf := make([]byte, 0, SizeCiphertext)
	buf = append(buf, z.C1.Marshal()...)
	buf = append(buf, z.C2.Marshal()...)
	return buf
}

// Deserialize reconstructs a Ciphertext from its canonical byte
// representation.
func (z *Ciphertext) Deserialize(data []byte) error {
	if len(data) != SizeCiphertext {
		return fmt.Errorf("invalid input length: got %d bytes, expected %d bytes", len(data), SizeCiphertext)
	}
	if z.C1 == nil || z.C2 == nil {
		z.C1, z.C2 = ecc.NewG1(), ecc.NewG1()
	}
	if err := z.C1.Unmarshal(data[:sizePoint]); err != nil {
		return fmt.Errorf("invalid C1: %w", err)
	}
	if err := z.C2.Unmarshal(data[sizePoint:]); err != nil {
		return fmt.Errorf("invalid C2: %w", err)
	}
	return nil
}

// DeserializeCiphertext is a convenience wrapper around Deserialize.
func DeserializeCiphertext(data []byte) (*Ciphertext, error) {
	z := NewCiphertext()
	if err := z.Deserialize(data); err != nil {
		return nil, err
	}
	return z, nil
}

// Marshal converts Ciphertext to a JSON byte slice.
func (z *Ciphertext) Marshal() ([]byte, error) {
	return json.Marshal(z)
}

// Unmarshal populates Ciphertext from a JSON byte slice.
func (z *Ciphertext) Unmarshal(data []byte) error {
	return json.Unmarshal(data, z)
}

// UnmarshalJSON decodes the two points into their concrete curve type,
// since the interface fields cannot be decoded directly.
func (z *Ciphertext) UnmarshalJSON(data []byte) error {
	aux := struct {
		C1 *ecc.G1 `json:"c1"`
		C2 *ecc.G1 `json:"c2"`
	}{ecc.NewG1(), ecc.NewG1()}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	z.C1, z.C2 = aux.C1, aux.C2
	return nil
}

// String returns a string representation of the Ciphertext.
func (z *Ciphertext) String() string {
	if z == nil || z.C1 == nil || z.C2 == nil {
		return "{C1: nil, C2: nil}"
	}
	return fmt.Sprintf("{C1: %s, C2: %s}", z.C1.String(), z.C2.String())
}
