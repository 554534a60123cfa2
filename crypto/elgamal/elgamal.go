// Package elgamal implements the additively homomorphic encryption used for
// the vote tallies: exponential ElGamal over BN254 G1. A plaintext m is
// encrypted as (C1, C2) = (k*G, m*G + k*P), so that adding two ciphertexts
// component-wise yields an encryption of the sum of their plaintexts.
// Decryption recovers M = m*G and then solves the discrete log with
// baby-step giant-step, which is cheap for the small tally values involved.
//
// The package also provides the two sigma protocols of the protocol
// boundary: a disjunctive Chaum-Pedersen proof that a ballot encrypts a
// binary value, and a Chaum-Pedersen equality proof that a set of
// cleartexts is the correct decryption of a batch of ciphertexts.
package elgamal

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"

	"github.com/vocdoni/arbo"

	"github.com/vocdoni/confidential-tally/crypto/ecc"
	"github.com/vocdoni/confidential-tally/util"
)

// RandK generates a random scalar for encryption.
func RandK() (*big.Int, error) {
	k := new(big.Int).SetBytes(util.RandomBytes(20))
	return arbo.BigToFF(arbo.BN254BaseField, k), nil
}

// GenerateKey generates a new public/private ElGamal encryption key pair.
func GenerateKey() (publicKey ecc.Point, privateKey *big.Int, err error) {
	curve := ecc.NewG1()
	order := curve.Order()
	d, err := rand.Int(rand.Reader, order)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key scalar: %v", err)
	}
	if d.Sign() == 0 {
		d = big.NewInt(1) // avoid zero private keys
	}
	publicKey = curve.New()
	publicKey.SetGenerator()
	publicKey.ScalarMult(publicKey, d)
	return publicKey, d, nil
}

// EncryptWithK encrypts a message using the public key and the provided
// random k. It returns the two points that represent the ciphertext.
func EncryptWithK(pubKey ecc.Point, msg, k *big.Int) (ecc.Point, ecc.Point) {
	m := new(big.Int).Mod(msg, pubKey.Order())
	// C1 = k * G
	c1 := pubKey.New()
	c1.ScalarBaseMult(k)
	// s = k * pubKey
	s := pubKey.New()
	s.ScalarMult(pubKey, k)
	// M = m * G, C2 = M + s
	c2 := pubKey.New()
	c2.ScalarBaseMult(m)
	c2.Add(c2, s)
	return c1, c2
}

// DecryptPoint removes the shared secret from a ciphertext and returns the
// message point M = C2 - d*C1. The plaintext scalar still has to be
// recovered from M with RecoverMessage.
func DecryptPoint(privateKey *big.Int, c1, c2 ecc.Point) ecc.Point {
	s := c1.New()
	s.ScalarMult(c1, privateKey)
	s.Neg(s)
	m := c2.New()
	m.Set(c2)
	m.Add(m, s)
	return m
}

// RecoverMessage solves M = x*G for x in [0, maxMessage] using baby-step
// giant-step.
func RecoverMessage(m ecc.Point, maxMessage uint64) (uint64, error) {
	mSqrt := uint64(math.Sqrt(float64(maxMessage))) + 1

	// Precompute baby steps 0*G, 1*G, ..., mSqrt*G
	g := m.New()
	g.SetGenerator()
	babySteps := make(map[string]uint64, mSqrt)
	babyStep := m.New()
	babyStep.SetZero()
	for j := uint64(0); j < mSqrt; j++ {
		babySteps[babyStep.String()] = j
		babyStep.Add(babyStep, g)
	}

	// c = -mSqrt * G
	c := m.New()
	c.ScalarBaseMult(new(big.Int).SetUint64(mSqrt))
	c.Neg(c)

	giantStep := m.New()
	giantStep.Set(m)
	for i := uint64(0); i <= mSqrt; i++ {
		if j, found := babySteps[giantStep.String()]; found {
			return i*mSqrt + j, nil
		}
		giantStep.Add(giantStep, c)
	}
	return 0, fmt.Errorf("failed to compute discrete logarithm, message out of range")
}

// Decrypt decrypts a ciphertext and recovers the plaintext scalar, which
// must lie in [0, maxMessage].
func Decrypt(privateKey *big.Int, z *Ciphertext, maxMessage uint64) (uint64, error) {
	m := DecryptPoint(privateKey, z.C1, z.C2)
	return RecoverMessage(m, maxMessage)
}
