package elgamal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/vocdoni/confidential-tally/crypto/ecc"
	"github.com/vocdoni/confidential-tally/types"
)

// Fiat-Shamir domain separators.
const (
	ballotProofDomain     = "confidential-tally/ballot-proof/v1"
	decryptionProofDomain = "confidential-tally/decryption-proof/v1"
)

// challenge derives a Fiat-Shamir challenge scalar from the domain
// separator and the transcript chunks.
func challenge(domain string, order *big.Int, chunks ...[]byte) *big.Int {
	h := sha256.New()
	h.Write([]byte(domain))
	for _, chunk := range chunks {
		h.Write(chunk)
	}
	c := new(big.Int).SetBytes(h.Sum(nil))
	return c.Mod(c, order)
}

// randScalar returns a uniformly random scalar in [0, order).
func randScalar(order *big.Int) (*big.Int, error) {
	return rand.Int(rand.Reader, order)
}

// BallotProof is a disjunctive Chaum-Pedersen proof that a ciphertext
// encrypts either 0 or 1, without revealing which. It is the validity
// proof attached to every submitted ballot.
//
// The two branches share the Fiat-Shamir challenge: E0+E1 must equal the
// transcript hash, so only one branch can be simulated.
type BallotProof struct {
	A0 ecc.Point     `json:"a0"`
	B0 ecc.Point     `json:"b0"`
	A1 ecc.Point     `json:"a1"`
	B1 ecc.Point     `json:"b1"`
	E0 *types.BigInt `json:"e0"`
	E1 *types.BigInt `json:"e1"`
	Z0 *types.BigInt `json:"z0"`
	Z1 *types.BigInt `json:"z1"`
}

// UnmarshalJSON decodes the commitment points into their concrete curve
// type, since the interface fields cannot be decoded directly.
func (p *BallotProof) UnmarshalJSON(data []byte) error {
	aux := struct {
		A0 *ecc.G1       `json:"a0"`
		B0 *ecc.G1       `json:"b0"`
		A1 *ecc.G1       `json:"a1"`
		B1 *ecc.G1       `json:"b1"`
		E0 *types.BigInt `json:"e0"`
		E1 *types.BigInt `json:"e1"`
		Z0 *types.BigInt `json:"z0"`
		Z1 *types.BigInt `json:"z1"`
	}{A0: ecc.NewG1(), B0: ecc.NewG1(), A1: ecc.NewG1(), B1: ecc.NewG1()}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.A0, p.B0, p.A1, p.B1 = aux.A0, aux.B0, aux.A1, aux.B1
	p.E0, p.E1, p.Z0, p.Z1 = aux.E0, aux.E1, aux.Z0, aux.Z1
	return nil
}

// ProveBinary builds the validity proof for a ciphertext z = Enc(message; k)
// under publicKey. message must be 0 or 1 and k the encryption randomness.
func ProveBinary(publicKey ecc.Point, z *Ciphertext, message uint64, k *big.Int) (*BallotProof, error) {
	if message > 1 {
		return nil, fmt.Errorf("message %d is not binary", message)
	}
	order := publicKey.Order()
	g := publicKey.New()
	g.SetGenerator()

	// branch statements: D0 = C2, D1 = C2 - G, real branch Db = k*publicKey
	d0 := z.C2.New()
	d0.Set(z.C2)
	d1 := z.C2.New()
	negG := g.New()
	negG.Neg(g)
	d1.Set(z.C2)
	d1.Add(d1, negG)
	branches := []ecc.Point{d0, d1}

	rb := int(message)
	sb := 1 - rb

	// real branch commitments
	w, err := randScalar(order)
	if err != nil {
		return nil, err
	}
	aReal := publicKey.New()
	aReal.ScalarBaseMult(w)
	bReal := publicKey.New()
	bReal.ScalarMult(publicKey, w)

	// simulated branch: pick challenge and response, derive commitments
	eSim, err := randScalar(order)
	if err != nil {
		return nil, err
	}
	zSim, err := randScalar(order)
	if err != nil {
		return nil, err
	}
	// aSim = zSim*G - eSim*C1
	aSim := publicKey.New()
	aSim.ScalarBaseMult(zSim)
	tmp := publicKey.New()
	tmp.ScalarMult(z.C1, eSim)
	tmp.Neg(tmp)
	aSim.Add(aSim, tmp)
	// bSim = zSim*P - eSim*Dsim
	bSim := publicKey.New()
	bSim.ScalarMult(publicKey, zSim)
	tmp2 := publicKey.New()
	tmp2.ScalarMult(branches[sb], eSim)
	tmp2.Neg(tmp2)
	bSim.Add(bSim, tmp2)

	commitments := make([]ecc.Point, 4) // A0, B0, A1, B1
	commitments[2*rb] = aReal
	commitments[2*rb+1] = bReal
	commitments[2*sb] = aSim
	commitments[2*sb+1] = bSim

	e := challenge(ballotProofDomain, order,
		publicKey.Marshal(), z.C1.Marshal(), z.C2.Marshal(),
		commitments[0].Marshal(), commitments[1].Marshal(),
		commitments[2].Marshal(), commitments[3].Marshal(),
	)

	// eReal = e - eSim, zReal = w + eReal*k
	eReal := new(big.Int).Sub(e, eSim)
	eReal.Mod(eReal, order)
	zReal := new(big.Int).Mul(eReal, k)
	zReal.Add(zReal, w)
	zReal.Mod(zReal, order)

	es := make([]*big.Int, 2)
	zs := make([]*big.Int, 2)
	es[rb], zs[rb] = eReal, zReal
	es[sb], zs[sb] = eSim, zSim

	return &BallotProof{
		A0: commitments[0], B0: commitments[1],
		A1: commitments[2], B1: commitments[3],
		E0: (*types.BigInt)(es[0]), E1: (*types.BigInt)(es[1]),
		Z0: (*types.BigInt)(zs[0]), Z1: (*types.BigInt)(zs[1]),
	}, nil
}

// Verify checks the proof against the ciphertext and public key. A nil
// error means the ciphertext provably encrypts 0 or 1.
func (p *BallotProof) Verify(publicKey ecc.Point, z *Ciphertext) error {
	if p == nil || p.A0 == nil || p.B0 == nil || p.A1 == nil || p.B1 == nil ||
		p.E0 == nil || p.E1 == nil || p.Z0 == nil || p.Z1 == nil {
		return fmt.Errorf("incomplete proof")
	}
	order := publicKey.Order()
	g := publicKey.New()
	g.SetGenerator()

	d0 := z.C2.New()
	d0.Set(z.C2)
	d1 := z.C2.New()
	negG := g.New()
	negG.Neg(g)
	d1.Set(z.C2)
	d1.Add(d1, negG)

	e := challenge(ballotProofDomain, order,
		publicKey.Marshal(), z.C1.Marshal(), z.C2.Marshal(),
		p.A0.Marshal(), p.B0.Marshal(), p.A1.Marshal(), p.B1.Marshal(),
	)
	sum := new(big.Int).Add(p.E0.MathBigInt(), p.E1.MathBigInt())
	sum.Mod(sum, order)
	if sum.Cmp(e) != 0 {
		return fmt.Errorf("challenge mismatch")
	}

	check := func(a, b, d ecc.Point, ei, zi *big.Int) error {
		// zi*G == A + ei*C1
		left := publicKey.New()
		left.ScalarBaseMult(zi)
		right := publicKey.New()
		right.ScalarMult(z.C1, ei)
		right.Add(right, a)
		if !left.Equal(right) {
			return fmt.Errorf("commitment equation failed")
		}
		// zi*P == B + ei*D
		left2 := publicKey.New()
		left2.ScalarMult(publicKey, zi)
		right2 := publicKey.New()
		right2.ScalarMult(d, ei)
		right2.Add(right2, b)
		if !left2.Equal(right2) {
			return fmt.Errorf("branch equation failed")
		}
		return nil
	}
	if err := check(p.A0, p.B0, d0, p.E0.MathBigInt(), p.Z0.MathBigInt()); err != nil {
		return fmt.Errorf("branch 0: %w", err)
	}
	if err := check(p.A1, p.B1, d1, p.E1.MathBigInt(), p.Z1.MathBigInt()); err != nil {
		return fmt.Errorf("branch 1: %w", err)
	}
	return nil
}

// DecryptionProof is a Chaum-Pedersen equality proof that a batch of
// cleartexts is the correct decryption of a batch of ciphertexts under the
// oracle's private key, bound to the request identifier that asked for it.
// S holds the shared secrets d*C1_i removed during decryption.
type DecryptionProof struct {
	S []ecc.Point   `json:"s"`
	A ecc.Point     `json:"a"`
	B []ecc.Point   `json:"b"`
	Z *types.BigInt `json:"z"`
}

// UnmarshalJSON decodes the points into their concrete curve type, since
// the interface fields cannot be decoded directly.
func (p *DecryptionProof) UnmarshalJSON(data []byte) error {
	var aux struct {
		S []*ecc.G1     `json:"s"`
		A *ecc.G1       `json:"a"`
		B []*ecc.G1     `json:"b"`
		Z *types.BigInt `json:"z"`
	}
	aux.A = ecc.NewG1()
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.S = make([]ecc.Point, len(aux.S))
	for i, s := range aux.S {
		p.S[i] = s
	}
	p.B = make([]ecc.Point, len(aux.B))
	for i, b := range aux.B {
		p.B[i] = b
	}
	p.A, p.Z = aux.A, aux.Z
	return nil
}

// ProveDecryption builds the authenticity proof for the decryption of the
// given ciphertexts into cleartexts, bound to requestID.
func ProveDecryption(privateKey *big.Int, requestID string, ciphertexts []*Ciphertext, cleartexts []uint64) (*DecryptionProof, error) {
	if len(ciphertexts) != len(cleartexts) {
		return nil, fmt.Errorf("ciphertext/cleartext count mismatch")
	}
	curve := ecc.NewG1()
	order := curve.Order()

	publicKey := curve.New()
	publicKey.ScalarBaseMult(privateKey)

	w, err := randScalar(order)
	if err != nil {
		return nil, err
	}
	a := curve.New()
	a.ScalarBaseMult(w)

	s := make([]ecc.Point, len(ciphertexts))
	b := make([]ecc.Point, len(ciphertexts))
	transcript := [][]byte{[]byte(requestID), publicKey.Marshal()}
	for i, z := range ciphertexts {
		s[i] = curve.New()
		s[i].ScalarMult(z.C1, privateKey)
		b[i] = curve.New()
		b[i].ScalarMult(z.C1, w)
		transcript = append(transcript, z.C1.Marshal(), z.C2.Marshal(), s[i].Marshal(),
			new(big.Int).SetUint64(cleartexts[i]).Bytes())
	}
	transcript = append(transcript, a.Marshal())
	for i := range b {
		transcript = append(transcript, b[i].Marshal())
	}

	e := challenge(decryptionProofDomain, order, transcript...)
	zResp := new(big.Int).Mul(e, privateKey)
	zResp.Add(zResp, w)
	zResp.Mod(zResp, order)

	return &DecryptionProof{S: s, A: a, B: b, Z: (*types.BigInt)(zResp)}, nil
}

// Verify checks the proof: the same private key behind publicKey produced
// every shared secret, and each cleartext matches the decrypted point.
func (p *DecryptionProof) Verify(publicKey ecc.Point, requestID string, ciphertexts []*Ciphertext, cleartexts []uint64) error {
	if p == nil || p.A == nil || p.Z == nil {
		return fmt.Errorf("incomplete proof")
	}
	if len(ciphertexts) != len(cleartexts) || len(p.S) != len(ciphertexts) || len(p.B) != len(ciphertexts) {
		return fmt.Errorf("batch size mismatch")
	}
	order := publicKey.Order()

	transcript := [][]byte{[]byte(requestID), publicKey.Marshal()}
	for i, z := range ciphertexts {
		transcript = append(transcript, z.C1.Marshal(), z.C2.Marshal(), p.S[i].Marshal(),
			new(big.Int).SetUint64(cleartexts[i]).Bytes())
	}
	transcript = append(transcript, p.A.Marshal())
	for i := range p.B {
		transcript = append(transcript, p.B[i].Marshal())
	}
	e := challenge(decryptionProofDomain, order, transcript...)

	// z*G == A + e*P
	left := publicKey.New()
	left.ScalarBaseMult(p.Z.MathBigInt())
	right := publicKey.New()
	right.ScalarMult(publicKey, e)
	right.Add(right, p.A)
	if !left.Equal(right) {
		return fmt.Errorf("key equation failed")
	}

	for i, z := range ciphertexts {
		// z*C1 == B_i + e*S_i
		left := publicKey.New()
		left.ScalarMult(z.C1, p.Z.MathBigInt())
		right := publicKey.New()
		right.ScalarMult(p.S[i], e)
		right.Add(right, p.B[i])
		if !left.Equal(right) {
			return fmt.Errorf("ciphertext %d: secret equation failed", i)
		}
		// C2 - S_i == m_i*G
		m := z.C2.New()
		negS := p.S[i].New()
		negS.Neg(p.S[i])
		m.Set(z.C2)
		m.Add(m, negS)
		expected := publicKey.New()
		expected.ScalarBaseMult(new(big.Int).SetUint64(cleartexts[i]))
		if !m.Equal(expected) {
			return fmt.Errorf("ciphertext %d: cleartext does not match decryption", i)
		}
	}
	return nil
}
