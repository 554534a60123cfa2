package ethereum

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestSignKeysGeneration(t *testing.T) {
	c := qt.New(t)
	t.Parallel()

	s := NewSignKeys()
	c.Assert(s.Generate(), qt.IsNil)

	pub, priv := s.HexString()
	c.Assert(pub, qt.Not(qt.Equals), "")
	c.Assert(priv, qt.Not(qt.Equals), "")

	// Test key import
	imported := NewSignKeys()
	c.Assert(imported.AddHexKey(priv), qt.IsNil)

	importedPub, importedPriv := imported.HexString()
	c.Assert(importedPub, qt.Equals, pub)
	c.Assert(importedPriv, qt.Equals, priv)
}

func TestSignAndRecover(t *testing.T) {
	c := qt.New(t)
	t.Parallel()

	s := NewSignKeys()
	c.Assert(s.Generate(), qt.IsNil)

	message := []byte("end proposal 42")
	signature, err := s.Sign(message)
	c.Assert(err, qt.IsNil)
	c.Assert(len(signature), qt.Equals, SignatureLength)

	addr, err := AddrFromSignature(message, signature)
	c.Assert(err, qt.IsNil)
	c.Assert(addr, qt.Equals, s.Address())

	// a different message must not recover the same address
	addr2, err := AddrFromSignature([]byte("end proposal 43"), signature)
	c.Assert(err, qt.IsNil)
	c.Assert(addr2, qt.Not(qt.Equals), s.Address())
}

func TestAddrFromSignatureInvalid(t *testing.T) {
	c := qt.New(t)
	t.Parallel()

	_, err := AddrFromSignature([]byte("msg"), []byte("short"))
	c.Assert(err, qt.IsNotNil)
}
