// Package ecc abstracts the elliptic curve group the ElGamal suite works
// on behind a small Point interface, so the tally engine never touches
// curve internals directly.
package ecc

import "math/big"

// Point is a point on an elliptic curve. Implementations are mutable: the
// receiver is the destination of every operation.
type Point interface {
	// New returns a fresh zero point on the same curve.
	New() Point
	// Order returns the order of the curve subgroup.
	Order() *big.Int
	// Set copies a into the receiver.
	Set(a Point)
	// SetZero sets the receiver to the identity element.
	SetZero()
	// SetGenerator sets the receiver to the subgroup generator.
	SetGenerator()
	// Add sets the receiver to a+b.
	Add(a, b Point)
	// SafeAdd is Add guarded by an internal lock, for accumulator points
	// shared between goroutines.
	SafeAdd(a, b Point)
	// Neg sets the receiver to -a.
	Neg(a Point)
	// ScalarMult sets the receiver to scalar*a.
	ScalarMult(a Point, scalar *big.Int)
	// ScalarBaseMult sets the receiver to scalar*G.
	ScalarBaseMult(scalar *big.Int)
	// Equal reports whether the receiver and a are the same point.
	Equal(a Point) bool
	// Point returns the affine coordinates.
	Point() (x, y *big.Int)
	// SetPoint returns a new point with the given affine coordinates.
	SetPoint(x, y *big.Int) Point
	// Marshal returns the canonical byte representation.
	Marshal() []byte
	// Unmarshal parses the canonical byte representation.
	Unmarshal(data []byte) error
	// String returns a hex representation, usable as a map key.
	String() string
}
