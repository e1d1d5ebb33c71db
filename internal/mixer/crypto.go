// crypto.go - MiMC-based hashing for commitments, nullifier hashes and the
// deposit tree.
//
// All digests are BN254 scalar field elements. Inputs are converted to the
// canonical 32-byte fr.Element encoding before hashing so that a zero value
// writes 32 zero bytes (matching the in-circuit hasher) instead of the empty
// slice returned by big.Int.Bytes().

package mixer

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	mimcNative "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// MimcHasher implements the Hasher capability with BN254 MiMC. It matches
// the hash computed inside the withdrawal circuit, so native tree roots and
// in-circuit Merkle paths agree.
type MimcHasher struct{}

// Hash returns MiMC(left, right).
func (MimcHasher) Hash(left, right *big.Int) *big.Int {
	h := mimcNative.NewMiMC()
	var l, r fr.Element
	l.SetBigInt(left)
	r.SetBigInt(right)
	lBytes := l.Bytes()
	rBytes := r.Bytes()
	h.Write(lBytes[:])
	h.Write(rBytes[:])
	return new(big.Int).SetBytes(h.Sum(nil))
}

// mimcHashOne computes MiMC over a single field element.
func mimcHashOne(x *big.Int) *big.Int {
	h := mimcNative.NewMiMC()
	var e fr.Element
	e.SetBigInt(x)
	b := e.Bytes()
	h.Write(b[:])
	return new(big.Int).SetBytes(h.Sum(nil))
}

// Commitment computes cm = MiMC(nullifier, secret), the value admitted into
// the deposit tree.
func Commitment(nullifier, secret *big.Int) *big.Int {
	return MimcHasher{}.Hash(nullifier, secret)
}

// NullifierHash computes the public spend tag MiMC(nullifier). It reveals
// nothing about which commitment the nullifier belongs to.
func NullifierHash(nullifier *big.Int) *big.Int {
	return mimcHashOne(nullifier)
}

// randomFieldElement draws a uniformly random BN254 scalar using
// crypto/rand via fr.Element.SetRandom. A failing entropy source panics
// rather than handing out a predictable secret.
func randomFieldElement() *big.Int {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		panic(err)
	}
	return e.BigInt(new(big.Int))
}
