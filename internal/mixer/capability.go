// capability.go - External capabilities the pool composes.
//
// The pool never touches a concrete cryptographic library directly: hashing,
// proof verification and value movement are injected at construction. This
// keeps the accounting state machine substitutable for testing; production
// wiring uses the MiMC hasher from crypto.go and the Groth16 verifier from
// internal/transactions/withdraw.

package mixer

import "math/big"

// Hasher combines two field elements into a single digest. Collision
// resistance is assumed, not re-derived here.
type Hasher interface {
	Hash(left, right *big.Int) *big.Int
}

// Verifier checks a zero-knowledge proof against its public inputs.
// The proof is an opaque byte blob; publicInputs are, in order:
// root, nullifier hash, recipient, relayer, fee.
type Verifier interface {
	Verify(proof []byte, publicInputs []*big.Int) error
}

// ValueTransfer moves value out of pool custody. Implementations may run
// arbitrary code on behalf of the payee, which is why the pool guards
// against reentry for the duration of every mutating call.
type ValueTransfer interface {
	Pay(to *big.Int, amount *big.Int) error
}
