// Package mixer implements a non-custodial fixed-denomination privacy pool.
//
// Overview:
//   - Depositors lock exactly the pool denomination behind a commitment
//     computed off-system as MiMC(nullifier, secret)
//   - Commitments are appended to an incremental Merkle accumulator; the
//     last K roots remain valid for withdrawal proofs
//   - Any holder of the matching note can later withdraw to an arbitrary
//     address with a Groth16 proof of pool membership, without revealing
//     which deposit is being spent
//   - Nullifier hashes recorded at withdrawal time prevent double spends
//
// Security model:
//   - MiMC over the BN254 scalar field for commitments, nullifier hashes
//     and tree nodes; collision resistance is assumed
//   - Proofs are verified with gnark (Groth16, BN254); the circuit binds
//     root, nullifier hash, recipient, relayer and fee as public inputs
//   - All randomness comes from crypto/rand
//   - The nullifier is marked spent before any value moves, so payment
//     callbacks cannot replay a proof; a failed payout burns the note
//
// The Pool is not safe for concurrent mutating calls: the execution model
// is a single totally-ordered ledger, and callers (the daemon, tests) are
// expected to serialize submissions. A reentrancy flag turns any reentrant
// mutating call into an error instead of a double spend.
package mixer
