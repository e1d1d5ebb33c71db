package withdraw

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// NumPublicInputs is the number of scalar public inputs of the withdrawal
// statement: root, nullifier hash, recipient, relayer, fee.
const NumPublicInputs = 5

// Compile builds the constraint system for a deposit tree of the given
// height over BN254.
func Compile(height int) (constraint.ConstraintSystem, error) {
	return frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, NewCircuit(height))
}

// BuildWitness constructs the full witness for a withdrawal proof.
// pathElements and pathIndex authenticate the commitment against root.
func BuildWitness(nullifier, secret, root *big.Int, pathElements []*big.Int, pathIndex uint64,
	nullifierHash, recipient, relayer, fee *big.Int) *Circuit {

	w := NewCircuit(len(pathElements))
	w.Root = root
	w.NullifierHash = nullifierHash
	w.Recipient = recipient
	w.Relayer = relayer
	w.Fee = fee
	w.Nullifier = nullifier
	w.Secret = secret
	for i, e := range pathElements {
		w.PathElements[i] = e
	}
	w.PathIndex = new(big.Int).SetUint64(pathIndex)
	return w
}

// Prove generates a Groth16 proof for the witness and returns it as an
// opaque byte blob in gnark's serialization (the pairing triple A, B, C).
func Prove(ccs constraint.ConstraintSystem, pk groth16.ProvingKey, w *Circuit) ([]byte, error) {
	gnarkWitness, err := frontend.NewWitness(w, ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}
	proof, err := groth16.Prove(ccs, pk, gnarkWitness)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Groth16Verifier checks withdrawal proofs against a verifying key. It
// implements the pool's Verifier capability.
type Groth16Verifier struct {
	vk     groth16.VerifyingKey
	height int
}

// NewGroth16Verifier wraps a verifying key for a deposit tree of the given
// height.
func NewGroth16Verifier(vk groth16.VerifyingKey, height int) *Groth16Verifier {
	return &Groth16Verifier{vk: vk, height: height}
}

// Verify unmarshals the proof blob, rebuilds the public witness in the
// statement's fixed input order and runs Groth16 verification. Any public
// input mismatch surfaces as a verification failure, not a separate error:
// the circuit binds all five values cryptographically.
func (v *Groth16Verifier) Verify(proofBytes []byte, publicInputs []*big.Int) error {
	if len(publicInputs) != NumPublicInputs {
		return fmt.Errorf("expected %d public inputs, got %d", NumPublicInputs, len(publicInputs))
	}

	assignment := NewCircuit(v.height)
	assignment.Root = publicInputs[0]
	assignment.NullifierHash = publicInputs[1]
	assignment.Recipient = publicInputs[2]
	assignment.Relayer = publicInputs[3]
	assignment.Fee = publicInputs[4]

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("cannot build public witness: %w", err)
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return fmt.Errorf("cannot unmarshal proof: %w", err)
	}

	return groth16.Verify(proof, v.vk, w)
}
