package withdraw

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// Circuit proves knowledge of a note (nullifier, secret) whose commitment
// MiMC(nullifier, secret) sits in the deposit tree at the supplied root,
// and that NullifierHash = MiMC(nullifier). Recipient, relayer and fee are
// public inputs bound by the proof so a relayer cannot redirect a
// withdrawal it is submitting.
//
// Public input order is fixed: root, nullifierHash, recipient, relayer,
// fee. The verifier builds its public witness in the same order.
type Circuit struct {
	// Public
	Root          frontend.Variable `gnark:",public"`
	NullifierHash frontend.Variable `gnark:",public"`
	Recipient     frontend.Variable `gnark:",public"`
	Relayer       frontend.Variable `gnark:",public"`
	Fee           frontend.Variable `gnark:",public"`

	// Private
	Nullifier    frontend.Variable
	Secret       frontend.Variable
	PathElements []frontend.Variable
	PathIndex    frontend.Variable
}

// NewCircuit allocates a circuit for a deposit tree of the given height.
// The same height must be used for compilation, proving and verification.
func NewCircuit(height int) *Circuit {
	return &Circuit{PathElements: make([]frontend.Variable, height)}
}

func (c *Circuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}

	// (1) Nullifier hash
	h.Write(c.Nullifier)
	api.AssertIsEqual(c.NullifierHash, h.Sum())

	// (2) Commitment
	h.Reset()
	h.Write(c.Nullifier, c.Secret)
	leaf := h.Sum()

	// (3) Merkle path from leaf to root. PathIndex bits select whether the
	// running hash is the left or right child at each level.
	indexBits := api.ToBinary(c.PathIndex, len(c.PathElements))
	cur := leaf
	for i := 0; i < len(c.PathElements); i++ {
		left := api.Select(indexBits[i], c.PathElements[i], cur)
		right := api.Select(indexBits[i], cur, c.PathElements[i])
		h.Reset()
		h.Write(left, right)
		cur = h.Sum()
	}
	api.AssertIsEqual(cur, c.Root)

	// (4) Bind the remaining public inputs. The squares are otherwise
	// unused; they only make recipient, relayer and fee part of the
	// statement so a proof cannot be replayed with different payout
	// parameters.
	api.Mul(c.Recipient, c.Recipient)
	api.Mul(c.Relayer, c.Relayer)
	api.Mul(c.Fee, c.Fee)
	return nil
}
