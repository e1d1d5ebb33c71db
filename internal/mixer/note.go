// note.go - Deposit note held by the client.
//
// A Note is the (nullifier, secret) pair whose commitment is admitted into
// the pool at deposit time. Whoever holds the note can later withdraw the
// denomination to any address by proving knowledge of the pre-image, without
// revealing which deposit is being spent.

package mixer

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
)

// Note is a spendable deposit secret. The pool never sees the nullifier or
// secret themselves, only the commitment (at deposit) and the nullifier
// hash (at withdrawal).
type Note struct {
	Nullifier *big.Int `json:"nullifier"`
	Secret    *big.Int `json:"secret"`
}

// NewNote creates a note with fresh randomness.
func NewNote() *Note {
	return &Note{
		Nullifier: randomFieldElement(),
		Secret:    randomFieldElement(),
	}
}

// Commitment returns MiMC(nullifier, secret), the leaf admitted at deposit.
func (n *Note) Commitment() *big.Int {
	return Commitment(n.Nullifier, n.Secret)
}

// NullifierHash returns the public spend tag for this note.
func (n *Note) NullifierHash() *big.Int {
	return NullifierHash(n.Nullifier)
}

// Save writes the note to a JSON file. The file holds the only copy of the
// spending secrets; losing it forfeits the deposit.
func (n *Note) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(n)
}

// LoadNote reads a note previously written by Save.
func LoadNote(path string) (*Note, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var n Note
	if err := json.NewDecoder(f).Decode(&n); err != nil {
		return nil, fmt.Errorf("invalid note file: %w", err)
	}
	return &n, nil
}
