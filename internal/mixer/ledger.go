// ledger.go - Append-only commitment and nullifier ledger for the mixer.
//
// The Ledger records every commitment ever admitted and every nullifier hash
// ever spent. Both sets only grow; there is no deletion path. It supports
// idempotent admission (duplicate commitments are rejected) and double-spend
// rejection, and is persisted as a single JSON file.
//
// NOTE: Ledger is not thread-safe by itself; the pool serializes access.

package mixer

import (
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"os"
)

// Ledger is the canonical record of admitted commitments and spent
// nullifier hashes. The exported slices keep insertion order and are what
// gets persisted; the maps are membership indices rebuilt on load.
type Ledger struct {
	CmList []string // admitted commitments, decimal-encoded, insertion order
	NfList []string // spent nullifier hashes, decimal-encoded, insertion order

	commitments map[string]struct{}
	nullifiers  map[string]struct{}
}

// NewLedger creates a new, empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		CmList:      make([]string, 0),
		NfList:      make([]string, 0),
		commitments: make(map[string]struct{}),
		nullifiers:  make(map[string]struct{}),
	}
}

// HasCommitment returns true if the commitment was already admitted.
func (l *Ledger) HasCommitment(cm *big.Int) bool {
	_, ok := l.commitments[cm.String()]
	return ok
}

// RegisterCommitment records an admitted commitment. It fails if the
// commitment is already present; the accumulator itself would tolerate the
// duplicate leaf, but two leaves for one secret are spendable only once and
// would silently burn the second deposit.
func (l *Ledger) RegisterCommitment(cm *big.Int) error {
	key := cm.String()
	if _, ok := l.commitments[key]; ok {
		return ErrDuplicateCommitment
	}
	l.commitments[key] = struct{}{}
	l.CmList = append(l.CmList, key)
	return nil
}

// IsSpent returns true if the nullifier hash was already used.
func (l *Ledger) IsSpent(nf *big.Int) bool {
	_, ok := l.nullifiers[nf.String()]
	return ok
}

// MarkSpent records a nullifier hash as spent. Once recorded it can never
// be unspent; a second MarkSpent for the same hash fails.
func (l *Ledger) MarkSpent(nf *big.Int) error {
	key := nf.String()
	if _, ok := l.nullifiers[key]; ok {
		return ErrAlreadySpent
	}
	l.nullifiers[key] = struct{}{}
	l.NfList = append(l.NfList, key)
	return nil
}

// CommitmentCount returns the number of admitted commitments.
func (l *Ledger) CommitmentCount() int {
	return len(l.CmList)
}

// SaveToFile saves the ledger to a JSON file, overwriting any existing file.
func (l *Ledger) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// LoadLedgerFromFile loads a ledger previously written by SaveToFile and
// rebuilds the membership indices. A zero-byte file loads as an empty
// ledger, so a file that was created but never written to does not wedge
// a restart.
func LoadLedgerFromFile(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	l := NewLedger()
	if err := json.NewDecoder(f).Decode(l); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for _, cm := range l.CmList {
		l.commitments[cm] = struct{}{}
	}
	for _, nf := range l.NfList {
		l.nullifiers[nf] = struct{}{}
	}
	return l, nil
}
