// pool.go - The fixed-denomination pool state machine.
//
// The pool composes the Merkle accumulator, the commitment/nullifier ledger
// and the external capabilities into two mutating operations, Deposit and
// Withdraw, plus read-only queries. Operations are atomic: a rejected call
// leaves all state unchanged, with the single documented exception that a
// nullifier marked spent stays spent even if the subsequent payout fails.
//
// The execution model is a single global sequential ledger: callers submit
// operations one at a time. The pool does not lock internally; it carries a
// reentrancy-detection flag so that code run by the ValueTransfer capability
// cannot re-enter a mutating operation mid-flight.

package mixer

import (
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/RenKoya1/tornado/internal/merkletree"
)

// Defaults matching a production deployment: a 20-level tree admits about a
// million deposits, and 30 retained roots tolerate provers lagging up to 29
// insertions behind the chain head.
const (
	DefaultMerkleTreeHeight = 20
	DefaultRootHistorySize  = 30
)

// Config is the immutable pool configuration fixed at construction.
type Config struct {
	Denomination     *big.Int
	MerkleTreeHeight int
	RootHistorySize  int
}

// Receiver is optionally implemented by ValueTransfer backends that track
// pool custody. The pool credits it once a deposit is fully admitted.
type Receiver interface {
	Receive(amount *big.Int)
}

// Pool is a fixed-denomination privacy pool instance.
type Pool struct {
	denomination *big.Int
	hasher       Hasher
	verifier     Verifier
	transfer     ValueTransfer

	tree   *merkletree.Tree
	ledger *Ledger
	events *EventLog

	// entered guards every mutating operation against reentry.
	entered atomic.Bool
}

// NewPool creates a pool with the given configuration and capabilities.
// Zero MerkleTreeHeight or RootHistorySize select the defaults.
func NewPool(cfg Config, hasher Hasher, verifier Verifier, transfer ValueTransfer) (*Pool, error) {
	if cfg.Denomination == nil || cfg.Denomination.Sign() <= 0 {
		return nil, ErrInvalidDenomination
	}
	if hasher == nil || verifier == nil || transfer == nil {
		return nil, ErrNilCapability
	}
	if cfg.MerkleTreeHeight == 0 {
		cfg.MerkleTreeHeight = DefaultMerkleTreeHeight
	}
	if cfg.RootHistorySize == 0 {
		cfg.RootHistorySize = DefaultRootHistorySize
	}

	tree, err := merkletree.New(cfg.MerkleTreeHeight, cfg.RootHistorySize, hasher)
	if err != nil {
		return nil, err
	}

	return &Pool{
		denomination: new(big.Int).Set(cfg.Denomination),
		hasher:       hasher,
		verifier:     verifier,
		transfer:     transfer,
		tree:         tree,
		ledger:       NewLedger(),
		events:       NewEventLog(),
	}, nil
}

// enter acquires the operation guard, failing on reentry.
func (p *Pool) enter() error {
	if !p.entered.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

// Deposit admits a commitment with attached value equal to the pool
// denomination and returns the assigned leaf index.
func (p *Pool) Deposit(commitment, value *big.Int) (uint64, error) {
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.entered.Store(false)

	if commitment == nil {
		return 0, ErrNilArgument
	}
	if value == nil || value.Cmp(p.denomination) != 0 {
		return 0, ErrWrongAmount
	}
	if p.ledger.HasCommitment(commitment) {
		return 0, ErrDuplicateCommitment
	}

	leafIndex, err := p.tree.Insert(commitment)
	if err != nil {
		if errors.Is(err, merkletree.ErrTreeFull) {
			return 0, ErrCapacityExceeded
		}
		return 0, err
	}
	if err := p.ledger.RegisterCommitment(commitment); err != nil {
		return 0, err
	}
	if r, ok := p.transfer.(Receiver); ok {
		r.Receive(value)
	}

	p.events.Append(EventDeposit, DepositEvent{
		Commitment: new(big.Int).Set(commitment),
		LeafIndex:  leafIndex,
		Timestamp:  time.Now(),
	})
	return leafIndex, nil
}

// Withdraw spends a note: it checks the fee bound, the nullifier, the root
// window and the proof, then marks the nullifier spent and pays out exactly
// the denomination, split between recipient and relayer by fee.
//
// The nullifier is marked spent before any value moves. If payment could
// re-enter Withdraw before the mark, the same proof would drain the pool;
// marking first closes that window. The flip side is deliberate and
// documented: a payout failure does not unmark the nullifier, so a note
// whose payout fails is burned rather than replayable.
func (p *Pool) Withdraw(proof []byte, root, nullifierHash, recipient, relayer, fee *big.Int) error {
	if err := p.enter(); err != nil {
		return err
	}
	defer p.entered.Store(false)

	if root == nil || nullifierHash == nil || recipient == nil || relayer == nil || fee == nil {
		return ErrNilArgument
	}
	if fee.Cmp(p.denomination) > 0 {
		return ErrFeeExceedsDenomination
	}
	if p.ledger.IsSpent(nullifierHash) {
		return ErrAlreadySpent
	}
	if !p.tree.IsKnownRoot(root) {
		return ErrUnknownRoot
	}
	publicInputs := []*big.Int{root, nullifierHash, recipient, relayer, fee}
	if err := p.verifier.Verify(proof, publicInputs); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}

	if err := p.ledger.MarkSpent(nullifierHash); err != nil {
		return err
	}

	toRecipient := new(big.Int).Sub(p.denomination, fee)
	if err := p.transfer.Pay(recipient, toRecipient); err != nil {
		return fmt.Errorf("%w: %v", ErrRecipientPaymentFailed, err)
	}
	if fee.Sign() > 0 {
		if err := p.transfer.Pay(relayer, fee); err != nil {
			return fmt.Errorf("%w: %v", ErrRelayerPaymentFailed, err)
		}
	}

	p.events.Append(EventWithdrawal, WithdrawalEvent{
		Recipient:     new(big.Int).Set(recipient),
		NullifierHash: new(big.Int).Set(nullifierHash),
		Relayer:       new(big.Int).Set(relayer),
		Fee:           new(big.Int).Set(fee),
	})
	return nil
}

// Restore rebuilds pool state from a previously persisted ledger. Every
// participant can re-derive the accumulator from the append-only commitment
// list, so restoring replays insertions in their original order and adopts
// the spent set as-is. The pool must be freshly constructed.
func (p *Pool) Restore(l *Ledger) error {
	if err := p.enter(); err != nil {
		return err
	}
	defer p.entered.Store(false)

	if p.tree.LeafCount() != 0 || p.ledger.CommitmentCount() != 0 {
		return errors.New("mixer: restore requires an empty pool")
	}
	for _, s := range l.CmList {
		cm, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return fmt.Errorf("mixer: invalid commitment in ledger: %q", s)
		}
		if _, err := p.tree.Insert(cm); err != nil {
			return err
		}
		if err := p.ledger.RegisterCommitment(cm); err != nil {
			return err
		}
	}
	for _, s := range l.NfList {
		nf, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return fmt.Errorf("mixer: invalid nullifier hash in ledger: %q", s)
		}
		if err := p.ledger.MarkSpent(nf); err != nil {
			return err
		}
	}
	return nil
}

// IsSpent reports whether a nullifier hash has been used. Public query, so
// anyone can check a note's status without attempting a withdrawal.
func (p *Pool) IsSpent(nullifierHash *big.Int) bool {
	return p.ledger.IsSpent(nullifierHash)
}

// IsKnownRoot reports whether root is within the accepted root window.
func (p *Pool) IsKnownRoot(root *big.Int) bool {
	return p.tree.IsKnownRoot(root)
}

// CurrentRoot returns the latest accumulator root.
func (p *Pool) CurrentRoot() *big.Int {
	return p.tree.CurrentRoot()
}

// Denomination returns the fixed per-deposit value.
func (p *Pool) Denomination() *big.Int {
	return new(big.Int).Set(p.denomination)
}

// LeafCount returns the number of admitted commitments.
func (p *Pool) LeafCount() uint64 {
	return p.tree.LeafCount()
}

// MerklePath returns the authentication path for the leaf at index against
// the current root. Clients use it to build withdrawal witnesses.
func (p *Pool) MerklePath(index uint64) ([]*big.Int, error) {
	return p.tree.Path(index)
}

// Ledger exposes the underlying ledger for persistence.
func (p *Pool) Ledger() *Ledger {
	return p.ledger
}

// Events exposes the append-only event log.
func (p *Pool) Events() *EventLog {
	return p.events
}
