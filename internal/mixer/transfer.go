// transfer.go - In-memory ValueTransfer implementation.
//
// AccountBook is a simple balance ledger backing the ValueTransfer
// capability for demos and tests. A host-chain deployment would substitute
// an implementation that moves native currency or tokens.

package mixer

import (
	"fmt"
	"math/big"
	"sync"
)

// AccountBook tracks per-address balances plus the pool's own custody
// balance. Safe for concurrent use.
type AccountBook struct {
	mu       sync.Mutex
	balances map[string]*big.Int
	custody  *big.Int
}

// NewAccountBook creates an empty account book.
func NewAccountBook() *AccountBook {
	return &AccountBook{
		balances: make(map[string]*big.Int),
		custody:  new(big.Int),
	}
}

// Receive moves amount into pool custody. Called by the pool when a deposit
// attaches value.
func (b *AccountBook) Receive(amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.custody.Add(b.custody, amount)
}

// Pay moves amount from pool custody to the given address. It fails if
// custody does not cover the amount.
func (b *AccountBook) Pay(to *big.Int, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.custody.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient pool custody: have %s, need %s", b.custody, amount)
	}
	b.custody.Sub(b.custody, amount)
	key := to.String()
	bal, ok := b.balances[key]
	if !ok {
		bal = new(big.Int)
		b.balances[key] = bal
	}
	bal.Add(bal, amount)
	return nil
}

// BalanceOf returns the balance credited to an address.
func (b *AccountBook) BalanceOf(addr *big.Int) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[addr.String()]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Custody returns the value currently held by the pool.
func (b *AccountBook) Custody() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.custody)
}
