package main

import (
	"math/big"
	"sync"
	"testing"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"

	"github.com/RenKoya1/tornado/internal/mixer"
	"github.com/RenKoya1/tornado/internal/transactions/withdraw"
)

// Integration tests run the full protocol with real Groth16 proofs. A small
// tree keeps trusted setup and proving fast; the protocol is height-agnostic.
const testTreeHeight = 8

var (
	setupOnce sync.Once
	testCCS   constraint.ConstraintSystem
	testPK    groth16.ProvingKey
	testVK    groth16.VerifyingKey
	setupErr  error
)

func circuitSetup(t *testing.T) (constraint.ConstraintSystem, groth16.ProvingKey, groth16.VerifyingKey) {
	t.Helper()
	setupOnce.Do(func() {
		testCCS, setupErr = withdraw.Compile(testTreeHeight)
		if setupErr != nil {
			return
		}
		testPK, testVK, setupErr = groth16.Setup(testCCS)
	})
	if setupErr != nil {
		t.Fatalf("circuit setup failed: %v", setupErr)
	}
	return testCCS, testPK, testVK
}

func newTestPool(t *testing.T, historySize int) (*mixer.Pool, *mixer.AccountBook) {
	t.Helper()
	_, _, vk := circuitSetup(t)
	book := mixer.NewAccountBook()
	pool, err := mixer.NewPool(mixer.Config{
		Denomination:     big.NewInt(1_000_000),
		MerkleTreeHeight: testTreeHeight,
		RootHistorySize:  historySize,
	}, mixer.MimcHasher{}, withdraw.NewGroth16Verifier(vk, testTreeHeight), book)
	if err != nil {
		t.Fatalf("pool construction failed: %v", err)
	}
	return pool, book
}

// depositNote generates a fresh note and deposits its commitment.
func depositNote(t *testing.T, pool *mixer.Pool) (*mixer.Note, uint64) {
	t.Helper()
	note := mixer.NewNote()
	index, err := pool.Deposit(note.Commitment(), pool.Denomination())
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	return note, index
}

// proveWithdrawal builds a real proof for the note against the pool's
// current root.
func proveWithdrawal(t *testing.T, pool *mixer.Pool, note *mixer.Note, index uint64,
	recipient, relayer, fee *big.Int) ([]byte, *big.Int) {

	t.Helper()
	ccs, pk, _ := circuitSetup(t)
	root := pool.CurrentRoot()
	pathElements, err := pool.MerklePath(index)
	if err != nil {
		t.Fatalf("merkle path failed: %v", err)
	}
	proof, err := withdraw.Prove(ccs, pk, withdraw.BuildWitness(
		note.Nullifier, note.Secret, root, pathElements, index,
		note.NullifierHash(), recipient, relayer, fee))
	if err != nil {
		t.Fatalf("proving failed: %v", err)
	}
	return proof, root
}

func TestDepositProveWithdraw(t *testing.T) {
	pool, book := newTestPool(t, mixer.DefaultRootHistorySize)

	note, index := depositNote(t, pool)
	if index != 0 {
		t.Fatalf("expected first leaf index 0, got %d", index)
	}

	// A second depositor so the withdrawal root covers more than one leaf.
	depositNote(t, pool)

	recipient := big.NewInt(7001)
	relayer := big.NewInt(7002)
	fee := big.NewInt(5_000)
	proof, root := proveWithdrawal(t, pool, note, index, recipient, relayer, fee)

	if err := pool.Withdraw(proof, root, note.NullifierHash(), recipient, relayer, fee); err != nil {
		t.Fatalf("withdrawal rejected: %v", err)
	}

	if got := book.BalanceOf(recipient); got.Cmp(big.NewInt(995_000)) != 0 {
		t.Errorf("recipient balance = %s, want 995000", got)
	}
	if got := book.BalanceOf(relayer); got.Cmp(fee) != 0 {
		t.Errorf("relayer balance = %s, want %s", got, fee)
	}
	if got := book.Custody(); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Errorf("custody = %s, want 1000000 (one unspent note)", got)
	}
	if !pool.IsSpent(note.NullifierHash()) {
		t.Error("nullifier hash not marked spent")
	}
}

func TestDoubleSpendRejected(t *testing.T) {
	pool, _ := newTestPool(t, mixer.DefaultRootHistorySize)

	note, index := depositNote(t, pool)
	recipient := big.NewInt(7001)
	relayer := big.NewInt(0)
	fee := big.NewInt(0)
	proof, root := proveWithdrawal(t, pool, note, index, recipient, relayer, fee)

	if err := pool.Withdraw(proof, root, note.NullifierHash(), recipient, relayer, fee); err != nil {
		t.Fatalf("first withdrawal rejected: %v", err)
	}

	// Same proof replayed and a fresh proof for the same note must both fail.
	err := pool.Withdraw(proof, root, note.NullifierHash(), recipient, relayer, fee)
	if err != mixer.ErrAlreadySpent {
		t.Fatalf("replay: got %v, want ErrAlreadySpent", err)
	}

	proof2, root2 := proveWithdrawal(t, pool, note, index, recipient, relayer, fee)
	err = pool.Withdraw(proof2, root2, note.NullifierHash(), recipient, relayer, fee)
	if err != mixer.ErrAlreadySpent {
		t.Fatalf("fresh proof for spent note: got %v, want ErrAlreadySpent", err)
	}
}

func TestProofBindsPublicValues(t *testing.T) {
	pool, _ := newTestPool(t, mixer.DefaultRootHistorySize)

	note, index := depositNote(t, pool)
	recipient := big.NewInt(7001)
	relayer := big.NewInt(7002)
	fee := big.NewInt(5_000)
	proof, root := proveWithdrawal(t, pool, note, index, recipient, relayer, fee)

	cases := []struct {
		name                    string
		recipient, relayer, fee *big.Int
	}{
		{"swapped recipient", big.NewInt(6666), relayer, fee},
		{"swapped relayer", recipient, big.NewInt(6666), fee},
		{"inflated fee", recipient, relayer, big.NewInt(900_000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := pool.Withdraw(proof, root, note.NullifierHash(), tc.recipient, tc.relayer, tc.fee)
			if err == nil {
				t.Fatal("withdrawal with altered public values accepted")
			}
		})
	}

	// The untampered submission still works afterwards.
	if err := pool.Withdraw(proof, root, note.NullifierHash(), recipient, relayer, fee); err != nil {
		t.Fatalf("untampered withdrawal rejected: %v", err)
	}
}

func TestRecentRootAccepted(t *testing.T) {
	pool, _ := newTestPool(t, mixer.DefaultRootHistorySize)

	note, index := depositNote(t, pool)
	recipient := big.NewInt(7001)
	proof, root := proveWithdrawal(t, pool, note, index, recipient, big.NewInt(0), big.NewInt(0))

	// Later deposits move the current root; the proof's older root stays in
	// the history window.
	depositNote(t, pool)
	depositNote(t, pool)
	if pool.CurrentRoot().Cmp(root) == 0 {
		t.Fatal("root did not advance")
	}

	err := pool.Withdraw(proof, root, note.NullifierHash(), recipient, big.NewInt(0), big.NewInt(0))
	if err != nil {
		t.Fatalf("withdrawal against recent root rejected: %v", err)
	}
}

func TestStaleRootRejected(t *testing.T) {
	history := 3
	pool, _ := newTestPool(t, history)

	note, index := depositNote(t, pool)
	recipient := big.NewInt(7001)
	proof, root := proveWithdrawal(t, pool, note, index, recipient, big.NewInt(0), big.NewInt(0))

	// Push the proof's root out of the bounded history.
	for i := 0; i < history; i++ {
		depositNote(t, pool)
	}

	err := pool.Withdraw(proof, root, note.NullifierHash(), recipient, big.NewInt(0), big.NewInt(0))
	if err != mixer.ErrUnknownRoot {
		t.Fatalf("stale root: got %v, want ErrUnknownRoot", err)
	}
	if pool.IsSpent(note.NullifierHash()) {
		t.Error("rejected withdrawal must not burn the nullifier hash")
	}
}

func TestGarbageProofRejected(t *testing.T) {
	pool, _ := newTestPool(t, mixer.DefaultRootHistorySize)

	note, _ := depositNote(t, pool)
	err := pool.Withdraw([]byte("not a proof"), pool.CurrentRoot(),
		note.NullifierHash(), big.NewInt(7001), big.NewInt(0), big.NewInt(0))
	if err == nil {
		t.Fatal("garbage proof accepted")
	}
	if pool.IsSpent(note.NullifierHash()) {
		t.Error("rejected withdrawal must not burn the nullifier hash")
	}
}
