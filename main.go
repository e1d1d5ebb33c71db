package main

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/RenKoya1/tornado/internal/mixer"
	"github.com/RenKoya1/tornado/internal/transactions/withdraw"
)

// =============================================================================
// DEMO CONFIGURATION
// =============================================================================

const (
	keyDir           = "keys"
	provingKeyFile   = "keys/withdraw.pk"
	verifyingKeyFile = "keys/withdraw.vk"
)

// Denomination of the demo pool: 1e18 base units (one whole coin).
var denomination = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Demo participants, identified by field elements standing in for addresses.
var (
	aliceAddr   = big.NewInt(0xa11ce)
	bobAddr     = big.NewInt(0xb0b)
	relayerAddr = big.NewInt(0x4e1a)
	relayerFee  = big.NewInt(1e15)
)

// =============================================================================
// DEMO SCENARIO
// =============================================================================

func main() {
	fmt.Println("=== Fixed-Denomination Mixer Pool ===")

	// Step 1: Compile the withdrawal circuit and set up Groth16 keys.
	fmt.Println("\n1. Compiling withdrawal circuit...")
	start := time.Now()
	ccs, err := withdraw.Compile(mixer.DefaultMerkleTreeHeight)
	if err != nil {
		fail("circuit compilation failed: %v", err)
	}
	fmt.Printf("Circuit compiled in %v (%d constraints)\n", time.Since(start), ccs.GetNbConstraints())

	if err := os.MkdirAll(keyDir, 0755); err != nil {
		fail("failed to create key directory: %v", err)
	}
	fmt.Println("\n2. Loading or generating proving/verifying keys...")
	pk, vk, err := withdraw.SetupOrLoadKeys(ccs, provingKeyFile, verifyingKeyFile)
	if err != nil {
		fail("key setup failed: %v", err)
	}

	// Step 3: Construct the pool with its capability implementations.
	fmt.Println("\n3. Constructing pool...")
	book := mixer.NewAccountBook()
	pool, err := mixer.NewPool(mixer.Config{
		Denomination:     denomination,
		MerkleTreeHeight: mixer.DefaultMerkleTreeHeight,
		RootHistorySize:  mixer.DefaultRootHistorySize,
	}, mixer.MimcHasher{}, withdraw.NewGroth16Verifier(vk, mixer.DefaultMerkleTreeHeight), book)
	if err != nil {
		fail("pool construction failed: %v", err)
	}
	fmt.Printf("Pool ready: denomination %s, tree height %d\n",
		denomination.String(), mixer.DefaultMerkleTreeHeight)

	// Step 4: Alice and Bob deposit. Bob's deposit widens the anonymity set;
	// his note stays unspent in this demo.
	fmt.Println("\n4. Depositing notes...")
	aliceNote := mixer.NewNote()
	aliceIndex, err := pool.Deposit(aliceNote.Commitment(), denomination)
	if err != nil {
		fail("deposit failed: %v", err)
	}
	fmt.Printf("Alice deposited, leaf index %d\n", aliceIndex)

	bobNote := mixer.NewNote()
	if _, err := pool.Deposit(bobNote.Commitment(), denomination); err != nil {
		fail("deposit failed: %v", err)
	}
	fmt.Printf("Bob deposited, pool now holds %d notes, custody %s\n",
		pool.LeafCount(), book.Custody().String())

	// Step 5: Alice proves ownership of a note and withdraws via the relayer.
	// The proof binds the recipient, relayer and fee so neither can be swapped
	// after the fact.
	fmt.Println("\n5. Proving withdrawal...")
	root := pool.CurrentRoot()
	pathElements, err := pool.MerklePath(aliceIndex)
	if err != nil {
		fail("merkle path failed: %v", err)
	}

	start = time.Now()
	proof, err := withdraw.Prove(ccs, pk, withdraw.BuildWitness(
		aliceNote.Nullifier, aliceNote.Secret, root, pathElements,
		aliceIndex, aliceNote.NullifierHash(), aliceAddr, relayerAddr, relayerFee))
	if err != nil {
		fail("proving failed: %v", err)
	}
	fmt.Printf("Proof generated in %v\n", time.Since(start))

	fmt.Println("\n6. Submitting withdrawal...")
	err = pool.Withdraw(proof, root, aliceNote.NullifierHash(),
		aliceAddr, relayerAddr, relayerFee)
	if err != nil {
		fail("withdrawal rejected: %v", err)
	}
	fmt.Printf("Withdrawal accepted\n")
	fmt.Printf("Alice received:   %s\n", book.BalanceOf(aliceAddr).String())
	fmt.Printf("Relayer received: %s\n", book.BalanceOf(relayerAddr).String())
	fmt.Printf("Pool custody:     %s\n", book.Custody().String())

	// Step 7: The nullifier hash is now burned; a replay must fail.
	fmt.Println("\n7. Attempting double spend...")
	err = pool.Withdraw(proof, root, aliceNote.NullifierHash(),
		aliceAddr, relayerAddr, relayerFee)
	fmt.Printf("Replay rejected as expected: %v\n", err)

	fmt.Println("\n8. Event log:")
	for _, ev := range pool.Events().Events() {
		switch e := ev.Data.(type) {
		case mixer.DepositEvent:
			fmt.Printf("  deposit    leaf=%d commitment=%s...\n", e.LeafIndex, e.Commitment.String()[:16])
		case mixer.WithdrawalEvent:
			fmt.Printf("  withdrawal nullifierHash=%s... fee=%s\n", e.NullifierHash.String()[:16], e.Fee.String())
		}
	}

	fmt.Println("\n=== Demo complete ===")
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
