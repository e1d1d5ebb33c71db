// merkletree.go - Append-only incremental Merkle accumulator for the mixer.
//
// The tree has a fixed height chosen at construction and supports only
// insertion: leaves are assigned strictly increasing indices and no leaf is
// ever updated or removed. Unfilled positions hold a zero sentinel whose
// subtree hashes are precomputed, so the root of a partially filled tree is
// deterministic across implementations.
//
// Besides the current root, the tree retains the previous rootHistorySize-1
// roots in a ring buffer. Withdrawal proofs may be bound to any retained
// root, tolerating observers that computed their proof a few insertions ago.

package merkletree

import (
	"errors"
	"fmt"
	"math/big"
)

// Hasher combines two field elements into one digest. The mixer package
// provides a MiMC-backed implementation; tests may substitute their own.
type Hasher interface {
	Hash(left, right *big.Int) *big.Int
}

// Tree construction errors.
var (
	ErrInvalidHeight      = errors.New("merkletree: height must be between 1 and 32")
	ErrInvalidHistorySize = errors.New("merkletree: root history size must be at least 1")
	ErrTreeFull           = errors.New("merkletree: tree is full")
)

// Tree is an append-only fixed-height binary hash tree.
// It is not safe for concurrent use; the pool serializes access.
type Tree struct {
	hasher    Hasher
	height    int
	capacity  uint64
	nextIndex uint64

	// levels[0] holds leaves, levels[height] the root. Positions absent
	// from a level are the zero subtree for that level.
	levels []map[uint64]*big.Int

	// zeros[i] is the hash of an all-zero subtree of height i.
	zeros []*big.Int

	// Ring buffer of the most recent roots, roots[rootIndex] newest.
	roots     []*big.Int
	rootIndex int
}

// New creates an empty tree of the given height retaining the last
// rootHistorySize roots. The empty-tree root counts as the first entry of
// the history.
func New(height, rootHistorySize int, hasher Hasher) (*Tree, error) {
	if height < 1 || height > 32 {
		return nil, ErrInvalidHeight
	}
	if rootHistorySize < 1 {
		return nil, ErrInvalidHistorySize
	}

	zeros := make([]*big.Int, height+1)
	zeros[0] = new(big.Int)
	for i := 1; i <= height; i++ {
		zeros[i] = hasher.Hash(zeros[i-1], zeros[i-1])
	}

	levels := make([]map[uint64]*big.Int, height+1)
	for i := range levels {
		levels[i] = make(map[uint64]*big.Int)
	}

	t := &Tree{
		hasher:   hasher,
		height:   height,
		capacity: uint64(1) << uint(height),
		levels:   levels,
		zeros:    zeros,
		roots:    make([]*big.Int, rootHistorySize),
	}
	t.roots[0] = zeros[height]
	return t, nil
}

// Insert appends leaf at the next free index, recomputes the path to the
// root, records the new root in the history and returns the assigned index.
func (t *Tree) Insert(leaf *big.Int) (uint64, error) {
	if t.nextIndex >= t.capacity {
		return 0, ErrTreeFull
	}

	index := t.nextIndex
	t.levels[0][index] = new(big.Int).Set(leaf)

	idx := index
	for lvl := 0; lvl < t.height; lvl++ {
		parent := idx / 2
		left := t.node(lvl, parent*2)
		right := t.node(lvl, parent*2+1)
		t.levels[lvl+1][parent] = t.hasher.Hash(left, right)
		idx = parent
	}

	t.rootIndex = (t.rootIndex + 1) % len(t.roots)
	t.roots[t.rootIndex] = t.levels[t.height][0]
	t.nextIndex++
	return index, nil
}

// node returns the stored hash at (level, idx) or the zero-subtree hash.
func (t *Tree) node(level int, idx uint64) *big.Int {
	if h, ok := t.levels[level][idx]; ok {
		return h
	}
	return t.zeros[level]
}

// CurrentRoot returns the most recent root.
func (t *Tree) CurrentRoot() *big.Int {
	return new(big.Int).Set(t.roots[t.rootIndex])
}

// IsKnownRoot reports whether root is the current root or one of the
// retained previous roots. The zero digest is never known, so a proof
// against an uninitialized root can never validate.
func (t *Tree) IsKnownRoot(root *big.Int) bool {
	if root == nil || root.Sign() == 0 {
		return false
	}
	for i := 0; i < len(t.roots); i++ {
		idx := (t.rootIndex - i + len(t.roots)) % len(t.roots)
		if t.roots[idx] != nil && t.roots[idx].Cmp(root) == 0 {
			return true
		}
	}
	return false
}

// Height returns the tree height fixed at construction.
func (t *Tree) Height() int {
	return t.height
}

// LeafCount returns the number of leaves inserted so far.
func (t *Tree) LeafCount() uint64 {
	return t.nextIndex
}

// Path returns the Merkle authentication path for the leaf at index:
// siblings[i] is the sibling hash at level i, bottom-up. Together with the
// leaf index it reconstructs the current root.
func (t *Tree) Path(index uint64) ([]*big.Int, error) {
	if index >= t.nextIndex {
		return nil, fmt.Errorf("merkletree: no leaf at index %d", index)
	}

	siblings := make([]*big.Int, t.height)
	idx := index
	for lvl := 0; lvl < t.height; lvl++ {
		siblings[lvl] = new(big.Int).Set(t.node(lvl, idx^1))
		idx /= 2
	}
	return siblings, nil
}
