package merkletree_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RenKoya1/tornado/internal/merkletree"
	"github.com/RenKoya1/tornado/internal/mixer"
)

func newTree(t *testing.T, height, history int) *merkletree.Tree {
	t.Helper()
	tree, err := merkletree.New(height, history, mixer.MimcHasher{})
	require.NoError(t, err)
	return tree
}

func TestNewValidation(t *testing.T) {
	_, err := merkletree.New(0, 4, mixer.MimcHasher{})
	require.ErrorIs(t, err, merkletree.ErrInvalidHeight)

	_, err = merkletree.New(33, 4, mixer.MimcHasher{})
	require.ErrorIs(t, err, merkletree.ErrInvalidHeight)

	_, err = merkletree.New(4, 0, mixer.MimcHasher{})
	require.ErrorIs(t, err, merkletree.ErrInvalidHistorySize)
}

func TestEmptyTreeRoot(t *testing.T) {
	a := newTree(t, 4, 4)
	b := newTree(t, 4, 4)

	// Deterministic across instances and nonzero.
	require.Equal(t, 0, a.CurrentRoot().Cmp(b.CurrentRoot()))
	require.NotEqual(t, 0, a.CurrentRoot().Sign())
	require.True(t, a.IsKnownRoot(a.CurrentRoot()))
}

func TestInsertAssignsIncreasingIndices(t *testing.T) {
	tree := newTree(t, 4, 4)
	for i := uint64(0); i < 8; i++ {
		idx, err := tree.Insert(big.NewInt(int64(1000 + i)))
		require.NoError(t, err)
		require.Equal(t, i, idx)
	}
	require.Equal(t, uint64(8), tree.LeafCount())
}

func TestInsertChangesRoot(t *testing.T) {
	tree := newTree(t, 4, 4)
	before := tree.CurrentRoot()
	_, err := tree.Insert(big.NewInt(42))
	require.NoError(t, err)
	require.NotEqual(t, 0, before.Cmp(tree.CurrentRoot()))
}

func TestCapacity(t *testing.T) {
	tree := newTree(t, 2, 4)
	for i := 0; i < 4; i++ {
		_, err := tree.Insert(big.NewInt(int64(i + 1)))
		require.NoError(t, err)
	}
	_, err := tree.Insert(big.NewInt(99))
	require.ErrorIs(t, err, merkletree.ErrTreeFull)
	require.Equal(t, uint64(4), tree.LeafCount())
}

func TestRootHistoryWindow(t *testing.T) {
	const history = 3
	tree := newTree(t, 4, history)

	_, err := tree.Insert(big.NewInt(1))
	require.NoError(t, err)
	r1 := tree.CurrentRoot()

	// r1 stays known until `history` further roots push it out of the ring.
	for i := 0; i < history; i++ {
		require.True(t, tree.IsKnownRoot(r1), "root evicted after %d inserts", i)
		_, err := tree.Insert(big.NewInt(int64(10 + i)))
		require.NoError(t, err)
	}
	require.False(t, tree.IsKnownRoot(r1))
	require.True(t, tree.IsKnownRoot(tree.CurrentRoot()))
}

func TestZeroRootNeverKnown(t *testing.T) {
	tree := newTree(t, 4, 4)
	require.False(t, tree.IsKnownRoot(new(big.Int)))
	require.False(t, tree.IsKnownRoot(nil))
	require.False(t, tree.IsKnownRoot(big.NewInt(123456)))
}

func TestPathReconstructsRoot(t *testing.T) {
	hasher := mixer.MimcHasher{}
	tree := newTree(t, 4, 4)

	leaves := []*big.Int{big.NewInt(11), big.NewInt(22), big.NewInt(33)}
	for _, l := range leaves {
		_, err := tree.Insert(l)
		require.NoError(t, err)
	}

	for index, leaf := range leaves {
		siblings, err := tree.Path(uint64(index))
		require.NoError(t, err)
		require.Len(t, siblings, 4)

		cur := new(big.Int).Set(leaf)
		idx := uint64(index)
		for _, sib := range siblings {
			if idx%2 == 0 {
				cur = hasher.Hash(cur, sib)
			} else {
				cur = hasher.Hash(sib, cur)
			}
			idx /= 2
		}
		require.Equal(t, 0, cur.Cmp(tree.CurrentRoot()))
	}

	_, err := tree.Path(99)
	require.Error(t, err)
}
