package sumtree

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"tickbook/internal/store"
)

func newTestTree() *Tree {
	return New(store.New(), 1, 0, "ask")
}

func leavesByEtas(t *testing.T, nodes []*Node) []*Node {
	t.Helper()
	var leaves []*Node
	for _, n := range nodes {
		if !n.isInternal() {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

func TestInsertOrderingAndInvariants(t *testing.T) {
	tr := newTestTree()

	type seed struct {
		etas, value int64
	}
	seeds := []seed{
		{1, 5},
		{20, 10},
		{12, 8},
		{30, 8},
		{6, 6},
	}

	for _, s := range seeds {
		require.NoError(t, tr.Insert(math.NewInt(s.etas), math.NewInt(s.value)))
	}

	nodes, err := tr.Traverse()
	require.NoError(t, err)
	require.NotEmpty(t, nodes)

	leaves := leavesByEtas(t, nodes)
	require.Len(t, leaves, len(seeds))
	for i := 1; i < len(leaves); i++ {
		require.True(t, leaves[i-1].Etas.LTE(leaves[i].Etas), "leaves must be ordered ascending by etas")
	}

	total := math.ZeroInt()
	for _, s := range seeds {
		total = total.Add(math.NewInt(s.value))
	}

	root, ok := tr.Root()
	require.True(t, ok)
	require.True(t, root.getValue().Equal(total))

	for _, n := range nodes {
		if !n.isInternal() {
			continue
		}
		bf := tr.BalanceFactor(n)
		require.GreaterOrEqual(t, bf, -1)
		require.LessOrEqual(t, bf, 1)

		var wantWeight uint64
		var left, right *Node
		if n.Left != nil {
			left, _ = tr.load(*n.Left)
			wantWeight += left.getWeight()
		}
		if n.Right != nil {
			right, _ = tr.load(*n.Right)
			wantWeight += right.getWeight()
		}
		require.Equal(t, wantWeight, n.Weight)

		wantAccumulator := math.ZeroInt()
		if left != nil {
			wantAccumulator = wantAccumulator.Add(left.getValue())
		}
		if right != nil {
			wantAccumulator = wantAccumulator.Add(right.getValue())
		}
		require.True(t, n.Accumulator.Equal(wantAccumulator))
	}
}

func TestPrefixSum(t *testing.T) {
	tr := newTestTree()

	require.NoError(t, tr.Insert(math.NewInt(1), math.NewInt(5)))
	require.NoError(t, tr.Insert(math.NewInt(20), math.NewInt(10)))
	require.NoError(t, tr.Insert(math.NewInt(12), math.NewInt(8)))
	require.NoError(t, tr.Insert(math.NewInt(30), math.NewInt(8)))
	require.NoError(t, tr.Insert(math.NewInt(6), math.NewInt(6)))

	cases := []struct {
		target int64
		want   int64
	}{
		{0, 0},
		{1, 0},
		{6, 5},
		{7, 11},
		{12, 11},
		{13, 19},
		{20, 19},
		{21, 29},
		{30, 29},
		{31, 37},
		{1000, 37},
	}

	for _, c := range cases {
		got, err := tr.PrefixSum(math.NewInt(c.target))
		require.NoError(t, err)
		require.Truef(t, got.Equal(math.NewInt(c.want)), "prefix_sum(%d) = %s, want %d", c.target, got, c.want)
	}
}

func TestPrefixSumEmptyTree(t *testing.T) {
	tr := newTestTree()
	got, err := tr.PrefixSum(math.NewInt(100))
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestDeleteLeafPrunesAndResyncs(t *testing.T) {
	tr := newTestTree()

	require.NoError(t, tr.Insert(math.NewInt(1), math.NewInt(5)))
	require.NoError(t, tr.Insert(math.NewInt(20), math.NewInt(10)))
	require.NoError(t, tr.Insert(math.NewInt(12), math.NewInt(8)))

	nodes, err := tr.Traverse()
	require.NoError(t, err)
	var victim *Node
	for _, n := range nodes {
		if !n.isInternal() && n.Etas.Equal(math.NewInt(12)) {
			victim = n
		}
	}
	require.NotNil(t, victim)

	require.NoError(t, tr.Delete(victim.Key))

	remaining, err := tr.Traverse()
	require.NoError(t, err)
	leaves := leavesByEtas(t, remaining)
	require.Len(t, leaves, 2)

	root, ok := tr.Root()
	require.True(t, ok)
	require.True(t, root.getValue().Equal(math.NewInt(15)))

	sum, err := tr.PrefixSum(math.NewInt(1000))
	require.NoError(t, err)
	require.True(t, sum.Equal(math.NewInt(15)))
}

func TestDeleteLastLeafEmptiesTree(t *testing.T) {
	tr := newTestTree()
	require.NoError(t, tr.Insert(math.NewInt(1), math.NewInt(5)))

	root, ok := tr.Root()
	require.True(t, ok)
	require.NoError(t, tr.Delete(root.Key))

	_, ok = tr.Root()
	require.False(t, ok)

	sum, err := tr.PrefixSum(math.NewInt(100))
	require.NoError(t, err)
	require.True(t, sum.IsZero())
}
