package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

// buildStoreGraph models the store dependency rules: mysql owns canonical
// IDs, mongo and redis need them, vector needs mongo and redis output.
func buildStoreGraph() *Graph {
	g := New()
	g.AddEdge("mysql", "mongo")
	g.AddEdge("mysql", "redis")
	g.AddEdge("mongo", "vector")
	g.AddEdge("redis", "vector")
	return g
}

func buildCyclicGraph() *Graph {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")
	return g
}

// ============================================================================
// Structure
// ============================================================================

func TestGraph_Structure(t *testing.T) {
	g := buildStoreGraph()

	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 4, g.EdgeCount())
	assert.True(t, g.HasNode("mysql"))
	assert.False(t, g.HasNode("postgres"))
	assert.ElementsMatch(t, []string{"mongo", "redis"}, g.Children("mysql"))
	assert.ElementsMatch(t, []string{"mongo", "redis"}, g.Parents("vector"))
	assert.Equal(t, 0, g.InDegree("mysql"))
	assert.Equal(t, 2, g.InDegree("vector"))
}

func TestGraph_AddNodeIdempotent(t *testing.T) {
	g := New()
	g.AddNode("mysql")
	g.AddNode("mysql")
	assert.Equal(t, 1, g.NodeCount())
}

// ============================================================================
// Topological sort (Kahn)
// ============================================================================

func TestTopologicalSort_StoreOrder(t *testing.T) {
	g := buildStoreGraph()

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, order, 4)

	pos := make(map[string]int)
	for i, name := range order {
		pos[name] = i
	}
	assert.Less(t, pos["mysql"], pos["mongo"])
	assert.Less(t, pos["mysql"], pos["redis"])
	assert.Less(t, pos["mongo"], pos["vector"])
	assert.Less(t, pos["redis"], pos["vector"])
}

func TestTopologicalSort_Deterministic(t *testing.T) {
	g := buildStoreGraph()

	first, err := g.TopologicalSort()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := g.TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestTopologicalSort_SingleNode(t *testing.T) {
	g := New()
	g.AddNode("only")

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, order)
}

func TestTopologicalSort_CycleReturnsCycleError(t *testing.T) {
	g := buildCyclicGraph()

	order, err := g.TopologicalSort()
	assert.Nil(t, order)
	require.Error(t, err)

	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.True(t, errors.Is(err, ErrCycleDetected))
	assert.Equal(t, 3, cycleErr.Info.TotalNodes)
	assert.Equal(t, 0, cycleErr.Info.ProcessedNodes)
	assert.Len(t, cycleErr.Info.UnprocessedNodes, 3)
	assert.NotEmpty(t, cycleErr.Info.CyclePath)
}

func TestTopologicalSort_NodeBlockedByCycle(t *testing.T) {
	g := buildCyclicGraph()
	g.AddEdge("c", "d") // d is not in the cycle but can never be ordered

	_, err := g.TopologicalSort()
	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Contains(t, cycleErr.Info.UnprocessedNodes, "d")
}

// ============================================================================
// Levels
// ============================================================================

func TestLevels_StoreStages(t *testing.T) {
	g := buildStoreGraph()

	levels, err := g.Levels()
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, []string{"mysql"}, levels[0])
	assert.Equal(t, []string{"mongo", "redis"}, levels[1])
	assert.Equal(t, []string{"vector"}, levels[2])
}

func TestLevels_NoEdges(t *testing.T) {
	g := New()
	g.AddNode("b")
	g.AddNode("a")

	levels, err := g.Levels()
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, []string{"a", "b"}, levels[0])
}

func TestLevels_Cycle(t *testing.T) {
	g := buildCyclicGraph()
	_, err := g.Levels()
	assert.True(t, errors.Is(err, ErrCycleDetected))
}

// ============================================================================
// DFS cycle detection (visited + recursion stack)
// ============================================================================

func TestHasCycle(t *testing.T) {
	assert.False(t, buildStoreGraph().HasCycle())
	assert.True(t, buildCyclicGraph().HasCycle())
}

func TestFindCycle_ReturnsClosedPath(t *testing.T) {
	g := buildCyclicGraph()

	path := g.FindCycle()
	require.NotNil(t, path)
	require.GreaterOrEqual(t, len(path), 4)
	assert.Equal(t, path[0], path[len(path)-1])
}

func TestFindCycle_SelfLoop(t *testing.T) {
	g := New()
	g.AddEdge("a", "a")

	path := g.FindCycle()
	assert.Equal(t, []string{"a", "a"}, path)
}

func TestFindCycle_TwoNodeCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")

	path := g.FindCycle()
	require.NotNil(t, path)
	assert.Len(t, path, 3)
}

func TestFindCycle_DiamondIsAcyclic(t *testing.T) {
	// Shared dependencies are not cycles.
	g := buildStoreGraph()
	assert.Nil(t, g.FindCycle())
}

func TestValidate(t *testing.T) {
	require.NoError(t, buildStoreGraph().Validate())

	err := buildCyclicGraph().Validate()
	require.Error(t, err)
	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Contains(t, err.Error(), "cycle detected")
}
