package graph

import (
	"container/list"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCycleDetected is returned when the dependency graph contains a cycle,
// making topological ordering impossible.
var ErrCycleDetected = errors.New("cycle detected in dependency graph")

// CycleInfo describes incomplete processing caused by a cycle.
type CycleInfo struct {
	TotalNodes       int      // Total number of nodes in the graph
	ProcessedNodes   int      // Number of nodes successfully ordered
	UnprocessedNodes []string // Nodes blocked by or participating in the cycle
	CyclePath        []string // Ordered path showing one cycle (e.g. [A, B, A])
}

// CycleError is the error type raised for invalid dependency graphs.
// It satisfies errors.Is(err, ErrCycleDetected).
type CycleError struct {
	Info *CycleInfo
}

func (e *CycleError) Error() string {
	msg := fmt.Sprintf("cycle detected in dependency graph: %d of %d nodes could not be ordered",
		len(e.Info.UnprocessedNodes), e.Info.TotalNodes)
	if len(e.Info.CyclePath) > 0 {
		msg += fmt.Sprintf(" (cycle: %s)", strings.Join(e.Info.CyclePath, " -> "))
	}
	return msg
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// calculateInDegrees computes the number of incoming edges for each node.
// This is the first step of Kahn's algorithm.
func (g *Graph) calculateInDegrees() map[string]int {
	inDegree := make(map[string]int)
	for name := range g.nodes {
		inDegree[name] = 0
	}
	for _, children := range g.children {
		for _, child := range children {
			inDegree[child]++
		}
	}
	return inDegree
}

// zeroInDegree returns nodes with no unsatisfied dependencies, sorted for
// deterministic output.
func zeroInDegree(inDegree map[string]int) []string {
	var nodes []string
	for name, degree := range inDegree {
		if degree == 0 {
			nodes = append(nodes, name)
		}
	}
	sort.Strings(nodes)
	return nodes
}

// TopologicalSort returns nodes in dependency order (dependencies first)
// using Kahn's algorithm. Returns a CycleError if the graph has a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := g.calculateInDegrees()

	queue := list.New()
	for _, name := range zeroInDegree(inDegree) {
		queue.PushBack(name)
	}

	var result []string
	for queue.Len() > 0 {
		elem := queue.Front()
		queue.Remove(elem)
		node := elem.Value.(string)
		result = append(result, node)

		// Sorted for deterministic ordering across runs.
		ready := make([]string, 0)
		for _, child := range g.children[node] {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, child)
			}
		}
		sort.Strings(ready)
		for _, child := range ready {
			queue.PushBack(child)
		}
	}

	if len(result) != len(g.nodes) {
		return nil, &CycleError{Info: g.cycleInfo(result)}
	}
	return result, nil
}

// Levels groups nodes into dependency stages: stage 0 has no dependencies,
// stage N depends only on stages < N. Nodes within a stage are sorted.
// Returns a CycleError if the graph has a cycle.
func (g *Graph) Levels() ([][]string, error) {
	if _, err := g.TopologicalSort(); err != nil {
		return nil, err
	}

	depth := make(map[string]int)
	var walk func(name string) int
	walk = func(name string) int {
		if d, ok := depth[name]; ok {
			return d
		}
		max := 0
		for _, parent := range g.parents[name] {
			if d := walk(parent) + 1; d > max {
				max = d
			}
		}
		depth[name] = max
		return max
	}

	maxDepth := 0
	for name := range g.nodes {
		if d := walk(name); d > maxDepth {
			maxDepth = d
		}
	}

	levels := make([][]string, maxDepth+1)
	for name, d := range depth {
		levels[d] = append(levels[d], name)
	}
	for _, level := range levels {
		sort.Strings(level)
	}
	return levels, nil
}

// Validate checks the graph for cycles without producing an ordering.
// Returns a CycleError describing the cycle, nil otherwise.
func (g *Graph) Validate() error {
	if path := g.FindCycle(); path != nil {
		processed := make(map[string]bool)
		order, _ := g.partialOrder()
		for _, n := range order {
			processed[n] = true
		}
		var unprocessed []string
		for name := range g.nodes {
			if !processed[name] {
				unprocessed = append(unprocessed, name)
			}
		}
		sort.Strings(unprocessed)
		return &CycleError{Info: &CycleInfo{
			TotalNodes:       len(g.nodes),
			ProcessedNodes:   len(processed),
			UnprocessedNodes: unprocessed,
			CyclePath:        path,
		}}
	}
	return nil
}

// partialOrder runs Kahn's algorithm and returns whatever ordering was
// reachable, without failing on cycles.
func (g *Graph) partialOrder() ([]string, bool) {
	inDegree := g.calculateInDegrees()
	queue := list.New()
	for _, name := range zeroInDegree(inDegree) {
		queue.PushBack(name)
	}

	var result []string
	for queue.Len() > 0 {
		elem := queue.Front()
		queue.Remove(elem)
		node := elem.Value.(string)
		result = append(result, node)
		for _, child := range g.children[node] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue.PushBack(child)
			}
		}
	}
	return result, len(result) == len(g.nodes)
}

// cycleInfo builds diagnostic information after an incomplete Kahn pass.
func (g *Graph) cycleInfo(processedOrder []string) *CycleInfo {
	processed := make(map[string]bool)
	for _, n := range processedOrder {
		processed[n] = true
	}

	var unprocessed []string
	for name := range g.nodes {
		if !processed[name] {
			unprocessed = append(unprocessed, name)
		}
	}
	sort.Strings(unprocessed)

	return &CycleInfo{
		TotalNodes:       len(g.nodes),
		ProcessedNodes:   len(processed),
		UnprocessedNodes: unprocessed,
		CyclePath:        g.FindCycle(),
	}
}
