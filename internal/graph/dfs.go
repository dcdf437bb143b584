package graph

import "sort"

// HasCycle detects cycles with a depth-first search over the dependency
// edges, tracking a visited set and the current recursion stack. A node
// found on the recursion stack closes a cycle. O(V+E).
func (g *Graph) HasCycle() bool {
	return g.FindCycle() != nil
}

// FindCycle returns one cycle as an ordered path with the starting node
// repeated at the end (e.g. [A, B, A]), or nil if the graph is acyclic.
func (g *Graph) FindCycle() []string {
	visited := make(map[string]bool)
	inStack := make(map[string]bool)

	// Sorted start order keeps the reported cycle deterministic.
	names := g.AllNodes()
	sort.Strings(names)

	for _, name := range names {
		if visited[name] {
			continue
		}
		if path := g.dfsCycle(name, visited, inStack, []string{}); path != nil {
			return path
		}
	}
	return nil
}

// dfsCycle walks children of node, carrying the current path. Returns the
// cycle path when node is already on the recursion stack.
func (g *Graph) dfsCycle(node string, visited, inStack map[string]bool, path []string) []string {
	visited[node] = true
	inStack[node] = true
	path = append(path, node)

	children := append([]string(nil), g.children[node]...)
	sort.Strings(children)

	for _, child := range children {
		if inStack[child] {
			// Trim the path back to where the cycle starts.
			start := 0
			for i, n := range path {
				if n == child {
					start = i
					break
				}
			}
			cycle := append([]string(nil), path[start:]...)
			return append(cycle, child)
		}
		if visited[child] {
			continue
		}
		if found := g.dfsCycle(child, visited, inStack, path); found != nil {
			return found
		}
	}

	inStack[node] = false
	return nil
}
