// Package graph provides dependency graph structures and algorithms for
// polyseed. Nodes are named units (stores in an execution plan, seed
// versions in the migration runner); edges point from a dependency to the
// nodes that require it.
package graph

// Graph represents a directed dependency structure.
type Graph struct {
	nodes    map[string]bool
	children map[string][]string // node -> nodes that depend on it (outgoing)
	parents  map[string][]string // node -> nodes it depends on (incoming)
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]bool),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode registers a node. Adding the same node twice is a no-op.
func (g *Graph) AddNode(name string) {
	g.nodes[name] = true
}

// AddEdge records that `dependent` requires `dependency`. Both endpoints
// are registered implicitly.
func (g *Graph) AddEdge(dependency, dependent string) {
	g.AddNode(dependency)
	g.AddNode(dependent)
	g.children[dependency] = append(g.children[dependency], dependent)
	g.parents[dependent] = append(g.parents[dependent], dependency)
}

// Children returns the nodes that directly depend on the given node.
func (g *Graph) Children(name string) []string {
	return g.children[name]
}

// Parents returns the direct dependencies of the given node.
func (g *Graph) Parents(name string) []string {
	return g.parents[name]
}

// HasNode reports whether the graph contains the named node.
func (g *Graph) HasNode(name string) bool {
	return g.nodes[name]
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.children {
		count += len(children)
	}
	return count
}

// AllNodes returns all node names in unspecified order.
func (g *Graph) AllNodes() []string {
	nodes := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		nodes = append(nodes, name)
	}
	return nodes
}

// InDegree returns the number of dependencies of a node.
func (g *Graph) InDegree(name string) int {
	return len(g.parents[name])
}
