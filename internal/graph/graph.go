package graph

import (
	"slices"
	"sync"
)

// Node is a contract in the static dependency graph. Dependencies are the
// contracts its providers request.
type Node struct {
	ID           string
	Labels       []string
	Dependencies []string
}

type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	order []string
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
	}
}

// AddNode records a provider for id. A contract bound more than once keeps
// one node whose dependencies are the union of every provider's.
func (g *Graph) AddNode(id, label string, dependencies []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, exists := g.nodes[id]
	if !exists {
		node = &Node{ID: id}
		g.nodes[id] = node
		g.order = append(g.order, id)
	}
	if label != "" {
		node.Labels = append(node.Labels, label)
	}
	for _, dep := range dependencies {
		if !slices.Contains(node.Dependencies, dep) {
			node.Dependencies = append(node.Dependencies, dep)
		}
	}
}

func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.nodes[id]
	return exists
}

func (g *Graph) Node(id string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[id]
	if !exists {
		return Node{}, false
	}
	return Node{
		ID:           node.ID,
		Labels:       slices.Clone(node.Labels),
		Dependencies: slices.Clone(node.Dependencies),
	}, true
}

func (g *Graph) Dependencies(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[id]
	if !exists {
		return nil
	}
	return slices.Clone(node.Dependencies)
}

func (g *Graph) Dependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for _, nodeID := range g.order {
		if slices.Contains(g.nodes[nodeID].Dependencies, id) {
			dependents = append(dependents, nodeID)
		}
	}
	return dependents
}

// Nodes returns node IDs in the order they were first added.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return slices.Clone(g.order)
}

func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// Missing lists dependencies that no node provides, in first-seen order.
func (g *Graph) Missing() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var missing []string
	for _, id := range g.order {
		for _, dep := range g.nodes[id].Dependencies {
			if _, exists := g.nodes[dep]; !exists && !slices.Contains(missing, dep) {
				missing = append(missing, dep)
			}
		}
	}
	return missing
}
