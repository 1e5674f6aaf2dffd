package graph

import "slices"

type cycleDetector struct {
	graph   *Graph
	index   int
	stack   []string
	onStack map[string]bool
	indices map[string]int
	lowlink map[string]int
	sccs    [][]string
}

// Cycles returns the strongly connected components that form cycles,
// including single nodes that depend on themselves.
func (g *Graph) Cycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.cycles()
}

func (g *Graph) cycles() [][]string {
	d := &cycleDetector{
		graph:   g,
		onStack: make(map[string]bool),
		indices: make(map[string]int),
		lowlink: make(map[string]int),
	}

	for _, id := range g.order {
		if _, visited := d.indices[id]; !visited {
			d.strongConnect(id)
		}
	}

	var cycles [][]string
	for _, scc := range d.sccs {
		if len(scc) > 1 || slices.Contains(g.nodes[scc[0]].Dependencies, scc[0]) {
			slices.Reverse(scc)
			cycles = append(cycles, scc)
		}
	}
	return cycles
}

func (d *cycleDetector) strongConnect(id string) {
	d.indices[id] = d.index
	d.lowlink[id] = d.index
	d.index++
	d.stack = append(d.stack, id)
	d.onStack[id] = true

	for _, dep := range d.graph.nodes[id].Dependencies {
		if _, exists := d.graph.nodes[dep]; !exists {
			continue
		}

		if _, visited := d.indices[dep]; !visited {
			d.strongConnect(dep)
			d.lowlink[id] = min(d.lowlink[id], d.lowlink[dep])
		} else if d.onStack[dep] {
			d.lowlink[id] = min(d.lowlink[id], d.indices[dep])
		}
	}

	if d.lowlink[id] == d.indices[id] {
		var scc []string
		for {
			n := len(d.stack) - 1
			w := d.stack[n]
			d.stack = d.stack[:n]
			d.onStack[w] = false
			scc = append(scc, w)
			if w == id {
				break
			}
		}
		d.sccs = append(d.sccs, scc)
	}
}

func (g *Graph) HasCycle() bool {
	return len(g.Cycles()) > 0
}

// CyclePath returns a closed path from start back to itself, or nil when
// start is not on a cycle.
func (g *Graph) CyclePath(start string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[string]bool)
	var path []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		path = append(path, id)
		for _, dep := range g.nodes[id].Dependencies {
			if dep == start {
				path = append(path, dep)
				return true
			}
			if _, exists := g.nodes[dep]; !exists || visited[dep] {
				continue
			}
			visited[dep] = true
			if dfs(dep) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}

	if _, exists := g.nodes[start]; !exists {
		return nil
	}
	visited[start] = true
	if dfs(start) {
		return path
	}
	return nil
}
