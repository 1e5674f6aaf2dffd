package quill

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danpasecinic/quill/internal/container"
	"github.com/danpasecinic/quill/internal/graph"
	"github.com/danpasecinic/quill/internal/kind"
	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

type GraphInfo struct {
	Contracts []ContractInfo `json:"contracts"`
	Missing   []string       `json:"missing,omitempty"`
	Cycles    [][]string     `json:"cycles,omitempty"`
}

type ContractInfo struct {
	Key          string   `json:"key"`
	Providers    []string `json:"providers"`
	Dependencies []string `json:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty"`
	Instantiated bool     `json:"instantiated"`
	Conditional  bool     `json:"conditional,omitempty"`
}

// Graph describes the static dependency graph of the registered bindings.
// Contracts are listed leaves first when the graph is acyclic.
func (c *Container) Graph() GraphInfo {
	g, flags := c.buildGraph()

	keys, err := g.TopologicalSort()
	if err != nil {
		keys = g.Nodes()
	}

	contracts := make([]ContractInfo, 0, len(keys))
	for _, key := range keys {
		node, _ := g.Node(key)
		contracts = append(
			contracts, ContractInfo{
				Key:          key,
				Providers:    node.Labels,
				Dependencies: node.Dependencies,
				Dependents:   g.Dependents(key),
				Instantiated: flags[key].instantiated,
				Conditional:  flags[key].conditional,
			},
		)
	}

	return GraphInfo{
		Contracts: contracts,
		Missing:   g.Missing(),
		Cycles:    g.Cycles(),
	}
}

// ResolutionOrder lists the contracts resolving key would touch, leaves
// first.
func (c *Container) ResolutionOrder(key string) ([]string, error) {
	g, _ := c.buildGraph()
	return g.ResolutionOrder(key)
}

type nodeFlags struct {
	instantiated bool
	conditional  bool
}

func (c *Container) buildGraph() (*graph.Graph, map[string]nodeFlags) {
	g := graph.New()
	flags := make(map[string]nodeFlags)

	for _, b := range c.internal.Bindings() {
		key := b.ID.String()

		var deps []string
		for _, ctx := range c.internal.Dependencies(b.Provider) {
			dep, bound := c.dependencyKey(ctx)
			if ctx.Optional && !bound {
				continue
			}
			deps = append(deps, dep)
		}
		g.AddNode(key, providerLabel(b.Provider), deps)

		f := flags[key]
		f.instantiated = f.instantiated || b.Provider.Instantiated() || b.Provider.Kind() == kind.Instance
		f.conditional = f.conditional || b.Conditional
		flags[key] = f
	}

	return g, flags
}

// dependencyKey maps a member to the contract that would satisfy it. Slice
// members with no binding of their own are satisfied by their element type.
func (c *Container) dependencyKey(ctx InjectContext) (string, bool) {
	id := ctx.BindingID()
	if c.internal.Has(id) {
		return id.String(), true
	}
	if elem, ok := qreflect.SliceElem(ctx.MemberType); ok {
		sub := ctx.ChangeMemberType(elem).BindingID()
		return sub.String(), c.internal.Has(sub)
	}
	return id.String(), false
}

func providerLabel(p *container.Provider) string {
	if target, ok := p.LookupTarget(); ok {
		return "lookup " + target.String()
	}
	if t := p.ConcreteType(); t != nil {
		return p.Kind().String() + " " + qreflect.Name(t)
	}
	return p.Kind().String()
}

func (c *Container) PrintGraph() {
	c.FprintGraph(os.Stdout)
}

func (c *Container) FprintGraph(w io.Writer) {
	info := c.Graph()

	if len(info.Contracts) == 0 {
		_, _ = fmt.Fprintln(w, "(empty container)")
		return
	}

	for _, svc := range info.Contracts {
		status := "○"
		if svc.Instantiated {
			status = "●"
		}

		line := fmt.Sprintf("%s %s [%s]", status, svc.Key, strings.Join(svc.Providers, "; "))
		if svc.Conditional {
			line += " (conditional)"
		}
		if len(svc.Dependencies) > 0 {
			line += " ← " + strings.Join(svc.Dependencies, ", ")
		}
		_, _ = fmt.Fprintln(w, line)
	}

	for _, missing := range info.Missing {
		_, _ = fmt.Fprintf(w, "✗ %s (missing)\n", missing)
	}
	for _, cycle := range info.Cycles {
		_, _ = fmt.Fprintf(w, "↻ %s -> %s\n", strings.Join(cycle, " -> "), cycle[0])
	}
}

func (c *Container) SprintGraph() string {
	var sb strings.Builder
	c.FprintGraph(&sb)
	return sb.String()
}

func (c *Container) PrintGraphDOT() {
	c.FprintGraphDOT(os.Stdout)
}

func (c *Container) FprintGraphDOT(w io.Writer) {
	info := c.Graph()

	_, _ = fmt.Fprintln(w, "digraph dependencies {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")
	_, _ = fmt.Fprintln(w, "  node [shape=box];")

	for _, svc := range info.Contracts {
		style := ""
		if svc.Instantiated {
			style = ", style=filled, fillcolor=lightblue"
		}
		_, _ = fmt.Fprintf(w, "  %q [label=%q%s];\n", svc.Key, escapeLabel(svc.Key), style)
	}
	for _, missing := range info.Missing {
		_, _ = fmt.Fprintf(w, "  %q [label=%q, style=dashed, color=red];\n", missing, escapeLabel(missing))
	}

	_, _ = fmt.Fprintln(w)

	for _, svc := range info.Contracts {
		for _, dep := range svc.Dependencies {
			_, _ = fmt.Fprintf(w, "  %q -> %q;\n", svc.Key, dep)
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}

func (c *Container) SprintGraphDOT() string {
	var sb strings.Builder
	c.FprintGraphDOT(&sb)
	return sb.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	if idx := strings.LastIndex(s, "/"); idx != -1 {
		s = s[idx+1:]
	}
	return s
}
