// Package graph builds the workspace dependency DAG and computes a
// safe build order.
package graph

import (
	"fmt"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/errs"
)

// Graph is the workspace dependency graph. Vertices are workspace
// project names; an edge A -> B means A depends on B. Only
// workspace-class dependencies contribute edges.
type Graph struct {
	order []string            // workspace list order, the tie-breaker
	edges map[string][]string // project -> workspace deps, config order
	index map[string]int      // project -> position in order
}

// Build walks each project's configuration once and extracts
// workspace-dependency edges. Dependencies naming projects outside
// the workspace are reported through warn and skipped; a project
// whose config cannot be loaded contributes no edges.
func Build(ws *config.Workspace, load func(name string) (*config.Project, error), warn func(string)) *Graph {
	if warn == nil {
		warn = func(string) {}
	}
	g := &Graph{
		order: ws.Projects,
		edges: make(map[string][]string, len(ws.Projects)),
		index: make(map[string]int, len(ws.Projects)),
	}
	for i, name := range ws.Projects {
		g.index[name] = i
	}
	for _, name := range ws.Projects {
		proj, err := load(name)
		if err != nil {
			warn(fmt.Sprintf("could not load config for %s: %v", name, err))
			g.edges[name] = nil
			continue
		}
		var deps []string
		for _, dep := range proj.Dependencies.Workspace {
			if _, ok := g.index[dep.Name]; !ok {
				warn(fmt.Sprintf("%s depends on %q which is not in the workspace", name, dep.Name))
				continue
			}
			deps = append(deps, dep.Name)
		}
		g.edges[name] = deps
	}
	return g
}

// Deps returns the workspace dependencies of a project.
func (g *Graph) Deps(name string) []string { return g.edges[name] }

// Projects returns all vertices in workspace list order.
func (g *Graph) Projects() []string { return g.order }

// DFS colors.
const (
	white = iota // unvisited
	gray         // in stack
	black        // done
)

type frame struct {
	node string
	next int // index of the next dependency to visit
}

// ResolveOrder returns a topological order of roots plus their
// transitive dependencies: every project appears after everything it
// depends on. Independent projects keep their workspace list order.
// A cycle is fatal and carries the offending path.
func (g *Graph) ResolveOrder(roots []string) ([]string, error) {
	color := make(map[string]int, len(g.order))
	var result []string

	// Explicit stack instead of recursion; workspaces can be large.
	visit := func(root string) error {
		if color[root] != white {
			return nil
		}
		stack := []frame{{node: root}}
		color[root] = gray
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.edges[top.node]
			if top.next < len(deps) {
				dep := deps[top.next]
				top.next++
				switch color[dep] {
				case white:
					color[dep] = gray
					stack = append(stack, frame{node: dep})
				case gray:
					return &errs.CycleError{Cycle: cyclePath(stack, dep)}
				}
				continue
			}
			color[top.node] = black
			result = append(result, top.node)
			stack = stack[:len(stack)-1]
		}
		return nil
	}

	for _, root := range sortByWorkspace(g.index, roots) {
		if _, ok := g.index[root]; !ok {
			return nil, &errs.ConfigError{Reason: fmt.Sprintf("project %q is not in the workspace", root)}
		}
		if err := visit(root); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// cyclePath reconstructs the cycle from the recursion stack: the
// segment from the repeated vertex to the stack top, closed with the
// repeated vertex again.
func cyclePath(stack []frame, repeat string) []string {
	start := 0
	for i, f := range stack {
		if f.node == repeat {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, f.node)
	}
	return append(path, repeat)
}

// sortByWorkspace orders names by their workspace list position so
// tie-breaking among independent roots is deterministic and user
// controllable. Names outside the workspace keep their given order at
// the end; ResolveOrder rejects them.
func sortByWorkspace(index map[string]int, names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && pos(index, out[j]) < pos(index, out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func pos(index map[string]int, name string) int {
	if i, ok := index[name]; ok {
		return i
	}
	return int(^uint(0) >> 1)
}
