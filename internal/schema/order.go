package schema

import (
	"fmt"
	"sort"
	"strings"
)

// CycleError reports steps of one migration that reference each other, so no
// creation order can satisfy their foreign keys.
type CycleError struct {
	Migration string
	Path      []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("migration %s: dependency cycle %s", e.Migration, strings.Join(e.Path, " → "))
}

// ProvisionOrder returns the steps of m in the order they must be applied.
//
// Steps are grouped by dependency depth (see package doc) and keep
// declaration order within a depth. Returns a *CycleError when steps
// reference each other in a loop.
func ProvisionOrder(m Migration) ([]Table, error) {
	graph := buildStepGraph(m)

	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 {
			return nil, &CycleError{Migration: m.Name, Path: cyclePath(scc, graph, m)}
		}
	}

	depth := stepDepths(m, graph)

	idx := make([]int, len(m.Tables))
	for i := range m.Tables {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return depth[idx[a]] < depth[idx[b]]
	})

	ordered := make([]Table, len(idx))
	for i, j := range idx {
		ordered[i] = m.Tables[j]
	}
	return ordered, nil
}

// TeardownOrder returns the exact reverse of ProvisionOrder.
func TeardownOrder(m Migration) ([]Table, error) {
	ordered, err := ProvisionOrder(m)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	return ordered, nil
}

// Depths returns the dependency depth of every step keyed by Table.Key.
func Depths(m Migration) (map[string]int, error) {
	graph := buildStepGraph(m)
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 {
			return nil, &CycleError{Migration: m.Name, Path: cyclePath(scc, graph, m)}
		}
	}
	depth := stepDepths(m, graph)
	byKey := make(map[string]int, len(m.Tables))
	for i, t := range m.Tables {
		byKey[t.Key()] = depth[i]
	}
	return byKey, nil
}

// stepDepths computes the depth of every step. The graph must be acyclic.
func stepDepths(m Migration, graph stepGraph) []int {
	depth := make([]int, len(m.Tables))
	done := make([]bool, len(m.Tables))
	var visit func(i int) int
	visit = func(i int) int {
		if done[i] {
			return depth[i]
		}
		d := 0
		if len(m.Tables[i].References()) > 0 {
			// Pre-existing tables sit at depth 0, so any reference puts the
			// step at least one level down.
			d = 1
		}
		for _, j := range graph.edges[i] {
			if dj := visit(j) + 1; dj > d {
				d = dj
			}
		}
		depth[i], done[i] = d, true
		return d
	}
	for i := range m.Tables {
		visit(i)
	}
	return depth
}

// stepGraph links each step (by index) to the steps of the same migration it
// depends on.
type stepGraph struct {
	edges [][]int
	index map[string]int
}

func buildStepGraph(m Migration) stepGraph {
	creators := make(map[string]int)
	for i, t := range m.Tables {
		if t.Kind == KindCreate {
			if _, dup := creators[t.Name]; !dup {
				creators[t.Name] = i
			}
		}
	}

	g := stepGraph{
		edges: make([][]int, len(m.Tables)),
		index: make(map[string]int, len(m.Tables)),
	}
	for i, t := range m.Tables {
		g.index[t.Key()] = i
		for _, ref := range t.References() {
			if j, ok := creators[ref]; ok && j != i {
				g.edges[i] = append(g.edges[i], j)
			}
		}
	}
	return g
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in declaration order so results are deterministic.
func tarjanSCC(g stepGraph) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for node := range g.edges {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath walks edges inside the SCC from its lowest-index member until it
// returns to the start.
func cyclePath(scc []int, g stepGraph, m Migration) []string {
	members := make(map[int]bool, len(scc))
	start := scc[0]
	for _, n := range scc {
		members[n] = true
		if n < start {
			start = n
		}
	}

	path := []string{m.Tables[start].Key()}
	visited := map[int]bool{start: true}
	current := start
	for {
		next := -1
		for _, w := range g.edges[current] {
			if members[w] && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next == -1 {
			break
		}
		path = append(path, m.Tables[next].Key())
		if next == start {
			break
		}
		visited[next] = true
		current = next
	}
	return path
}
