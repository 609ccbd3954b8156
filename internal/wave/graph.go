package wave

import (
	"sort"

	"github.com/kubev2v/migration-wave-planner/internal/inventory"
)

// Graph is the dependency adjacency list of one planning pass. Only edges
// whose endpoints are both in the pass are kept.
type Graph struct {
	nodes        []string
	successors   map[string][]string
	predecessors map[string][]string
}

func NewGraph(vms []inventory.VM) *Graph {
	g := &Graph{
		nodes:        make([]string, 0, len(vms)),
		successors:   make(map[string][]string, len(vms)),
		predecessors: make(map[string][]string, len(vms)),
	}
	known := make(map[string]bool, len(vms))
	for _, vm := range vms {
		known[vm.ID] = true
		g.nodes = append(g.nodes, vm.ID)
	}
	sort.Strings(g.nodes)

	for _, vm := range vms {
		seen := make(map[string]bool, len(vm.DependsOn))
		for _, dep := range vm.DependsOn {
			if !known[dep] || seen[dep] {
				continue
			}
			seen[dep] = true
			g.successors[dep] = append(g.successors[dep], vm.ID)
			g.predecessors[vm.ID] = append(g.predecessors[vm.ID], dep)
		}
	}
	for _, list := range g.successors {
		sort.Strings(list)
	}
	for _, list := range g.predecessors {
		sort.Strings(list)
	}
	return g
}

func (g *Graph) Predecessors(id string) []string {
	return g.predecessors[id]
}

func (g *Graph) Successors(id string) []string {
	return g.successors[id]
}

func (g *Graph) Len() int {
	return len(g.nodes)
}

// DetectCycle returns one cycle as a path that starts and ends on the same VM,
// or nil when the graph is acyclic. The path follows dependency direction:
// each VM is followed by a VM that depends on it.
func (g *Graph) DetectCycle() []string {
	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		color[id] = grey
		stack = append(stack, id)
		for _, next := range g.successors[id] {
			switch color[next] {
			case grey:
				start := len(stack) - 1
				for stack[start] != next {
					start--
				}
				cycle := append([]string(nil), stack[start:]...)
				return append(cycle, next)
			case white:
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for _, id := range g.nodes {
		if color[id] != white {
			continue
		}
		if cycle := visit(id); cycle != nil {
			return cycle
		}
	}
	return nil
}

// TopoOrder returns every VM after all of its predecessors. Among VMs that are
// ready at the same time the order of rank decides, then the id.
func (g *Graph) TopoOrder(rank map[string]int) ([]string, error) {
	if cycle := g.DetectCycle(); cycle != nil {
		return nil, NewErrDependencyCycle(cycle)
	}

	less := func(a, b string) bool {
		if rank[a] != rank[b] {
			return rank[a] < rank[b]
		}
		return a < b
	}

	indegree := make(map[string]int, len(g.nodes))
	var ready []string
	for _, id := range g.nodes {
		indegree[id] = len(g.predecessors[id])
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		id := ready[0]
		ready = ready[1:]
		out = append(out, id)
		for _, next := range g.successors[id] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}
	return out, nil
}
