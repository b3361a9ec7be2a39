package compiler

import (
	"errors"
	"fmt"
)

// Errors for StepGraph operations.
var (
	ErrDuplicateStep    = errors.New("step with this ID already exists")
	ErrCyclicDependency = errors.New("cyclic dependency detected")
	ErrMissingDep       = errors.New("step depends on nonexistent step")
)

// StepGraph represents a directed acyclic graph of steps.
// It remembers insertion order so that sorting is deterministic: among steps
// whose dependencies are met, the one added first runs first.
type StepGraph struct {
	order      []string
	steps      map[string]Step
	dependsOn  map[string][]string // step ID -> list of dependency IDs
	dependedBy map[string][]string // step ID -> list of steps that depend on it
}

// NewStepGraph creates an empty StepGraph.
func NewStepGraph() *StepGraph {
	return &StepGraph{
		steps:      make(map[string]Step),
		dependsOn:  make(map[string][]string),
		dependedBy: make(map[string][]string),
	}
}

// BuildStepGraph adds every step to a new graph and validates it.
// Errors are *StepError values of kind INVALID_CONFIGURATION or CYCLIC_DEPENDENCY.
func BuildStepGraph(steps []Step) (*StepGraph, error) {
	g := NewStepGraph()
	for _, step := range steps {
		if err := g.Add(step); err != nil {
			return nil, NewDuplicateStepError(step.ID().String())
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if cycle := g.FindCycle(); cycle != nil {
		return nil, NewCyclicDependencyError(cycle)
	}
	return g, nil
}

// Len returns the number of steps in the graph.
func (g *StepGraph) Len() int {
	return len(g.steps)
}

// Add adds a step to the graph.
// Returns ErrDuplicateStep if a step with the same ID already exists.
func (g *StepGraph) Add(step Step) error {
	id := step.ID().String()

	if _, exists := g.steps[id]; exists {
		return ErrDuplicateStep
	}

	g.steps[id] = step
	g.order = append(g.order, id)

	deps := step.DependsOn()
	depIDs := make([]string, len(deps))
	for i, dep := range deps {
		depID := dep.String()
		depIDs[i] = depID
		g.dependedBy[depID] = append(g.dependedBy[depID], id)
	}
	g.dependsOn[id] = depIDs

	return nil
}

// Get retrieves a step by ID.
func (g *StepGraph) Get(id StepID) (Step, bool) {
	step, ok := g.steps[id.String()]
	return step, ok
}

// Steps returns all steps in insertion order.
func (g *StepGraph) Steps() []Step {
	steps := make([]Step, 0, len(g.order))
	for _, id := range g.order {
		steps = append(steps, g.steps[id])
	}
	return steps
}

// Validate checks that all dependencies exist.
func (g *StepGraph) Validate() error {
	for _, id := range g.order {
		for _, depID := range g.dependsOn[id] {
			if _, exists := g.steps[depID]; !exists {
				return NewDependencyMissingError(id, depID)
			}
		}
	}
	return nil
}

// FindCycle returns the IDs forming a dependency cycle, first ID repeated at
// the end, or nil if the graph is acyclic.
func (g *StepGraph) FindCycle() []string {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[string]int, len(g.steps))
	var stack []string
	var cycle []string

	var visit func(string) bool
	visit = func(id string) bool {
		state[id] = inProgress
		stack = append(stack, id)
		for _, dep := range g.dependsOn[id] {
			if _, exists := g.steps[dep]; !exists {
				continue
			}
			switch state[dep] {
			case inProgress:
				for i, s := range stack {
					if s == dep {
						cycle = append(append([]string{}, stack[i:]...), dep)
						return true
					}
				}
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range g.order {
		if state[id] == unvisited && visit(id) {
			return cycle
		}
	}
	return nil
}

// TopologicalSort returns steps in dependency order.
// Steps with no dependencies come first; ties keep insertion order.
// Returns ErrCyclicDependency if the graph contains a cycle.
func (g *StepGraph) TopologicalSort() ([]Step, error) {
	// Kahn's algorithm, always picking the earliest-inserted ready step.
	inDegree := make(map[string]int, len(g.steps))
	for _, id := range g.order {
		for _, depID := range g.dependsOn[id] {
			if _, exists := g.steps[depID]; exists {
				inDegree[id]++
			}
		}
	}

	position := make(map[string]int, len(g.order))
	for i, id := range g.order {
		position[id] = i
	}

	ready := make([]bool, len(g.order))
	for i, id := range g.order {
		ready[i] = inDegree[id] == 0
	}

	sorted := make([]Step, 0, len(g.steps))
	emitted := make([]bool, len(g.order))

	for len(sorted) < len(g.order) {
		next := -1
		for i := range g.order {
			if ready[i] && !emitted[i] {
				next = i
				break
			}
		}
		if next < 0 {
			cycle := g.FindCycle()
			return nil, fmt.Errorf("%w: %v", ErrCyclicDependency, cycle)
		}

		id := g.order[next]
		emitted[next] = true
		sorted = append(sorted, g.steps[id])

		for _, dependentID := range g.dependedBy[id] {
			if _, exists := g.steps[dependentID]; !exists {
				continue
			}
			inDegree[dependentID]--
			if inDegree[dependentID] == 0 {
				ready[position[dependentID]] = true
			}
		}
	}

	return sorted, nil
}
