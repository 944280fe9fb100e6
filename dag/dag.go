// Package dag builds and validates the typed graph of agent specifications:
// duplicate-id and dangling-dependency checks, cycle detection, and
// layering into topological groups.
package dag

import (
	"fmt"

	"github.com/devlaiger/taskflow/model"
)

// ValidationError reports a malformed WorkflowRequest: an empty or
// duplicate agent_id, a non-positive timeout_seconds, a negative
// max_retries, a dependency naming an agent that does not exist, or a cycle.
// It is reported synchronously and never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// DAG is the validated, layered graph of a workflow's agents.
type DAG struct {
	specs    map[string]model.AgentSpec
	order    []string // declaration order, for deterministic layering
	children map[string][]string
	layers   [][]string
}

// Build validates specs and computes the canonical layering (Kahn-style
// topological partition). It returns a *ValidationError describing the
// first problem found: empty or duplicate id, non-positive timeout,
// negative max_retries, dangling dependency, or a cycle edge.
func Build(specs []model.AgentSpec) (*DAG, error) {
	d := &DAG{
		specs:    make(map[string]model.AgentSpec, len(specs)),
		order:    make([]string, 0, len(specs)),
		children: make(map[string][]string, len(specs)),
	}

	for _, spec := range specs {
		if spec.AgentID == "" {
			return nil, validationErrorf("agent_id cannot be empty")
		}
		if _, exists := d.specs[spec.AgentID]; exists {
			return nil, validationErrorf("duplicate agent_id %q", spec.AgentID)
		}
		if spec.TimeoutSeconds != nil && *spec.TimeoutSeconds <= 0 {
			return nil, validationErrorf("agent %q: timeout_seconds must be positive, got %v", spec.AgentID, *spec.TimeoutSeconds)
		}
		if spec.MaxRetries != nil && *spec.MaxRetries < 0 {
			return nil, validationErrorf("agent %q: max_retries must be non-negative, got %v", spec.AgentID, *spec.MaxRetries)
		}
		d.specs[spec.AgentID] = spec
		d.order = append(d.order, spec.AgentID)
	}

	for _, spec := range specs {
		for _, dep := range spec.Inputs {
			if _, exists := d.specs[dep]; !exists {
				return nil, validationErrorf("agent %q declares dependency on unknown agent %q", spec.AgentID, dep)
			}
			d.children[dep] = append(d.children[dep], spec.AgentID)
		}
	}

	if edge := d.findCycleEdge(); edge != "" {
		return nil, validationErrorf("cycle detected in workflow graph, offending edge: %s", edge)
	}

	d.layers = d.computeLayers()
	return d, nil
}

// findCycleEdge runs a depth-first search with gray/black coloring and
// returns "from->to" for one back-edge that closes a cycle, or "" if the
// graph is acyclic.
func (d *DAG) findCycleEdge() string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(d.order))

	var visit func(id string) string
	visit = func(id string) string {
		color[id] = gray
		spec := d.specs[id]
		for _, dep := range spec.Inputs {
			switch color[dep] {
			case gray:
				return fmt.Sprintf("%s->%s", id, dep)
			case white:
				if edge := visit(dep); edge != "" {
					return edge
				}
			}
		}
		color[id] = black
		return ""
	}

	for _, id := range d.order {
		if color[id] == white {
			if edge := visit(id); edge != "" {
				return edge
			}
		}
	}
	return ""
}

// computeLayers partitions nodes into the maximal-parallelism topological
// groups: layer 0 is every node with in-degree 0; layer k+1 is every
// remaining node whose predecessors are all assigned to layers <= k.
// Within a layer, order follows declaration order.
func (d *DAG) computeLayers() [][]string {
	layerOf := make(map[string]int, len(d.order))
	remaining := make(map[string]int, len(d.order))
	for _, id := range d.order {
		remaining[id] = len(d.specs[id].Inputs)
	}

	assigned := 0
	layers := [][]string{}
	for assigned < len(d.order) {
		var layer []string
		for _, id := range d.order {
			if _, done := layerOf[id]; done {
				continue
			}
			if remaining[id] == 0 {
				layer = append(layer, id)
			}
		}
		for _, id := range layer {
			layerOf[id] = len(layers)
		}
		for _, id := range layer {
			for _, child := range d.children[id] {
				remaining[child]--
			}
		}
		layers = append(layers, layer)
		assigned += len(layer)
	}
	return layers
}

// Layers returns the ordered list of execution layers. layers()[k] is the
// set of agent ids whose predecessors all lie in layers 0..k-1.
func (d *DAG) Layers() [][]string {
	out := make([][]string, len(d.layers))
	for i, layer := range d.layers {
		cp := make([]string, len(layer))
		copy(cp, layer)
		out[i] = cp
	}
	return out
}

// Spec returns the AgentSpec for id.
func (d *DAG) Spec(id string) (model.AgentSpec, bool) {
	spec, ok := d.specs[id]
	return spec, ok
}

// Predecessors returns the declared upstream dependency ids for id, in
// declaration order.
func (d *DAG) Predecessors(id string) []string {
	return d.specs[id].Inputs
}

// IsReady reports whether all of id's predecessors are present in
// completed.
func (d *DAG) IsReady(id string, completed map[string]bool) bool {
	for _, dep := range d.specs[id].Inputs {
		if !completed[dep] {
			return false
		}
	}
	return true
}

// Size returns the number of agents in the graph.
func (d *DAG) Size() int { return len(d.order) }
