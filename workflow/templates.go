// Package workflow holds in-process WorkflowRequest templates, the
// prebuilt examples served by GET /workflows/templates/{name}. Persisted
// state is explicitly out of scope, so these are plain constants rather
// than a storage-backed catalog.
package workflow

import (
	"sort"

	"github.com/devlaiger/taskflow/model"
)

// Templates maps a template name to a ready-to-submit WorkflowRequest.
var Templates = map[string]model.WorkflowRequest{
	"linear-chain":  linearChainTemplate(),
	"diamond":       diamondTemplate(),
	"fan-in-report": fanInReportTemplate(),
}

// Lookup returns the named template, or false if no such template exists.
func Lookup(name string) (model.WorkflowRequest, bool) {
	t, ok := Templates[name]
	return t, ok
}

// Names returns the sorted list of available template names.
func Names() []string {
	names := make([]string, 0, len(Templates))
	for name := range Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func linearChainTemplate() model.WorkflowRequest {
	return model.WorkflowRequest{
		InitialInput: map[string]any{"value": 10},
		Agents: []model.AgentSpec{
			{AgentID: "double", AgentType: "arithmetic", Config: map[string]any{"op": "multiply", "const": 2}},
			{AgentID: "add-five", AgentType: "arithmetic", Inputs: []string{"double"}, Config: map[string]any{"op": "add", "const": 5}},
		},
	}
}

func diamondTemplate() model.WorkflowRequest {
	return model.WorkflowRequest{
		Agents: []model.AgentSpec{
			{AgentID: "source", AgentType: "static_fetch", Config: map[string]any{"data": 4}},
			{AgentID: "double", AgentType: "arithmetic", Inputs: []string{"source"}, Config: map[string]any{"op": "multiply", "const": 2}},
			{AgentID: "square", AgentType: "arithmetic", Inputs: []string{"source"}, Config: map[string]any{"op": "multiply", "const": 4}},
			{AgentID: "combine", AgentType: "list_aggregate", Inputs: []string{"double", "square"}, Config: map[string]any{"op": "sum"}},
		},
	}
}

func fanInReportTemplate() model.WorkflowRequest {
	// Three independent quarter agents run in parallel (layer 0); chart
	// waits on all three before shaping the combined series (layer 1),
	// demonstrating a fan-in barrier even though chart_series reads its
	// series from its own config rather than the upstream outputs.
	return model.WorkflowRequest{
		Agents: []model.AgentSpec{
			{AgentID: "q1", AgentType: "static_fetch", Config: map[string]any{"data": map[string]any{"value": 120}}},
			{AgentID: "q2", AgentType: "static_fetch", Config: map[string]any{"data": map[string]any{"value": 150}}},
			{AgentID: "q3", AgentType: "static_fetch", Config: map[string]any{"data": map[string]any{"value": 90}}},
			{
				AgentID:   "chart",
				AgentType: "chart_series",
				Inputs:    []string{"q1", "q2", "q3"},
				Config:    map[string]any{"series": map[string]any{"q1": 120, "q2": 150, "q3": 90}},
			},
		},
	}
}
