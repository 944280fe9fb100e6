package builtin

import (
	"context"

	"github.com/devlaiger/taskflow/tool"
)

// StaticFetchTool stands in for a data-fetch agent: it returns a constant
// payload taken verbatim from its config, ignoring whatever inputs it is
// given. Useful as a deterministic source node in tests and templates.
type StaticFetchTool struct{}

// NewStaticFetchTool constructs the static data fetch tool.
func NewStaticFetchTool() *StaticFetchTool { return &StaticFetchTool{} }

func (t *StaticFetchTool) Name() string { return "static_fetch" }

func (t *StaticFetchTool) Description() string {
	return "Returns a fixed payload taken from its \"data\" config parameter."
}

func (t *StaticFetchTool) Execute(ctx context.Context, params tool.Params) (tool.Result, error) {
	data, ok := params["data"]
	if !ok {
		data = map[string]any{}
	}
	return tool.Result{"data": data}, nil
}
