package main

import (
	"github.com/devlaiger/taskflow/agent"
	"github.com/devlaiger/taskflow/model"
	"github.com/devlaiger/taskflow/tool"
	"github.com/devlaiger/taskflow/tool/builtin"
)

// newBuiltinRegistries constructs the process-wide tool and agent
// registries and wires in the four built-in tools/agent types, the way
// hector's cmd/hector registers its built-in local tools before serving.
func newBuiltinRegistries() (*tool.Registry, *agent.Registry, error) {
	tools := tool.NewRegistry()
	agents := agent.NewRegistry()

	builtins := []struct {
		agentType string
		t         tool.Tool
	}{
		{"arithmetic", builtin.NewArithmeticTool()},
		{"static_fetch", builtin.NewStaticFetchTool()},
		{"list_aggregate", builtin.NewListAggregateTool()},
		{"chart_series", builtin.NewChartSeriesTool()},
	}

	for _, b := range builtins {
		if err := tools.Register(b.t, false); err != nil {
			return nil, nil, err
		}

		t := b.t
		factory := func(spec model.AgentSpec) (agent.Agent, error) {
			return agent.NewToolBackedAgent(spec, t), nil
		}
		if err := agents.Register(b.agentType, t.Description(), factory); err != nil {
			return nil, nil, err
		}
	}

	return tools, agents, nil
}
