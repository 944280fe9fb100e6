package workflow

import (
	"context"
	"testing"

	"github.com/devlaiger/taskflow/agent"
	"github.com/devlaiger/taskflow/engine"
	"github.com/devlaiger/taskflow/model"
	"github.com/devlaiger/taskflow/tool/builtin"
)

func testRegistry(t *testing.T) *agent.Registry {
	t.Helper()
	reg := agent.NewRegistry()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	must(reg.Register("arithmetic", "", func(spec model.AgentSpec) (agent.Agent, error) {
		return agent.NewToolBackedAgent(spec, builtin.NewArithmeticTool()), nil
	}))
	must(reg.Register("static_fetch", "", func(spec model.AgentSpec) (agent.Agent, error) {
		return agent.NewToolBackedAgent(spec, builtin.NewStaticFetchTool()), nil
	}))
	must(reg.Register("list_aggregate", "", func(spec model.AgentSpec) (agent.Agent, error) {
		return agent.NewToolBackedAgent(spec, builtin.NewListAggregateTool()), nil
	}))
	must(reg.Register("chart_series", "", func(spec model.AgentSpec) (agent.Agent, error) {
		return agent.NewToolBackedAgent(spec, builtin.NewChartSeriesTool()), nil
	}))
	return reg
}

func TestLookup_KnownAndUnknown(t *testing.T) {
	if _, ok := Lookup("linear-chain"); !ok {
		t.Fatal("expected linear-chain template to exist")
	}
	if _, ok := Lookup("does-not-exist"); ok {
		t.Fatal("expected unknown template to be absent")
	}
}

func TestTemplates_ExecuteSuccessfully(t *testing.T) {
	reg := testRegistry(t)
	eng := engine.New(reg)

	for _, name := range Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			req, ok := Lookup(name)
			if !ok {
				t.Fatalf("Lookup(%q) missing", name)
			}
			result, err := eng.Execute(context.Background(), req)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if result.Status != model.WorkflowSuccess {
				t.Fatalf("template %q status = %v, agent_results = %+v", name, result.Status, result.AgentResults)
			}
		})
	}
}
