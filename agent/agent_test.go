package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/devlaiger/taskflow/model"
	"github.com/devlaiger/taskflow/tool"
)

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes params" }
func (echoTool) Execute(ctx context.Context, params tool.Params) (tool.Result, error) {
	return tool.Result(params), nil
}

func TestToolBackedAgent_ConfigWinsOverInputs(t *testing.T) {
	spec := model.AgentSpec{
		AgentID:   "b",
		AgentType: "echo",
		Config:    map[string]any{"value": 100},
	}
	a := NewToolBackedAgent(spec, echoTool{})

	out, err := a.Run(context.Background(), map[string]any{"value": 1, "upstream": "A"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out["value"] != 100 {
		t.Fatalf("value = %v, want config value 100 to win", out["value"])
	}
	if out["upstream"] != "A" {
		t.Fatalf("upstream = %v, want preserved from inputs", out["upstream"])
	}
}

func TestCustomAgent_Run(t *testing.T) {
	spec := model.AgentSpec{AgentID: "c", AgentType: "custom"}
	called := false
	a := NewCustomAgent(spec, func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		called = true
		return map[string]any{"ok": true}, nil
	})

	out, err := a.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !called || out["ok"] != true {
		t.Fatalf("custom agent did not run as expected: called=%v out=%v", called, out)
	}
}

func TestBaseAgent_Defaults(t *testing.T) {
	spec := model.AgentSpec{AgentID: "a", AgentType: "t"}
	b := NewBaseAgent(spec)
	if b.MaxRetries() != model.DefaultMaxRetries {
		t.Fatalf("MaxRetries() = %d, want default %d", b.MaxRetries(), model.DefaultMaxRetries)
	}
	if b.TimeoutSeconds() != model.DefaultTimeoutSeconds {
		t.Fatalf("TimeoutSeconds() = %v, want default %v", b.TimeoutSeconds(), model.DefaultTimeoutSeconds)
	}
}

func TestRegistry_CreateAndRegistryMiss(t *testing.T) {
	r := NewRegistry()
	err := r.Register("echo", "echoes its inputs", func(spec model.AgentSpec) (Agent, error) {
		return NewToolBackedAgent(spec, echoTool{}), nil
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if !r.Has("echo") {
		t.Fatal("Has(echo) = false")
	}

	a, err := r.Create(model.AgentSpec{AgentID: "x", AgentType: "echo"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.ID() != "x" {
		t.Fatalf("Create().ID() = %q", a.ID())
	}

	if _, err := r.Create(model.AgentSpec{AgentID: "y", AgentType: "unknown"}); err == nil {
		t.Fatal("expected RegistryMiss error for unknown agent_type")
	}

	infos := r.List()
	if len(infos) != 1 || infos[0].AgentType != "echo" {
		t.Fatalf("List() = %+v", infos)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	r := NewRegistry()
	wantErr := errors.New("boom")
	_ = r.Register("broken", "", func(spec model.AgentSpec) (Agent, error) {
		return nil, wantErr
	})

	if _, err := r.Create(model.AgentSpec{AgentID: "z", AgentType: "broken"}); !errors.Is(err, wantErr) {
		t.Fatalf("Create() error = %v, want wrapping %v", err, wantErr)
	}
}
