// Package agent defines the Agent contract: a wrapper around a tool (or
// custom logic) with retry count, timeout, and identity.
package agent

import (
	"context"

	"github.com/devlaiger/taskflow/model"
	"github.com/devlaiger/taskflow/tool"
)

// Agent is a named, retriable, timeout-bounded unit of work. Implementations
// must be safe to Run concurrently with other agents (but a single Agent
// instance belongs to one workflow submission, where Run is called once
// per attempt, sequentially).
type Agent interface {
	// ID returns the agent's identifier, unique within its workflow.
	ID() string

	// Type returns the agent_type this agent was created from.
	Type() string

	// MaxRetries returns the maximum number of retry attempts after the
	// first.
	MaxRetries() int

	// TimeoutSeconds returns the per-attempt deadline.
	TimeoutSeconds() float64

	// Run executes the agent against the assembled invocation mapping and
	// returns its output mapping, or an error describing the failure. Run
	// must return promptly once ctx is cancelled.
	Run(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// Factory builds an Agent instance from its declarative spec. Registered
// under an agent_type in a Registry.
type Factory func(spec model.AgentSpec) (Agent, error)

// BaseAgent holds the identity fields common to every Agent
// implementation, mirroring hector's BaseExecutor pattern of a small
// embeddable struct carrying shared bookkeeping.
type BaseAgent struct {
	id             string
	agentType      string
	maxRetries     int
	timeoutSeconds float64
}

// NewBaseAgent constructs the identity portion of an agent from its spec.
func NewBaseAgent(spec model.AgentSpec) BaseAgent {
	return BaseAgent{
		id:             spec.AgentID,
		agentType:      spec.AgentType,
		maxRetries:     spec.EffectiveMaxRetries(),
		timeoutSeconds: spec.EffectiveTimeoutSeconds(),
	}
}

func (b BaseAgent) ID() string              { return b.id }
func (b BaseAgent) Type() string            { return b.agentType }
func (b BaseAgent) MaxRetries() int         { return b.maxRetries }
func (b BaseAgent) TimeoutSeconds() float64 { return b.timeoutSeconds }

// ToolBackedAgent composes config with collected upstream inputs into a
// parameter mapping and invokes a tool.
type ToolBackedAgent struct {
	BaseAgent
	tool   tool.Tool
	config map[string]any
}

// NewToolBackedAgent constructs an agent that delegates to t, using
// spec.Config as its static parameters.
func NewToolBackedAgent(spec model.AgentSpec, t tool.Tool) *ToolBackedAgent {
	return &ToolBackedAgent{
		BaseAgent: NewBaseAgent(spec),
		tool:      t,
		config:    spec.Config,
	}
}

// Run merges a.config over inputs (config wins on key collision) and
// invokes the wrapped tool with the result.
func (a *ToolBackedAgent) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	params := make(tool.Params, len(inputs)+len(a.config))
	for k, v := range inputs {
		params[k] = v
	}
	for k, v := range a.config {
		params[k] = v
	}

	result, err := a.tool.Execute(ctx, params)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CustomFunc is the signature a custom, tool-free agent's logic must
// satisfy. Custom agents bypass tools and compute directly, but obey the
// same Agent contract.
type CustomFunc func(ctx context.Context, inputs map[string]any) (map[string]any, error)

// CustomAgent wraps an arbitrary CustomFunc behind the Agent contract.
type CustomAgent struct {
	BaseAgent
	fn CustomFunc
}

// NewCustomAgent constructs a custom agent from spec and fn.
func NewCustomAgent(spec model.AgentSpec, fn CustomFunc) *CustomAgent {
	return &CustomAgent{BaseAgent: NewBaseAgent(spec), fn: fn}
}

// Run delegates straight to the wrapped function.
func (a *CustomAgent) Run(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return a.fn(ctx, inputs)
}
