package agent

import (
	"fmt"

	"github.com/devlaiger/taskflow/model"
	"github.com/devlaiger/taskflow/registry"
)

// RegistryError is a component-scoped error, grounded on hector's
// AgentRegistryError shape.
type RegistryError struct {
	Action  string
	Message string
	Err     error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[agent.Registry:%s] %s: %v", e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("[agent.Registry:%s] %s", e.Action, e.Message)
}

func (e *RegistryError) Unwrap() error { return e.Err }

func newRegistryError(action, message string, err error) *RegistryError {
	return &RegistryError{Action: action, Message: message, Err: err}
}

// Info describes a registered agent type, for the HTTP /agents endpoint.
type Info struct {
	AgentType   string `json:"agent_type"`
	Description string `json:"description"`
}

type factoryEntry struct {
	factory     Factory
	description string
}

// Registry is the process-wide name->agent-factory mapping.
type Registry struct {
	base *registry.BaseRegistry[factoryEntry]
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{base: registry.NewBaseRegistry[factoryEntry]()}
}

// Register associates agentType with factory. description is surfaced via
// List/the HTTP /agents endpoint.
func (r *Registry) Register(agentType, description string, factory Factory) error {
	if agentType == "" {
		return newRegistryError("Register", "agent_type cannot be empty", nil)
	}
	if factory == nil {
		return newRegistryError("Register", "factory cannot be nil", nil)
	}
	if err := r.base.Register(agentType, factoryEntry{factory: factory, description: description}); err != nil {
		return newRegistryError("Register", fmt.Sprintf("agent_type %q", agentType), err)
	}
	return nil
}

// Create instantiates an agent from spec, resolving spec.AgentType against
// the registered factories. Returns RegistryMiss (as a RegistryError) if
// the type is unknown.
func (r *Registry) Create(spec model.AgentSpec) (Agent, error) {
	entry, ok := r.base.Get(spec.AgentType)
	if !ok {
		return nil, newRegistryError("Create", fmt.Sprintf("agent_type %q not registered", spec.AgentType), nil)
	}
	a, err := entry.factory(spec)
	if err != nil {
		return nil, newRegistryError("Create", fmt.Sprintf("agent_type %q", spec.AgentType), err)
	}
	return a, nil
}

// Has reports whether agentType resolves in the registry. Unknown agent
// types are rejected at submission time by Engine.prepare through Create,
// not through Has.
func (r *Registry) Has(agentType string) bool {
	_, ok := r.base.Get(agentType)
	return ok
}

// List returns agent_type+description pairs for every registered factory.
func (r *Registry) List() []Info {
	names := r.base.Names()
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		entry, ok := r.base.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, Info{AgentType: name, Description: entry.description})
	}
	return infos
}

// Unregister removes a factory by agent type.
func (r *Registry) Unregister(agentType string) error {
	if err := r.base.Remove(agentType); err != nil {
		return newRegistryError("Unregister", fmt.Sprintf("agent_type %q", agentType), err)
	}
	return nil
}
