package tool

import (
	"fmt"

	"github.com/devlaiger/taskflow/registry"
)

// RegistryError is a component-scoped error, grounded on hector's
// ToolRegistryError / WorkflowExecutionError shape.
type RegistryError struct {
	Action  string
	Message string
	Err     error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[tool.Registry:%s] %s: %v", e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("[tool.Registry:%s] %s", e.Action, e.Message)
}

func (e *RegistryError) Unwrap() error { return e.Err }

func newRegistryError(action, message string, err error) *RegistryError {
	return &RegistryError{Action: action, Message: message, Err: err}
}

// Registry is the process-wide name->tool mapping. Concurrent reads are
// safe; writes are expected at startup but are also safe under contention.
type Registry struct {
	base *registry.BaseRegistry[Tool]
}

// NewRegistry creates an empty tool registry. Tests should construct their
// own instance rather than relying on process-wide global state.
func NewRegistry() *Registry {
	return &Registry{base: registry.NewBaseRegistry[Tool]()}
}

// Register adds tool under its own Name(). It fails if that name is
// already registered unless overwrite is true.
func (r *Registry) Register(t Tool, overwrite bool) error {
	if t == nil {
		return newRegistryError("Register", "tool cannot be nil", nil)
	}
	name := t.Name()
	if name == "" {
		return newRegistryError("Register", "tool name cannot be empty", nil)
	}

	var err error
	if overwrite {
		err = r.base.RegisterOverwrite(name, t)
	} else {
		err = r.base.Register(name, t)
	}
	if err != nil {
		return newRegistryError("Register", fmt.Sprintf("tool %q", name), err)
	}
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.base.Get(name)
	if !ok {
		return nil, newRegistryError("Get", fmt.Sprintf("tool %q not found", name), nil)
	}
	return t, nil
}

// List returns name+description pairs for every registered tool. Order is
// unspecified beyond being stable for a given registry population.
func (r *Registry) List() []Info {
	names := r.base.Names()
	infos := make([]Info, 0, len(names))
	for _, name := range names {
		t, ok := r.base.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, Info{Name: t.Name(), Description: t.Description()})
	}
	return infos
}

// Unregister removes a tool by name.
func (r *Registry) Unregister(name string) error {
	if err := r.base.Remove(name); err != nil {
		return newRegistryError("Unregister", fmt.Sprintf("tool %q", name), err)
	}
	return nil
}
