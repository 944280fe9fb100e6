package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/devlaiger/taskflow/config"
	"github.com/devlaiger/taskflow/engine"
	"github.com/devlaiger/taskflow/model"
	"github.com/devlaiger/taskflow/transport"
)

// ListAgentsCmd prints the registered agent types and their descriptions.
type ListAgentsCmd struct{}

func (c *ListAgentsCmd) Run(cfg *config.Config) error {
	_, agents, err := newBuiltinRegistries()
	if err != nil {
		return err
	}

	infos := agents.List()
	if len(infos) == 0 {
		fmt.Println("No agent types registered")
		return nil
	}
	fmt.Println("Registered agent types:")
	for _, info := range infos {
		fmt.Printf("  %-16s %s\n", info.AgentType, info.Description)
	}
	return nil
}

// ListToolsCmd prints the registered tools and their descriptions.
type ListToolsCmd struct{}

func (c *ListToolsCmd) Run(cfg *config.Config) error {
	tools, _, err := newBuiltinRegistries()
	if err != nil {
		return err
	}

	infos := tools.List()
	if len(infos) == 0 {
		fmt.Println("No tools registered")
		return nil
	}
	fmt.Println("Registered tools:")
	for _, info := range infos {
		fmt.Printf("  %-16s %s\n", info.Name, info.Description)
	}
	return nil
}

// RunWorkflowCmd loads a WorkflowRequest from a JSON file and executes it
// synchronously, printing the resulting WorkflowResult.
type RunWorkflowCmd struct {
	ConfigPath string `name:"config" required:"" help:"Path to a JSON-encoded WorkflowRequest." type:"path"`
}

func (c *RunWorkflowCmd) Run(cfg *config.Config) error {
	raw, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to read workflow request: %w", err)
	}

	var req model.WorkflowRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("invalid workflow request: %w", err)
	}

	_, agents, err := newBuiltinRegistries()
	if err != nil {
		return fmt.Errorf("failed to build registries: %w", err)
	}
	metrics := transport.NewMetrics()
	eng := engine.New(agents,
		engine.WithBackoff(cfg.Engine.BackoffBase(), cfg.Engine.BackoffCap()),
		engine.WithHistoryLimit(cfg.Engine.HistoryLimit),
		engine.WithAttemptRecorder(metrics),
	)

	result, err := eng.Execute(context.Background(), req)
	if err != nil {
		return fmt.Errorf("failed to execute workflow: %w", err)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(encoded))

	if result.Status != model.WorkflowSuccess {
		return fmt.Errorf("workflow finished with status %q", result.Status)
	}
	return nil
}
