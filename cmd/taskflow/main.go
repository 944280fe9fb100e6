// Command taskflow is the CLI and HTTP server entry point for the workflow
// execution engine, grounded on hector's cmd/hector: a kong.CLI struct with
// one Cmd-suffixed type per subcommand.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/devlaiger/taskflow/config"
	"github.com/devlaiger/taskflow/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	RunServer   RunServerCmd   `cmd:"" name:"runserver" help:"Start the HTTP server."`
	ListAgents  ListAgentsCmd  `cmd:"" name:"list-agents" help:"List registered agent types."`
	ListTools   ListToolsCmd   `cmd:"" name:"list-tools" help:"List registered tools."`
	RunWorkflow RunWorkflowCmd `cmd:"" name:"run-workflow" help:"Execute a workflow request from a JSON file."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFormat string `help:"Log format (simple or verbose)." default:"simple"`
}

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Logging.Format = c.LogFormat
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	logger.Init(level, os.Stderr, cfg.Logging.Format)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("taskflow"),
		kong.Description("DAG-based multi-agent workflow orchestration engine."),
		kong.UsageOnError(),
	)

	cfg, err := cli.loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "taskflow: config error:", err)
		os.Exit(1)
	}
	if err := initLogging(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "taskflow: logging error:", err)
		os.Exit(1)
	}

	if err := ctx.Run(&cli, cfg); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
