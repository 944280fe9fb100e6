// Package model holds the data types shared by dag, agent, and engine:
// AgentSpec, WorkflowRequest, AgentResult, and WorkflowResult. Keeping them
// in one leaf package (mirroring hector's workflow/types.go) lets dag,
// agent, and engine depend on the data model without depending on each
// other.
package model

import "time"

// AgentStatus is the terminal (or in-flight) state of a single agent's
// execution.
type AgentStatus string

const (
	AgentPending   AgentStatus = "pending"
	AgentRunning   AgentStatus = "running"
	AgentSuccess   AgentStatus = "success"
	AgentFailed    AgentStatus = "failed"
	AgentTimeout   AgentStatus = "timeout"
	AgentCancelled AgentStatus = "cancelled"
	AgentSkipped   AgentStatus = "skipped"
)

// Terminal reports whether status is one from which no further transition
// occurs.
func (s AgentStatus) Terminal() bool {
	switch s {
	case AgentSuccess, AgentFailed, AgentTimeout, AgentCancelled, AgentSkipped:
		return true
	default:
		return false
	}
}

// Failed reports whether status counts as a non-success terminal outcome
// for fail-fast and continue-on-error purposes.
func (s AgentStatus) Failed() bool {
	return s == AgentFailed || s == AgentTimeout
}

// WorkflowStatus is the aggregate status of a whole workflow run.
type WorkflowStatus string

const (
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowSuccess   WorkflowStatus = "success"
	WorkflowPartial   WorkflowStatus = "partial"
	WorkflowFailed    WorkflowStatus = "failed"
	WorkflowCancelled WorkflowStatus = "cancelled"
)

const (
	// DefaultMaxRetries is applied to an AgentSpec that leaves MaxRetries
	// unset.
	DefaultMaxRetries = 3
	// DefaultTimeoutSeconds is applied to an AgentSpec that leaves
	// TimeoutSeconds unset (nil).
	DefaultTimeoutSeconds = 30.0
)

// AgentSpec is the declarative description of one node in a workflow's DAG.
type AgentSpec struct {
	AgentID        string         `json:"agent_id" yaml:"agent_id"`
	AgentType      string         `json:"agent_type" yaml:"agent_type"`
	Inputs         []string       `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Config         map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	MaxRetries     *int           `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	TimeoutSeconds *float64       `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// EffectiveMaxRetries applies the default retry count when MaxRetries is unset.
func (s AgentSpec) EffectiveMaxRetries() int {
	if s.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *s.MaxRetries
}

// EffectiveTimeoutSeconds applies the default timeout when TimeoutSeconds
// is unset. A non-positive TimeoutSeconds is a validation error (see
// dag.Build) and never reaches this substitution.
func (s AgentSpec) EffectiveTimeoutSeconds() float64 {
	if s.TimeoutSeconds == nil {
		return DefaultTimeoutSeconds
	}
	return *s.TimeoutSeconds
}

// IsSource reports whether the agent has no declared upstream dependencies.
func (s AgentSpec) IsSource() bool { return len(s.Inputs) == 0 }

// WorkflowRequest is a client's submission: a workflow id (assigned by the
// engine if empty), the payload handed to every source agent, and the
// agent specs making up the DAG.
type WorkflowRequest struct {
	WorkflowID      string         `json:"workflow_id,omitempty" yaml:"workflow_id,omitempty"`
	InitialInput    map[string]any `json:"initial_input,omitempty" yaml:"initial_input,omitempty"`
	Agents          []AgentSpec    `json:"agents" yaml:"agents"`
	ContinueOnError bool           `json:"continue_on_error,omitempty" yaml:"continue_on_error,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// AgentResult is the outcome of one agent's execution within a workflow.
type AgentResult struct {
	AgentID         string         `json:"agent_id"`
	Status          AgentStatus    `json:"status"`
	Output          map[string]any `json:"output"`
	Error           string         `json:"error,omitempty"`
	Attempts        int            `json:"attempts"`
	DurationSeconds float64        `json:"duration_seconds"`
}

// WorkflowResult is the structured, queryable outcome of a workflow run.
type WorkflowResult struct {
	WorkflowID   string                 `json:"workflow_id"`
	Status       WorkflowStatus         `json:"status"`
	AgentResults map[string]AgentResult `json:"agent_results"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   time.Time              `json:"finished_at,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// Snapshot returns a deep-enough copy of r safe to hand to a caller while
// the engine continues mutating the live result concurrently.
func (r WorkflowResult) Snapshot() WorkflowResult {
	cp := r
	cp.AgentResults = make(map[string]AgentResult, len(r.AgentResults))
	for id, res := range r.AgentResults {
		cp.AgentResults[id] = res
	}
	return cp
}
