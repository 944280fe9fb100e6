// Package engine implements the workflow execution engine: it schedules a
// workflow's DAG layer by layer, enforces per-agent retry/backoff/timeout,
// propagates outputs downstream, and supports cooperative cancellation.
package engine

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/devlaiger/taskflow/agent"
	"github.com/devlaiger/taskflow/dag"
	"github.com/devlaiger/taskflow/model"
)

const (
	defaultBackoffBase = time.Second
	defaultBackoffCap  = 60 * time.Second
	// defaultHistoryLimit bounds the LRU of completed workflow results kept
	// for Status() queries after a workflow reaches a terminal status.
	defaultHistoryLimit = 256
)

// engineTracer spans every agent execution attempt. Reporting is a no-op
// until a caller installs a real TracerProvider (transport.InitTracer),
// mirroring hector's pkg/agent/instrumentation.go calling
// observability.GetTracer at each call site rather than caching a tracer
// on a long-lived struct.
var engineTracer = otel.Tracer("taskflow.engine")

// AttemptRecorder observes the outcome of a single agent execution
// attempt. Implemented by transport.Metrics; installed via
// WithAttemptRecorder.
type AttemptRecorder interface {
	RecordAgentAttempt(agentType, status string, durationSeconds float64)
}

// Option configures an Engine.
type Option func(*Engine)

// WithBackoff overrides the exponential backoff base and cap (default 1s
// and 60s). Exposed mainly so tests don't have to wait out real backoff
// delays.
func WithBackoff(base, cap time.Duration) Option {
	return func(e *Engine) {
		e.SetBackoff(base, cap)
	}
}

// WithHistoryLimit overrides how many completed workflows remain queryable
// via Status() before the bounded LRU evicts the oldest.
func WithHistoryLimit(n int) Option {
	return func(e *Engine) { e.history.limit = n }
}

// WithIDGenerator overrides how workflow ids are assigned when a request
// omits one. Defaults to github.com/google/uuid.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// WithAttemptRecorder installs rec to receive every agent execution
// attempt's outcome (success, failure, timeout, or cancellation) and
// duration, e.g. transport.Metrics for Prometheus reporting.
func WithAttemptRecorder(rec AttemptRecorder) Option {
	return func(e *Engine) { e.recorder = rec }
}

// Engine drives workflow execution against a shared agent registry. A
// single Engine instance is safe for concurrent use by multiple callers
// submitting, querying, and cancelling workflows.
type Engine struct {
	agents *agent.Registry

	// backoffBaseNanos/backoffCapNanos hold time.Duration values as
	// nanosecond counts so SetBackoff can retune a running engine (e.g. on
	// a config file reload) without a lock shared with the hot retry path.
	backoffBaseNanos atomic.Int64
	backoffCapNanos  atomic.Int64
	newID            func() string
	recorder         AttemptRecorder

	mu     sync.RWMutex
	active map[string]*run

	history *lruHistory
}

// New constructs an Engine backed by agents (the process-wide, or a
// test-injected, agent registry).
func New(agents *agent.Registry, opts ...Option) *Engine {
	e := &Engine{
		agents:  agents,
		newID:   func() string { return uuid.NewString() },
		active:  make(map[string]*run),
		history: newLRUHistory(defaultHistoryLimit),
	}
	e.SetBackoff(defaultBackoffBase, defaultBackoffCap)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetBackoff retunes the exponential backoff base and cap for every
// subsequent retry, including ones already in flight. Safe to call
// concurrently with running workflows, so a config file reload can
// hot-tune e without restarting the server.
func (e *Engine) SetBackoff(base, cap time.Duration) {
	e.backoffBaseNanos.Store(int64(base))
	e.backoffCapNanos.Store(int64(cap))
}

func (e *Engine) backoffBase() time.Duration { return time.Duration(e.backoffBaseNanos.Load()) }
func (e *Engine) backoffCap() time.Duration  { return time.Duration(e.backoffCapNanos.Load()) }

// run is the engine's transient execution state for one in-flight workflow.
type run struct {
	mu        sync.RWMutex
	result    model.WorkflowResult
	cancelFn  context.CancelFunc
	cancelled bool
}

func (r *run) snapshot() model.WorkflowResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result.Snapshot()
}

func (r *run) setAgentResult(res model.AgentResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.AgentResults[res.AgentID] = res
}

func (r *run) agentResults() map[string]model.AgentResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]model.AgentResult, len(r.result.AgentResults))
	for k, v := range r.result.AgentResults {
		cp[k] = v
	}
	return cp
}

func (r *run) setStatus(status model.WorkflowStatus, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Status = status
	r.result.Error = errMsg
}

func (r *run) finish(status model.WorkflowStatus, errMsg string) model.WorkflowResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Status = status
	r.result.Error = errMsg
	r.result.FinishedAt = time.Now().UTC()
	return r.result.Snapshot()
}

// Execute runs request to a terminal status and returns the final
// WorkflowResult.
func (e *Engine) Execute(ctx context.Context, request model.WorkflowRequest) (model.WorkflowResult, error) {
	workflowID := request.WorkflowID
	if workflowID == "" {
		workflowID = e.newID()
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		result: model.WorkflowResult{
			WorkflowID:   workflowID,
			Status:       model.WorkflowRunning,
			AgentResults: make(map[string]model.AgentResult),
			StartedAt:    time.Now().UTC(),
		},
		cancelFn: cancel,
	}

	e.mu.Lock()
	e.active[workflowID] = r
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.active, workflowID)
		e.mu.Unlock()
		cancel()
	}()

	graph, agents, err := e.prepare(request)
	if err != nil {
		result := r.finish(model.WorkflowFailed, err.Error())
		e.history.add(result)
		return result, nil
	}

	status := e.runLayers(runCtx, r, graph, agents, request)

	errMsg := ""
	if status == model.WorkflowFailed {
		errMsg = "one or more agents failed; see agent_results for details"
	}
	result := r.finish(status, errMsg)
	e.history.add(result)
	return result, nil
}

// prepare validates the request's DAG and resolves every agent_type
// against the registry, surfacing either a malformed request or an
// unknown agent_type as an error.
func (e *Engine) prepare(request model.WorkflowRequest) (*dag.DAG, map[string]agent.Agent, error) {
	graph, err := dag.Build(request.Agents)
	if err != nil {
		return nil, nil, err
	}

	agents := make(map[string]agent.Agent, len(request.Agents))
	for _, spec := range request.Agents {
		a, err := e.agents.Create(spec)
		if err != nil {
			return nil, nil, fmt.Errorf("validation failed for agent %q: %w", spec.AgentID, err)
		}
		agents[spec.AgentID] = a
	}
	return graph, agents, nil
}

// runLayers executes every layer of graph in order and returns the
// workflow's terminal status.
func (e *Engine) runLayers(ctx context.Context, r *run, graph *dag.DAG, agents map[string]agent.Agent, request model.WorkflowRequest) model.WorkflowStatus {
	failFast := !request.ContinueOnError
	anyFailure := false
	anySuccess := false

	for _, layer := range graph.Layers() {
		if ctx.Err() != nil {
			return model.WorkflowCancelled
		}

		completed := r.agentResults()
		toRun, skipped := partitionLayer(graph, layer, completed, request.ContinueOnError)

		for _, id := range skipped {
			res := model.AgentResult{AgentID: id, Status: model.AgentSkipped, Output: map[string]any{}}
			r.setAgentResult(res)
		}

		var wg sync.WaitGroup
		results := make(chan model.AgentResult, len(toRun))
		for _, id := range toRun {
			id := id
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- e.runAgent(ctx, agents[id], e.assembleInputs(graph, id, completed, request.InitialInput))
			}()
		}
		wg.Wait()
		close(results)

		for res := range results {
			r.setAgentResult(res)
			switch {
			case res.Status == model.AgentSuccess:
				anySuccess = true
			case res.Status.Failed():
				anyFailure = true
			}
		}

		if ctx.Err() != nil {
			return model.WorkflowCancelled
		}
		if anyFailure && failFast {
			return model.WorkflowFailed
		}
	}

	switch {
	case ctx.Err() != nil:
		return model.WorkflowCancelled
	case anyFailure && anySuccess:
		return model.WorkflowPartial
	case anyFailure:
		return model.WorkflowFailed
	default:
		return model.WorkflowSuccess
	}
}

// partitionLayer splits layer into agents that should run and agents that
// must be skipped because, in continue-on-error mode, one of their
// upstream dependencies ended non-success.
func partitionLayer(graph *dag.DAG, layer []string, completed map[string]model.AgentResult, continueOnError bool) (toRun, skipped []string) {
	for _, id := range layer {
		if continueOnError && upstreamFailed(graph, id, completed) {
			skipped = append(skipped, id)
			continue
		}
		toRun = append(toRun, id)
	}
	return toRun, skipped
}

func upstreamFailed(graph *dag.DAG, id string, completed map[string]model.AgentResult) bool {
	for _, dep := range graph.Predecessors(id) {
		res, ok := completed[dep]
		if !ok {
			continue
		}
		if res.Status == model.AgentFailed || res.Status == model.AgentTimeout ||
			res.Status == model.AgentCancelled || res.Status == model.AgentSkipped {
			return true
		}
	}
	return false
}

// assembleInputs builds the invocation mapping for a single agent: source
// agents (no declared inputs) receive the workflow's initial_input;
// downstream agents receive {upstream_id: upstream_output, ...}. The agent
// itself overlays its config on top of whichever mapping this function
// returns.
func (e *Engine) assembleInputs(graph *dag.DAG, id string, completed map[string]model.AgentResult, initialInput map[string]any) map[string]any {
	preds := graph.Predecessors(id)
	if len(preds) == 0 {
		out := make(map[string]any, len(initialInput))
		for k, v := range initialInput {
			out[k] = v
		}
		return out
	}

	out := make(map[string]any, len(preds))
	for _, dep := range preds {
		if res, ok := completed[dep]; ok {
			out[dep] = res.Output
		}
	}
	return out
}

// runAgent drives a single agent's retry loop: run, classify the outcome,
// retry with backoff, or settle on a terminal status. Every attempt is
// wrapped in its own span and reported to the engine's AttemptRecorder (if
// any), not just the attempt that finally settles the agent.
func (e *Engine) runAgent(ctx context.Context, a agent.Agent, inputs map[string]any) model.AgentResult {
	id := a.ID()
	agentType := a.Type()
	timeout := time.Duration(a.TimeoutSeconds() * float64(time.Second))
	maxRetries := a.MaxRetries()

	attempts := 0
	for {
		if ctx.Err() != nil {
			return model.AgentResult{AgentID: id, Status: model.AgentCancelled, Output: map[string]any{}, Error: "workflow cancelled"}
		}

		attempts++
		start := time.Now()
		attemptCtx, span := engineTracer.Start(ctx, "agent.attempt", trace.WithAttributes(
			attribute.String("agent_id", id),
			attribute.String("agent_type", agentType),
			attribute.Int("attempt", attempts),
		))
		attemptCtx, cancelAttempt := context.WithTimeout(attemptCtx, timeout)
		output, err := a.Run(attemptCtx, inputs)
		duration := time.Since(start).Seconds()
		attemptErr := attemptCtx.Err()
		cancelAttempt()

		if err == nil {
			slog.Debug("agent attempt succeeded", "agent_id", id, "attempts", attempts, "duration_seconds", duration)
			e.finishAttempt(span, agentType, model.AgentSuccess, duration, nil)
			return model.AgentResult{AgentID: id, Status: model.AgentSuccess, Output: output, Attempts: attempts, DurationSeconds: duration}
		}

		if errors.Is(attemptErr, context.Canceled) && ctx.Err() != nil {
			e.finishAttempt(span, agentType, model.AgentCancelled, duration, err)
			return model.AgentResult{AgentID: id, Status: model.AgentCancelled, Output: map[string]any{}, Error: "workflow cancelled", Attempts: attempts, DurationSeconds: duration}
		}

		timedOut := errors.Is(attemptErr, context.DeadlineExceeded)
		attemptStatus := model.AgentFailed
		if timedOut {
			attemptStatus = model.AgentTimeout
		}
		e.finishAttempt(span, agentType, attemptStatus, duration, err)

		if attempts <= maxRetries {
			slog.Debug("agent attempt failed, retrying", "agent_id", id, "attempts", attempts, "timeout", timedOut, "error", err)
			if !e.sleepBackoff(ctx, attempts) {
				return model.AgentResult{AgentID: id, Status: model.AgentCancelled, Output: map[string]any{}, Error: "workflow cancelled", Attempts: attempts, DurationSeconds: duration}
			}
			continue
		}

		if timedOut {
			return model.AgentResult{
				AgentID: id, Status: model.AgentTimeout, Output: map[string]any{},
				Error: fmt.Sprintf("timeout after %d attempts", attempts), Attempts: attempts, DurationSeconds: duration,
			}
		}
		return model.AgentResult{
			AgentID: id, Status: model.AgentFailed, Output: map[string]any{},
			Error: err.Error(), Attempts: attempts, DurationSeconds: duration,
		}
	}
}

// finishAttempt closes out span and reports the attempt to e.recorder,
// grounded on hector's pkg/agent/instrumentation.go pairing of a tracer
// span with a metrics recording around one unit of agent work.
func (e *Engine) finishAttempt(span trace.Span, agentType string, status model.AgentStatus, durationSeconds float64, err error) {
	span.SetAttributes(attribute.String("status", string(status)))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	if e.recorder != nil {
		e.recorder.RecordAgentAttempt(agentType, string(status), durationSeconds)
	}
}

// sleepBackoff waits the exponential backoff delay for the attempt just
// completed (1s, 2s, 4s, ... capped at 60s), returning false if ctx was
// cancelled while waiting.
func (e *Engine) sleepBackoff(ctx context.Context, attempts int) bool {
	delay := time.Duration(math.Pow(2, float64(attempts-1))) * e.backoffBase()
	if cap := e.backoffCap(); delay > cap {
		delay = cap
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Status returns a point-in-time snapshot of workflowID's result, whether
// it is still running or has reached a terminal status (subject to the
// engine's bounded history retention).
func (e *Engine) Status(workflowID string) (model.WorkflowResult, bool) {
	e.mu.RLock()
	r, ok := e.active[workflowID]
	e.mu.RUnlock()
	if ok {
		return r.snapshot(), true
	}
	return e.history.get(workflowID)
}

// Cancel requests cooperative cancellation of workflowID. It returns
// whether a running workflow was found that had not already been asked to
// cancel; it is idempotent (a second call after the first always returns
// false, even while the cancelled workflow is still winding down).
func (e *Engine) Cancel(workflowID string) bool {
	e.mu.RLock()
	r, ok := e.active[workflowID]
	e.mu.RUnlock()
	if !ok {
		return false
	}

	r.mu.Lock()
	alreadyCancelled := r.cancelled
	r.cancelled = true
	r.mu.Unlock()

	r.cancelFn()
	return !alreadyCancelled
}

// ListActive returns the workflow ids currently executing.
func (e *Engine) ListActive() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	return ids
}

// lruHistory is a small bounded LRU of completed WorkflowResults, used so
// Status() keeps answering for a finished workflow without requiring
// unbounded memory growth. No LRU package is directly imported anywhere
// in the wider codebase's dependency stack (only present transitively via
// an unrelated client), so this is a small container/list-backed
// implementation rather than an ecosystem import — see DESIGN.md.
type lruHistory struct {
	mu    sync.Mutex
	limit int
	ll    *list.List
	index map[string]*list.Element
}

type lruEntry struct {
	id     string
	result model.WorkflowResult
}

func newLRUHistory(limit int) *lruHistory {
	return &lruHistory{limit: limit, ll: list.New(), index: make(map[string]*list.Element)}
}

func (h *lruHistory) add(result model.WorkflowResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if el, ok := h.index[result.WorkflowID]; ok {
		h.ll.Remove(el)
	}
	el := h.ll.PushFront(&lruEntry{id: result.WorkflowID, result: result})
	h.index[result.WorkflowID] = el

	for h.ll.Len() > h.limit {
		oldest := h.ll.Back()
		if oldest == nil {
			break
		}
		h.ll.Remove(oldest)
		delete(h.index, oldest.Value.(*lruEntry).id)
	}
}

func (h *lruHistory) get(workflowID string) (model.WorkflowResult, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	el, ok := h.index[workflowID]
	if !ok {
		return model.WorkflowResult{}, false
	}
	h.ll.MoveToFront(el)
	return el.Value.(*lruEntry).result.Snapshot(), true
}
