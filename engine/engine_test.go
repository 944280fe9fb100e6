package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devlaiger/taskflow/agent"
	"github.com/devlaiger/taskflow/model"
)

func registerCustom(t *testing.T, r *agent.Registry, agentType string, fn agent.CustomFunc) {
	t.Helper()
	err := r.Register(agentType, "test agent", func(spec model.AgentSpec) (agent.Agent, error) {
		return agent.NewCustomAgent(spec, fn), nil
	})
	require.NoError(t, err)
}

func newTestEngine(t *testing.T) (*Engine, *agent.Registry) {
	t.Helper()
	reg := agent.NewRegistry()
	eng := New(reg, WithBackoff(time.Millisecond, 5*time.Millisecond))
	return eng, reg
}

func TestExecute_LinearChainSuccess(t *testing.T) {
	eng, reg := newTestEngine(t)
	registerCustom(t, reg, "double", func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		n, _ := inputs["initial"].(int)
		return map[string]any{"value": n * 2}, nil
	})
	registerCustom(t, reg, "increment", func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		upstream, _ := inputs["A"].(map[string]any)
		v, _ := upstream["value"].(int)
		return map[string]any{"value": v + 1}, nil
	})

	req := model.WorkflowRequest{
		InitialInput: map[string]any{"initial": 10},
		Agents: []model.AgentSpec{
			{AgentID: "A", AgentType: "double"},
			{AgentID: "B", AgentType: "increment", Inputs: []string{"A"}},
		},
	}

	result, err := eng.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowSuccess, result.Status)
	assert.Equal(t, model.AgentSuccess, result.AgentResults["A"].Status)
	assert.Equal(t, 21, result.AgentResults["B"].Output["value"])
}

func TestExecute_RetryThenSucceed(t *testing.T) {
	eng, reg := newTestEngine(t)
	var attempts int32
	registerCustom(t, reg, "flaky", func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return nil, errors.New("transient failure")
		}
		return map[string]any{"ok": true}, nil
	})

	req := model.WorkflowRequest{
		Agents: []model.AgentSpec{
			{AgentID: "A", AgentType: "flaky", MaxRetries: intPtr(2)},
		},
	}

	result, err := eng.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowSuccess, result.Status)
	assert.Equal(t, 3, result.AgentResults["A"].Attempts)
}

func TestExecute_ExhaustsRetriesAndFails(t *testing.T) {
	eng, reg := newTestEngine(t)
	registerCustom(t, reg, "alwaysFails", func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		return nil, errors.New("permanent failure")
	})

	req := model.WorkflowRequest{
		Agents: []model.AgentSpec{
			{AgentID: "A", AgentType: "alwaysFails", MaxRetries: intPtr(2)},
		},
	}

	result, err := eng.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowFailed, result.Status)
	assert.Equal(t, model.AgentFailed, result.AgentResults["A"].Status)
	assert.Equal(t, 3, result.AgentResults["A"].Attempts)
}

func TestExecute_AgentTimesOut(t *testing.T) {
	eng, reg := newTestEngine(t)
	registerCustom(t, reg, "slow", func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		select {
		case <-time.After(50 * time.Millisecond):
			return map[string]any{"ok": true}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	req := model.WorkflowRequest{
		Agents: []model.AgentSpec{
			{AgentID: "A", AgentType: "slow", MaxRetries: intPtr(0), TimeoutSeconds: floatPtr(0.01)},
		},
	}

	result, err := eng.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowFailed, result.Status)
	assert.Equal(t, model.AgentTimeout, result.AgentResults["A"].Status)
	assert.Equal(t, 1, result.AgentResults["A"].Attempts)
}

func TestExecute_ContinueOnErrorSkipsDownstream(t *testing.T) {
	eng, reg := newTestEngine(t)
	registerCustom(t, reg, "fails", func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		return nil, errors.New("boom")
	})
	var ranB int32
	registerCustom(t, reg, "ok", func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		atomic.AddInt32(&ranB, 1)
		return map[string]any{"ok": true}, nil
	})

	req := model.WorkflowRequest{
		ContinueOnError: true,
		Agents: []model.AgentSpec{
			{AgentID: "A", AgentType: "fails", MaxRetries: intPtr(0)},
			{AgentID: "B", AgentType: "ok", Inputs: []string{"A"}},
		},
	}

	result, err := eng.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowFailed, result.Status)
	assert.Equal(t, model.AgentSkipped, result.AgentResults["B"].Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ranB))
}

func TestExecute_PartialStatusWhenOneBranchFails(t *testing.T) {
	eng, reg := newTestEngine(t)
	registerCustom(t, reg, "fails", func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		return nil, errors.New("boom")
	})
	registerCustom(t, reg, "ok", func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		return map[string]any{"ok": true}, nil
	})

	req := model.WorkflowRequest{
		ContinueOnError: true,
		Agents: []model.AgentSpec{
			{AgentID: "A", AgentType: "fails", MaxRetries: intPtr(0)},
			{AgentID: "B", AgentType: "ok"},
		},
	}

	result, err := eng.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowPartial, result.Status)
	assert.Equal(t, model.AgentSuccess, result.AgentResults["B"].Status)
}

func TestExecute_CancelStopsWorkflow(t *testing.T) {
	eng, reg := newTestEngine(t)
	started := make(chan struct{})
	registerCustom(t, reg, "blocker", func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	req := model.WorkflowRequest{
		WorkflowID: "cancel-me",
		Agents: []model.AgentSpec{
			{AgentID: "A", AgentType: "blocker", MaxRetries: intPtr(0), TimeoutSeconds: floatPtr(5)},
		},
	}

	done := make(chan model.WorkflowResult, 1)
	go func() {
		result, _ := eng.Execute(context.Background(), req)
		done <- result
	}()

	<-started
	assert.True(t, eng.Cancel("cancel-me"))
	assert.False(t, eng.Cancel("cancel-me"))

	result := <-done
	assert.Equal(t, model.WorkflowCancelled, result.Status)
	assert.Equal(t, model.AgentCancelled, result.AgentResults["A"].Status)
}

func TestExecute_InvalidDAGFailsFast(t *testing.T) {
	eng, _ := newTestEngine(t)
	req := model.WorkflowRequest{
		Agents: []model.AgentSpec{
			{AgentID: "A", AgentType: "missing", Inputs: []string{"ghost"}},
		},
	}

	result, err := eng.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.WorkflowFailed, result.Status)
	assert.Contains(t, result.Error, "ghost")
}

func TestStatus_ReturnsHistoryAfterCompletion(t *testing.T) {
	eng, reg := newTestEngine(t)
	registerCustom(t, reg, "ok", func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
		return map[string]any{"ok": true}, nil
	})

	req := model.WorkflowRequest{WorkflowID: "done-1", Agents: []model.AgentSpec{{AgentID: "A", AgentType: "ok"}}}
	_, err := eng.Execute(context.Background(), req)
	require.NoError(t, err)

	result, ok := eng.Status("done-1")
	require.True(t, ok)
	assert.Equal(t, model.WorkflowSuccess, result.Status)

	_, ok = eng.Status("never-existed")
	assert.False(t, ok)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
