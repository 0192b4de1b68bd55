package agent_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mcplens/inspector/internal/agent"
	"github.com/mcplens/inspector/internal/llmclient"
)

// routedTransport dispatches to a different canned response queue depending
// on which of the three llmclient prompt templates it was given, so a
// single fake transport can drive dependency-analysis, extraction, and
// selection independently — and across successive iterations — within one
// orchestrator run. Each queue's last element repeats once exhausted.
type routedTransport struct {
	selectResps  []string
	selectErr    error
	extractResps []string
	extractErr   error

	selectIdx  int
	extractIdx int
}

func (r *routedTransport) Complete(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "driving an autonomous tool-chaining loop"):
		resp := next(r.selectResps, &r.selectIdx)
		return resp, r.selectErr
	case strings.Contains(prompt, "resolving parameters for a tool call"):
		resp := next(r.extractResps, &r.extractIdx)
		return resp, r.extractErr
	default: // dependency analysis — unused by the orchestrator's own logic
		return "[]", nil
	}
}

func next(queue []string, idx *int) string {
	if len(queue) == 0 {
		return ""
	}
	i := *idx
	if i >= len(queue) {
		i = len(queue) - 1
	} else {
		*idx++
	}
	return queue[i]
}

func fixedClock() func() int64 {
	var t int64
	return func() int64 {
		t++
		return t
	}
}

func waitForEvent(t *testing.T, ch <-chan agent.Event, want agent.EventType) agent.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("event %q never observed", want)
		}
	}
}

func TestOrchestrator_Configure_RejectsWhileRunning(t *testing.T) {
	llm := llmclient.NewClient(&routedTransport{selectErr: errors.New("down")})
	o := agent.NewOrchestrator(fixedClock())
	block := make(chan struct{})
	toolCall := func(ctx context.Context, _ string, _ map[string]any) (any, error) {
		<-block
		return nil, ctx.Err()
	}
	listTools := func(_ context.Context) ([]llmclient.ToolDescriptor, error) {
		return []llmclient.ToolDescriptor{{Name: "noop"}}, nil
	}
	if err := o.Configure(llm, toolCall, listTools, agent.DefaultMaxDepth); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := o.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		close(block)
		o.Stop()
	}()

	if err := o.Configure(llm, toolCall, listTools, agent.DefaultMaxDepth); err == nil {
		t.Fatalf("expected Configure to reject while running")
	}
}

func TestOrchestrator_NoResolvableTool_CompletesWithoutExecuting(t *testing.T) {
	llm := llmclient.NewClient(&routedTransport{selectErr: errors.New("down")})
	o := agent.NewOrchestrator(fixedClock())
	calls := 0
	toolCall := func(_ context.Context, _ string, _ map[string]any) (any, error) {
		calls++
		return map[string]any{}, nil
	}
	listTools := func(_ context.Context) ([]llmclient.ToolDescriptor, error) {
		return []llmclient.ToolDescriptor{{Name: "getIssue", Required: []string{"issueId"}}}, nil
	}

	if err := o.Configure(llm, toolCall, listTools, agent.DefaultMaxDepth); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	ch, unsub := o.Subscribe()
	defer unsub()
	if err := o.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitForEvent(t, ch, agent.EventAgentComplete)
	snap := o.GetState()
	if snap.Status != agent.StatusCompleted {
		t.Fatalf("Status = %v, want completed", snap.Status)
	}
	if calls != 0 {
		t.Fatalf("toolCall invoked %d times, want 0", calls)
	}
}

func TestOrchestrator_ExecutesResolvableToolThenCompletes(t *testing.T) {
	llm := llmclient.NewClient(&routedTransport{
		selectResps:  []string{`{"tool":"search","reason":"no params needed"}`},
		extractResps: []string{`{"params":{},"sources":{},"confidence":1,"missingParams":[]}`},
	})
	o := agent.NewOrchestrator(fixedClock())
	var calledWith string
	toolCall := func(_ context.Context, name string, _ map[string]any) (any, error) {
		calledWith = name
		return map[string]any{"results": []any{map[string]any{"id": "ABC-1"}}}, nil
	}
	listTools := func(_ context.Context) ([]llmclient.ToolDescriptor, error) {
		return []llmclient.ToolDescriptor{{Name: "search"}}, nil
	}

	if err := o.Configure(llm, toolCall, listTools, agent.DefaultMaxDepth); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	ch, unsub := o.Subscribe()
	defer unsub()
	if err := o.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitForEvent(t, ch, agent.EventToolComplete)
	waitForEvent(t, ch, agent.EventAgentComplete)

	if calledWith != "search" {
		t.Fatalf("toolCall name = %q, want search", calledWith)
	}
	snap := o.GetState()
	if len(snap.History) != 1 || snap.History[0].Status != "completed" {
		t.Fatalf("History = %+v", snap.History)
	}
}

func TestOrchestrator_LowConfidenceExtraction_FlagsToolAndContinues(t *testing.T) {
	llm := llmclient.NewClient(&routedTransport{
		selectResps:  []string{`{"tool":"getIssue","reason":"only candidate"}`},
		extractResps: []string{`{"params":{},"sources":{},"confidence":0.1,"missingParams":["issueId"]}`},
	})
	o := agent.NewOrchestrator(fixedClock())
	calls := 0
	toolCall := func(_ context.Context, _ string, _ map[string]any) (any, error) {
		calls++
		return map[string]any{}, nil
	}
	listTools := func(_ context.Context) ([]llmclient.ToolDescriptor, error) {
		return []llmclient.ToolDescriptor{{Name: "getIssue", Required: []string{"issueId"}}}, nil
	}

	if err := o.Configure(llm, toolCall, listTools, agent.DefaultMaxDepth); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	ch, unsub := o.Subscribe()
	defer unsub()
	if err := o.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitForEvent(t, ch, agent.EventToolSkipped)

	// The tool stays in Executed so selectNextTool won't keep offering it;
	// with no other candidates the run completes without ever invoking it.
	waitForEvent(t, ch, agent.EventAgentComplete)

	if calls != 0 {
		t.Fatalf("toolCall invoked %d times, want 0 (flagged, not executed)", calls)
	}
	snap := o.GetState()
	if len(snap.FlaggedTools) != 1 || snap.FlaggedTools[0].Tool != "getIssue" {
		t.Fatalf("FlaggedTools = %+v", snap.FlaggedTools)
	}
	if snap.FlaggedTools[0].Reason != "Could not resolve required parameters from available context" {
		t.Fatalf("Reason = %q", snap.FlaggedTools[0].Reason)
	}
}

func TestOrchestrator_DepthBound_StopsSelectingOnceMaxDepthReached(t *testing.T) {
	// "search" has no required params so it resolves at depth 1 and
	// executes; with maxDepth=1, the next selectNextTool call observes
	// currentDepth(1) >= maxDepth(1) and short-circuits before "getIssue"
	// (which would need depth 2) is ever offered (spec.md §4.4 step (a)).
	llm := llmclient.NewClient(&routedTransport{
		selectResps:  []string{`{"tool":"search","reason":"no params needed"}`},
		extractResps: []string{`{"params":{},"sources":{},"confidence":1,"missingParams":[]}`},
	})
	o := agent.NewOrchestrator(fixedClock())
	var executedNames []string
	toolCall := func(_ context.Context, name string, _ map[string]any) (any, error) {
		executedNames = append(executedNames, name)
		return map[string]any{"id": "ABC-1"}, nil
	}
	listTools := func(_ context.Context) ([]llmclient.ToolDescriptor, error) {
		return []llmclient.ToolDescriptor{
			{Name: "search"},
			{Name: "getIssue", Required: []string{"issueId"}},
		}, nil
	}

	if err := o.Configure(llm, toolCall, listTools, 1); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	ch, unsub := o.Subscribe()
	defer unsub()
	if err := o.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForEvent(t, ch, agent.EventAgentComplete)

	if len(executedNames) != 1 || executedNames[0] != "search" {
		t.Fatalf("executed = %v, want only [search]", executedNames)
	}
	snap := o.GetState()
	if snap.CurrentDepth != 1 {
		t.Fatalf("CurrentDepth = %d, want 1", snap.CurrentDepth)
	}
	if snap.DoneReason != "Maximum depth reached" {
		t.Fatalf("DoneReason = %q", snap.DoneReason)
	}
}

func TestOrchestrator_PauseResume_SuspendsBetweenIterations(t *testing.T) {
	llm := llmclient.NewClient(&routedTransport{selectErr: errors.New("down")})
	o := agent.NewOrchestrator(fixedClock())
	toolCall := func(_ context.Context, _ string, _ map[string]any) (any, error) {
		return map[string]any{}, nil
	}
	listTools := func(_ context.Context) ([]llmclient.ToolDescriptor, error) {
		return []llmclient.ToolDescriptor{{Name: "a"}}, nil
	}
	if err := o.Configure(llm, toolCall, listTools, agent.DefaultMaxDepth); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := o.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := o.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if got := o.GetState().Status; got != agent.StatusPaused {
		t.Fatalf("Status = %v, want paused", got)
	}
	if err := o.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	o.Stop()
}

func TestOrchestrator_Stop_CancelsBlockedToolCall(t *testing.T) {
	llm := llmclient.NewClient(&routedTransport{
		selectResps:  []string{`{"tool":"slow","reason":"only candidate"}`},
		extractResps: []string{`{"params":{},"sources":{},"confidence":1,"missingParams":[]}`},
	})
	o := agent.NewOrchestrator(fixedClock())
	started := make(chan struct{})
	toolCall := func(ctx context.Context, _ string, _ map[string]any) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	listTools := func(_ context.Context) ([]llmclient.ToolDescriptor, error) {
		return []llmclient.ToolDescriptor{{Name: "slow"}}, nil
	}
	if err := o.Configure(llm, toolCall, listTools, agent.DefaultMaxDepth); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	ch, unsub := o.Subscribe()
	defer unsub()
	if err := o.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	<-started
	o.Stop()

	// The blocked call's result is discarded, not recorded: no tool_failed
	// event is ever emitted for it (spec.md §5, §4.4 "stop()").
	waitForEvent(t, ch, agent.EventAgentComplete)

	snap := o.GetState()
	if snap.Status != agent.StatusIdle {
		t.Fatalf("Status = %v, want idle after stop", snap.Status)
	}
	if len(snap.History) != 1 || snap.History[0].Status != "running" {
		t.Fatalf("History = %+v, want the in-flight step left as running (discarded, not recorded failed)", snap.History)
	}
}
