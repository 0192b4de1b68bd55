package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcplens/inspector/internal/core"
	"github.com/mcplens/inspector/internal/graph"
	"github.com/mcplens/inspector/internal/llmclient"
)

// Snapshot is the read-only view of the orchestrator's current state,
// returned by GetState (spec.md §6.4).
type Snapshot struct {
	Status       Status                          `json:"status"`
	CurrentDepth int                             `json:"currentDepth"`
	MaxDepth     int                             `json:"maxDepth"`
	History      []ExecutionStep                 `json:"history"`
	FlaggedTools []FlaggedTool                   `json:"flaggedTools"`
	Graph        graph.Snapshot                  `json:"graph"`
	Done         bool                            `json:"done"`
	DoneReason   string                          `json:"doneReason,omitempty"`
	Analysis     []llmclient.DependencyAnalysis  `json:"analysis,omitempty"`
}

// Orchestrator is the Agent Orchestrator (spec.md §4.4): it discovers
// tools, analyzes their dependencies, then repeatedly runs one bounded
// select→extract→execute Flow iteration until the run ends, pauses, or is
// stopped — guarded throughout by a single mutex the way the teacher's
// session.Store guards its map, with a sync.Cond gating the pause/resume
// suspension point the way haasonsaas-nexus's infra.Semaphore gates its
// waiters.
type Orchestrator struct {
	mu       sync.Mutex
	cond     *sync.Cond
	status   Status
	paused   bool
	stopping bool

	llm       *llmclient.Client
	toolCall  ToolCallFn
	listTools ListToolsFn
	maxDepth  int
	clock     func() int64

	state *State
	bus   *EventBus
	flow  *core.Flow[State]

	cancel context.CancelFunc
	done   chan struct{}
}

// NewOrchestrator creates an unconfigured Orchestrator. Configure must be
// called before Start.
func NewOrchestrator(clock func() int64) *Orchestrator {
	o := &Orchestrator{clock: clock}
	o.cond = sync.NewCond(&o.mu)
	o.bus = NewEventBus(o.snapshotEvent)
	return o
}

// Configure wires the orchestrator's collaborators and transitions it to
// idle (spec.md §4.4 "unconfigured → idle"). It is an error to Configure a
// running or paused orchestrator.
func (o *Orchestrator) Configure(llm *llmclient.Client, toolCall ToolCallFn, listTools ListToolsFn, maxDepth int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status == StatusRunning || o.status == StatusPaused {
		return fmt.Errorf("agent: cannot configure while status is %q", o.status)
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	o.llm = llm
	o.toolCall = toolCall
	o.listTools = listTools
	o.maxDepth = maxDepth
	o.status = StatusIdle
	return nil
}

// Subscribe registers a new event subscriber (spec.md §4.4 "Event bus").
func (o *Orchestrator) Subscribe() (<-chan Event, func()) {
	return o.bus.Subscribe()
}

// GetState returns a snapshot of the orchestrator's current state.
func (o *Orchestrator) GetState() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{Status: o.status}
	if o.state != nil {
		s.CurrentDepth = o.state.CurrentDepth
		s.MaxDepth = o.state.MaxDepth
		s.History = append([]ExecutionStep(nil), o.state.History...)
		s.FlaggedTools = append([]FlaggedTool(nil), o.state.FlaggedTools...)
		s.Graph = o.state.Graph.Snapshot()
		s.Done = o.state.Done
		s.DoneReason = o.state.DoneReason
		s.Analysis = o.state.Analysis
	}
	return s
}

func (o *Orchestrator) snapshotEvent() Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Event{Type: EventState, Timestamp: o.clock(), Data: o.snapshotLocked()}
}

// Start discovers the tool catalog, analyzes dependencies, and launches the
// execution loop on a background goroutine (spec.md §4.4 steps 1–3). Start
// returns once the loop has been launched; it does not wait for completion.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	if o.status != StatusIdle {
		o.mu.Unlock()
		return fmt.Errorf("agent: cannot start from status %q", o.status)
	}
	o.status = StatusRunning
	o.paused = false
	o.stopping = false
	o.state = NewState(o.maxDepth, o.clock)
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.done = make(chan struct{})
	o.mu.Unlock()

	o.publish(Event{Type: EventStatusChange, Timestamp: o.clock(), Data: StatusRunning})

	go o.run(ctx)
	return nil
}

// Pause requests that the run loop suspend at its next iteration boundary
// (spec.md §5 "well-defined suspension points").
func (o *Orchestrator) Pause() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusRunning {
		return fmt.Errorf("agent: cannot pause from status %q", o.status)
	}
	o.paused = true
	o.status = StatusPaused
	o.cond.Broadcast()
	return nil
}

// Resume wakes a paused run loop.
func (o *Orchestrator) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status != StatusPaused {
		return fmt.Errorf("agent: cannot resume from status %q", o.status)
	}
	o.paused = false
	o.status = StatusRunning
	o.cond.Broadcast()
	return nil
}

// Stop cancels the run loop. It is idempotent and safe to call regardless
// of current status.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.state != nil {
		o.state.Cancelled = true
	}
	o.stopping = true
	o.paused = false
	cancel := o.cancel
	o.cond.Broadcast()
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// run is the background goroutine body: steps 1–3 of spec.md §4.4, then
// the outer depth-bounded, cancellable, pause-aware repetition of the
// bounded select→extract→execute Flow.
func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)

	o.mu.Lock()
	state := o.state
	llmClient := o.llm
	listTools := o.listTools
	o.mu.Unlock()

	tools, err := listTools(ctx)
	if err != nil {
		o.finish(StatusError, fmt.Sprintf("tool discovery failed: %v", err))
		return
	}
	state.Tools = tools
	state.Analysis = llmClient.AnalyzeToolDependencies(ctx, tools)
	o.publish(Event{Type: EventAnalysisComplete, Timestamp: o.clock(), Data: state.Analysis})

	flow := buildIterationFlow(llmClient, o.toolCall, o.clock, o.publish)

	for {
		o.mu.Lock()
		for o.paused && !o.stopping {
			o.cond.Wait()
		}
		stopping := o.stopping
		o.mu.Unlock()

		if stopping || state.Cancelled || state.Done || ctx.Err() != nil {
			break
		}

		flow.Run(ctx, state)
	}

	if state.Cancelled || ctx.Err() != nil {
		// stop() transitions to idle, not completed (spec.md §4.4 "stop()");
		// any in-flight call's result has already been discarded by the
		// nodes themselves rather than recorded (spec.md §5).
		o.finish(StatusIdle, "cancelled")
		return
	}
	o.finish(StatusCompleted, state.DoneReason)
}

func (o *Orchestrator) finish(status Status, reason string) {
	o.mu.Lock()
	o.status = status
	o.mu.Unlock()
	evType := EventAgentComplete
	if status == StatusError {
		evType = EventError
	}
	o.publish(Event{Type: evType, Timestamp: o.clock(), Data: map[string]any{"reason": reason}})
}

func (o *Orchestrator) publish(ev Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = o.clock()
	}
	o.bus.Publish(ev)
}
