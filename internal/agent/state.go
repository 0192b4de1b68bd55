package agent

import (
	"github.com/mcplens/inspector/internal/graph"
	"github.com/mcplens/inspector/internal/llmclient"
)

// DefaultMaxDepth is the default dependency-chain depth bound (spec.md
// §3.7).
const DefaultMaxDepth = 10

// State is the shared state threaded through the select→extract→execute
// Flow (spec.md §4.4, §3.7). NOT goroutine-safe: all fields must be
// accessed from a single goroutine — the orchestrator's run loop
// guarantees this, the same way the teacher's AgentState relies on
// single-goroutine access via Flow.Run.
type State struct {
	Tools    []llmclient.ToolDescriptor
	Analysis []llmclient.DependencyAnalysis
	Graph    *graph.Graph

	Executed     map[string]bool
	ToolDepths   map[string]int // toolName -> recorded depth, first-write-wins (spec.md §9)
	CurrentDepth int
	MaxDepth     int

	History      []ExecutionStep
	FlaggedTools []FlaggedTool

	// Cancelled is observed at well-defined suspension points (spec.md §5);
	// set by Orchestrator.Stop via the outer loop, never by the nodes
	// themselves.
	Cancelled bool

	// Done is set by selectNode.Post when the loop should not continue
	// (pick.Tool == nil): the outer Go loop (the orchestrator's own
	// depth-bounded repetition of this bounded Flow — spec.md §4.4 step 3)
	// checks this between Flow.Run calls rather than Flow looping
	// internally, so pause/stop/cancel can also be observed at the same
	// boundary.
	Done       bool
	DoneReason string

	// Transient fields: selectNode writes pendingToolName/pendingNodeID,
	// extractNode reads those and writes pendingDepth/pendingExt/
	// pendingSources, executeNode reads them all.
	// Mirrors the teacher's LastDecision node-to-node state passing
	// (internal/agent.AgentState.LastDecision in the teacher repo).
	pendingToolName string
	pendingNodeID   string
	pendingDepth    int
	pendingExt      llmclient.ExtractResult
	pendingSources  map[string]string // paramName -> resolved source node id
}

// NewState creates a fresh State for one orchestrator run.
func NewState(maxDepth int, clock func() int64) *State {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &State{
		Graph:      graph.New(clock),
		Executed:   make(map[string]bool),
		ToolDepths: make(map[string]int),
		MaxDepth:   maxDepth,
	}
}

// toolByName returns the descriptor for name, if present in the catalog.
func (s *State) toolByName(name string) (llmclient.ToolDescriptor, bool) {
	for _, t := range s.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return llmclient.ToolDescriptor{}, false
}
