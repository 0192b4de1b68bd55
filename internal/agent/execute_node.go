package agent

import (
	"context"

	"github.com/mcplens/inspector/internal/core"
)

// executePrep is what executeNode.Exec needs to invoke the tool call.
type executePrep struct {
	toolName string
	nodeID   string
	params   map[string]any
	sources  map[string]string
	depth    int
}

// execOutcome carries either a tool result or a tool-call error out of
// Exec. Tool-call failures are business outcomes, not framework errors
// (spec.md §4.4 step (l): "execution continues — tool failures are
// non-fatal"), so Exec itself always returns a nil error. ExecFallback is
// reached only when the context is already cancelled before the call starts
// (Node checks it before each attempt); a cancellation during the call comes
// back inside execOutcome.
type execOutcome struct {
	result any
	err    error
}

// executeNodeImpl implements BaseNode[State, executePrep, execOutcome] —
// the third and terminal node of one execution-loop iteration (spec.md
// §4.4 step (l)): invokes the selected tool and records its outcome on the
// graph and in history.
type executeNodeImpl struct {
	toolCall ToolCallFn
	now      func() int64
	emit     func(Event)
}

func newExecuteNode(toolCall ToolCallFn, now func() int64, emit func(Event)) *executeNodeImpl {
	return &executeNodeImpl{toolCall: toolCall, now: now, emit: emit}
}

func (n *executeNodeImpl) Prep(state *State) []executePrep {
	if state.pendingToolName == "" {
		return nil
	}
	return []executePrep{{
		toolName: state.pendingToolName,
		nodeID:   state.pendingNodeID,
		params:   state.pendingExt.Params,
		sources:  state.pendingSources,
		depth:    state.pendingDepth,
	}}
}

func (n *executeNodeImpl) Exec(ctx context.Context, prep executePrep) (execOutcome, error) {
	result, err := n.toolCall(ctx, prep.toolName, prep.params)
	return execOutcome{result: result, err: err}, nil
}

func (n *executeNodeImpl) ExecFallback(err error) execOutcome {
	return execOutcome{err: err}
}

func (n *executeNodeImpl) Post(state *State, prepRes []executePrep, results ...execOutcome) core.Action {
	if len(prepRes) == 0 || len(results) == 0 {
		return core.ActionEnd
	}
	prep := prepRes[0]
	outcome := results[0]

	if state.Cancelled {
		// The run was stopped while this call was in flight: its result
		// (success or failure) is discarded rather than recorded, and no
		// event is emitted for it (spec.md §5 "any in-flight... call must
		// be abandoned... discarded"; §4.4 "stop()").
		return core.ActionEnd
	}

	idx := lastHistoryIndex(state.History, prep.nodeID)

	if outcome.err != nil {
		if idx >= 0 {
			state.History[idx].Status = "failed"
			state.History[idx].Error = outcome.err.Error()
		}
		state.Graph.MarkToolFailed(prep.nodeID, outcome.err)
		n.emit(Event{Type: EventToolFailed, Timestamp: n.now(), Data: map[string]any{
			"tool": prep.toolName, "nodeId": prep.nodeID, "error": outcome.err.Error(),
		}})
		return core.ActionEnd
	}

	if idx >= 0 {
		state.History[idx].Status = "completed"
		state.History[idx].Result = outcome.result
	}
	state.Graph.RecordToolExecution(prep.nodeID, outcome.result, prep.sources)
	n.emit(Event{Type: EventToolComplete, Timestamp: n.now(), Data: map[string]any{
		"tool": prep.toolName, "nodeId": prep.nodeID, "result": outcome.result,
	}})
	return core.ActionEnd
}

func lastHistoryIndex(history []ExecutionStep, nodeID string) int {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].NodeID == nodeID {
			return i
		}
	}
	return -1
}
