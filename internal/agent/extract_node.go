package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcplens/inspector/internal/core"
	"github.com/mcplens/inspector/internal/llmclient"
)

// missingParamConfidenceThreshold is the confidence floor below which
// missing required parameters flag the tool instead of letting it run with
// partial parameters (spec.md §4.4 step i).
const missingParamConfidenceThreshold = 0.5

// extractPrep is what extractNode.Exec needs to call ExtractParameters.
type extractPrep struct {
	nodeID  string
	tool    llmclient.ToolDescriptor
	context map[string]any
}

// extractNodeImpl implements BaseNode[State, extractPrep,
// llmclient.ExtractResult] — the second node of one execution-loop
// iteration (spec.md §4.4 steps h–j): resolves the selected tool's
// parameters from accumulated graph context and computes its dependency
// depth.
type extractNodeImpl struct {
	llm  *llmclient.Client
	now  func() int64
	emit func(Event)
}

func newExtractNode(llm *llmclient.Client, now func() int64, emit func(Event)) *extractNodeImpl {
	return &extractNodeImpl{llm: llm, now: now, emit: emit}
}

func (n *extractNodeImpl) Prep(state *State) []extractPrep {
	if state.pendingToolName == "" {
		return nil
	}
	tool, ok := state.toolByName(state.pendingToolName)
	if !ok {
		return nil
	}
	return []extractPrep{{
		nodeID:  state.pendingNodeID,
		tool:    tool,
		context: state.Graph.GetAvailableContext(),
	}}
}

func (n *extractNodeImpl) Exec(ctx context.Context, prep extractPrep) (llmclient.ExtractResult, error) {
	return n.llm.ExtractParameters(ctx, prep.tool, prep.context), nil
}

func (n *extractNodeImpl) ExecFallback(err error) llmclient.ExtractResult {
	return llmclient.ExtractResult{Confidence: 0, MissingParams: []string{err.Error()}}
}

func (n *extractNodeImpl) Post(state *State, prepRes []extractPrep, results ...llmclient.ExtractResult) core.Action {
	if len(prepRes) == 0 || len(results) == 0 {
		return core.ActionEnd
	}
	if state.Cancelled {
		// The run was stopped while this extraction call was in flight:
		// discard it rather than recording it or advancing to execute
		// (spec.md §5 "any in-flight LLM or tool call must be abandoned").
		return core.ActionEnd
	}
	toolName := state.pendingToolName
	nodeID := state.pendingNodeID
	ext := results[0]

	if len(ext.MissingParams) > 0 && ext.Confidence < missingParamConfidenceThreshold {
		reason := "Could not resolve required parameters from available context"
		state.FlaggedTools = append(state.FlaggedTools, FlaggedTool{Tool: toolName, Reason: reason})
		state.Graph.MarkToolSkipped(nodeID, reason, ext.MissingParams)
		n.emitSkipped(toolName, nodeID, reason)
		return core.ActionEnd
	}

	depth, alreadyKnown := state.ToolDepths[toolName]
	if !alreadyKnown {
		depth = n.computeDepth(state, ext.Sources)
		state.ToolDepths[toolName] = depth
	}

	if depth > state.MaxDepth {
		reason := fmt.Sprintf("Exceeds max depth (%d > %d)", depth, state.MaxDepth)
		state.FlaggedTools = append(state.FlaggedTools, FlaggedTool{Tool: toolName, Reason: reason})
		state.Graph.MarkToolSkipped(nodeID, reason, nil)
		n.emitSkipped(toolName, nodeID, reason)
		return core.ActionEnd
	}

	if depth > state.CurrentDepth {
		state.CurrentDepth = depth
	}

	sources := make(map[string]string, len(ext.Sources))
	for param, label := range ext.Sources {
		sourceTool := sourceToolName(label)
		if sourceNodeID, ok := state.Graph.NodeIDForTool(sourceTool); ok {
			sources[param] = sourceNodeID
		}
	}

	state.Graph.MarkToolRunning(nodeID, ext.Params)
	state.History = append(state.History, ExecutionStep{
		ToolName:         toolName,
		NodeID:           nodeID,
		Parameters:       ext.Params,
		ParameterSources: sources,
		Status:           "running",
		Timestamp:        n.now(),
		Depth:            depth,
	})
	n.emit(Event{Type: EventToolStart, Timestamp: n.now(), Data: map[string]any{
		"tool": toolName, "nodeId": nodeID, "parameters": ext.Params, "depth": depth,
	}})

	state.pendingExt = ext
	state.pendingSources = sources
	state.pendingDepth = depth
	return core.ActionContinue
}

func (n *extractNodeImpl) emitSkipped(toolName, nodeID, reason string) {
	n.emit(Event{Type: EventToolSkipped, Timestamp: n.now(), Data: map[string]any{
		"tool": toolName, "nodeId": nodeID, "reason": reason,
	}})
}

// computeDepth implements spec.md §4.4 step j: toolDepths[toolName] = 1 +
// max(sourceDepths, default 0), where each source's depth is looked up by
// the tool name named before the first '.' in its source label.
func (n *extractNodeImpl) computeDepth(state *State, sources map[string]string) int {
	max := 0
	for _, label := range sources {
		sourceTool := sourceToolName(label)
		if d, ok := state.ToolDepths[sourceTool]; ok && d > max {
			max = d
		}
	}
	return 1 + max
}

// sourceToolName extracts the tool name from a source label of the form
// "toolName.fieldPath" (spec.md §4.3 ExtractResult.sources).
func sourceToolName(label string) string {
	if i := strings.IndexByte(label, '.'); i >= 0 {
		return label[:i]
	}
	return label
}
