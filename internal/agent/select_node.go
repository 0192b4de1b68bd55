package agent

import (
	"context"

	"github.com/mcplens/inspector/internal/core"
	"github.com/mcplens/inspector/internal/llmclient"
)

// selectPrep is what selectNode.Exec needs to call SelectNextTool; built
// from State in Prep so Exec itself touches no shared state (spec.md §4.4
// steps b, c).
type selectPrep struct {
	tools        []llmclient.ToolDescriptor
	executed     map[string]bool
	context      map[string]any
	currentDepth int
	maxDepth     int
}

// selectNodeImpl implements BaseNode[State, selectPrep, llmclient.NextToolPick]
// — the first of the three nodes of one execution-loop iteration (spec.md
// §4.4 steps b–g), playing the structural role the teacher's DecideNode
// plays in BuildAgentFlow.
type selectNodeImpl struct {
	llm  *llmclient.Client
	now  func() int64
	emit func(Event)
}

func newSelectNode(llm *llmclient.Client, now func() int64, emit func(Event)) *selectNodeImpl {
	return &selectNodeImpl{llm: llm, now: now, emit: emit}
}

func (n *selectNodeImpl) Prep(state *State) []selectPrep {
	if state.Cancelled {
		return nil
	}
	return []selectPrep{{
		tools:        state.Tools,
		executed:     state.Executed,
		context:      state.Graph.GetAvailableContext(),
		currentDepth: state.CurrentDepth,
		maxDepth:     state.MaxDepth,
	}}
}

func (n *selectNodeImpl) Exec(ctx context.Context, prep selectPrep) (llmclient.NextToolPick, error) {
	pick := n.llm.SelectNextTool(ctx, prep.tools, prep.executed, prep.context, prep.currentDepth, prep.maxDepth)
	return pick, nil
}

func (n *selectNodeImpl) ExecFallback(err error) llmclient.NextToolPick {
	return llmclient.NextToolPick{Tool: nil, Reason: "selection failed: " + err.Error()}
}

func (n *selectNodeImpl) Post(state *State, _ []selectPrep, results ...llmclient.NextToolPick) core.Action {
	if len(results) == 0 || state.Cancelled {
		state.Done = true
		state.DoneReason = "cancelled"
		return core.ActionEnd
	}

	pick := results[0]
	if pick.Tool == nil {
		state.Done = true
		state.DoneReason = pick.Reason
		return core.ActionEnd
	}

	toolName := *pick.Tool
	if state.Executed[toolName] {
		// Defensive: the LLM may repeat an already-executed tool (spec.md
		// §4.4 step e). Don't end the run — the outer loop retries.
		return core.ActionEnd
	}

	if _, ok := state.toolByName(toolName); !ok {
		return core.ActionEnd
	}

	state.Executed[toolName] = true
	nodeID := state.Graph.AddPendingTool(toolName)
	state.pendingToolName = toolName
	state.pendingNodeID = nodeID
	return core.ActionContinue
}
