package agent

import (
	"github.com/mcplens/inspector/internal/core"
	"github.com/mcplens/inspector/internal/llmclient"
)

// buildIterationFlow wires select→extract→execute into one bounded Flow
// that plays a single execution-loop iteration (spec.md §4.4 steps b–l),
// mirroring the structural shape of the teacher's BuildAgentFlow. The
// orchestrator's outer Go loop is responsible for calling Run repeatedly
// until State.Done or cancellation — the Flow itself never loops.
func buildIterationFlow(llm *llmclient.Client, toolCall ToolCallFn, now func() int64, emit func(Event)) *core.Flow[State] {
	sel := core.NewNode[State, selectPrep, llmclient.NextToolPick](newSelectNode(llm, now, emit), 0)
	ext := core.NewNode[State, extractPrep, llmclient.ExtractResult](newExtractNode(llm, now, emit), 0)
	exe := core.NewNode[State, executePrep, execOutcome](newExecuteNode(toolCall, now, emit), 0)

	sel.AddSuccessor(ext, core.ActionContinue)
	ext.AddSuccessor(exe, core.ActionContinue)

	return core.NewFlow[State](sel)
}
