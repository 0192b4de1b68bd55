// Package agent implements the Agent Orchestrator (spec.md §4.4): a
// depth-bounded, dependency-driven scheduler that discovers tools, selects
// the next tool via an LLM, extracts its parameters from accumulated
// context, executes it, and feeds the result back — streaming lifecycle
// events to subscribers throughout.
package agent

import (
	"context"

	"github.com/mcplens/inspector/internal/llmclient"
)

// Status is the orchestrator's lifecycle status (spec.md §3.7).
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// ToolCallFn invokes toolName downstream with params and returns its
// tool-call envelope result (spec.md §6.2).
type ToolCallFn func(ctx context.Context, toolName string, params map[string]any) (any, error)

// ListToolsFn discovers the current tool catalog (spec.md §4.4 step 1).
type ListToolsFn func(ctx context.Context) ([]llmclient.ToolDescriptor, error)

// ExecutionStep is one entry of the agent's execution history (spec.md
// §3.6).
type ExecutionStep struct {
	ToolName         string            `json:"toolName"`
	NodeID           string            `json:"nodeId"`
	Parameters       map[string]any    `json:"parameters"`
	ParameterSources map[string]string `json:"parameterSources"`
	Status           string            `json:"status"` // running, completed, failed, skipped
	Result           any               `json:"result,omitempty"`
	Error            string            `json:"error,omitempty"`
	Timestamp        int64             `json:"timestamp"`
	Depth            int               `json:"depth"`
}

// FlaggedTool records a tool the scheduler could not or would not run this
// pass (spec.md §4.4 steps i, j).
type FlaggedTool struct {
	Tool   string `json:"tool"`
	Reason string `json:"reason"`
}
