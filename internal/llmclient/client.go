package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// Transport is the thin JSON-in/JSON-out contract a backend must
// implement (spec.md §1: "LLM vendor HTTP specifics beyond a thin
// JSON-in/JSON-out contract" are out of scope). Client owns everything
// else: prompt construction, fence-stripping, parsing, and fallback
// policy, so every backend shares identical behavior.
type Transport interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client is the capability set of spec.md §4.3, backed by a single
// pluggable Transport.
type Client struct {
	transport Transport
}

// NewClient wraps transport in the shared LLM capability set.
func NewClient(transport Transport) *Client {
	return &Client{transport: transport}
}

// AnalyzeToolDependencies returns, for each tool, its required params,
// whether it can run without context, a suggested order, and any
// dependencies on other tools' outputs (spec.md §4.3).
func (c *Client) AnalyzeToolDependencies(ctx context.Context, tools []ToolDescriptor) []DependencyAnalysis {
	raw, err := c.transport.Complete(ctx, buildDependencyPrompt(tools))
	if err != nil {
		log.Printf("[LLMClient] analyzeToolDependencies transport error: %v; using fallback", err)
		return fallbackDependencyAnalysis(tools)
	}

	var out []DependencyAnalysis
	if err := json.Unmarshal([]byte(stripMarkdownFence(raw)), &out); err != nil {
		log.Printf("[LLMClient] analyzeToolDependencies parse error: %v; using fallback", err)
		return fallbackDependencyAnalysis(tools)
	}
	return out
}

func fallbackDependencyAnalysis(tools []ToolDescriptor) []DependencyAnalysis {
	out := make([]DependencyAnalysis, len(tools))
	for i, t := range tools {
		out[i] = DependencyAnalysis{
			Tool:                     t.Name,
			RequiredParams:           t.Required,
			CanExecuteWithoutContext: len(t.Required) == 0,
			SuggestedOrder:           i + 1,
			Dependencies:             nil,
		}
	}
	return out
}

// ExtractParameters resolves targetTool's parameters from context, best
// effort (spec.md §4.3).
func (c *Client) ExtractParameters(ctx context.Context, targetTool ToolDescriptor, llmContext map[string]any) ExtractResult {
	raw, err := c.transport.Complete(ctx, buildExtractPrompt(targetTool, llmContext))
	if err != nil {
		log.Printf("[LLMClient] extractParameters transport error: %v; using fallback", err)
		return fallbackExtractResult(targetTool)
	}

	var out ExtractResult
	if err := json.Unmarshal([]byte(stripMarkdownFence(raw)), &out); err != nil {
		log.Printf("[LLMClient] extractParameters parse error: %v; using fallback", err)
		return fallbackExtractResult(targetTool)
	}
	return out
}

func fallbackExtractResult(targetTool ToolDescriptor) ExtractResult {
	return ExtractResult{
		Params:        map[string]any{},
		Sources:       map[string]string{},
		Confidence:    0,
		MissingParams: append([]string(nil), targetTool.Required...),
	}
}

// SelectNextTool picks the next tool to run from the unexecuted subset, or
// returns a nil Tool with a human-readable reason (spec.md §4.3).
func (c *Client) SelectNextTool(ctx context.Context, tools []ToolDescriptor, executed map[string]bool, llmContext map[string]any, currentDepth, maxDepth int) NextToolPick {
	if currentDepth >= maxDepth {
		return NextToolPick{Tool: nil, Reason: "Maximum depth reached"}
	}

	unexecuted := unexecutedTools(tools, executed)
	if len(unexecuted) == 0 {
		return NextToolPick{Tool: nil, Reason: "All tools have been executed"}
	}

	raw, err := c.transport.Complete(ctx, buildSelectPrompt(tools, executed, llmContext, currentDepth, maxDepth))
	if err != nil {
		log.Printf("[LLMClient] selectNextTool transport error: %v; using fallback", err)
		return fallbackSelectNextTool(unexecuted, llmContext)
	}

	pick, ok := parseNextToolPick(raw)
	if !ok {
		log.Printf("[LLMClient] selectNextTool parse error; using fallback")
		return fallbackSelectNextTool(unexecuted, llmContext)
	}
	return pick
}

// parseNextToolPick handles the "model returns an array" special case
// (spec.md §4.3): treat as its first element if non-empty with a non-null
// tool.
func parseNextToolPick(raw string) (NextToolPick, bool) {
	cleaned := stripMarkdownFence(raw)

	var asArray []NextToolPick
	if err := json.Unmarshal([]byte(cleaned), &asArray); err == nil {
		if len(asArray) > 0 && asArray[0].Tool != nil {
			return asArray[0], true
		}
		// An empty array, or an array of null-tool entries, is not a usable
		// pick — fall through to fallback rather than treating it as valid.
		return NextToolPick{}, false
	}

	var single NextToolPick
	if err := json.Unmarshal([]byte(cleaned), &single); err != nil {
		return NextToolPick{}, false
	}
	return single, true
}

func unexecutedTools(tools []ToolDescriptor, executed map[string]bool) []ToolDescriptor {
	var out []ToolDescriptor
	for _, t := range tools {
		if !executed[t.Name] {
			out = append(out, t)
		}
	}
	return out
}

// fallbackSelectNextTool implements spec.md §4.3's fallback: pick any
// unexecuted tool with empty required; otherwise pick any unexecuted tool
// all of whose required names appear as substrings in any existing
// context value; otherwise return null.
func fallbackSelectNextTool(unexecuted []ToolDescriptor, llmContext map[string]any) NextToolPick {
	for _, t := range unexecuted {
		if len(t.Required) == 0 {
			name := t.Name
			return NextToolPick{Tool: &name, Reason: "fallback: no required parameters"}
		}
	}

	values := contextStringValues(llmContext)
	for _, t := range unexecuted {
		if allRequiredResolvable(t.Required, values) {
			name := t.Name
			return NextToolPick{Tool: &name, Reason: "fallback: required parameters found in context"}
		}
	}

	return NextToolPick{Tool: nil, Reason: "fallback: no tool's required parameters are resolvable"}
}

func allRequiredResolvable(required []string, values []string) bool {
	for _, r := range required {
		found := false
		for _, v := range values {
			if strings.Contains(v, r) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// contextStringValues flattens every field name and leaf value reachable
// from each tool's context entry, for the fallback's substring search.
func contextStringValues(llmContext map[string]any) []string {
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case string:
			out = append(out, val)
		case map[string]any:
			for k, child := range val {
				out = append(out, k)
				walk(child)
			}
		case []any:
			for _, child := range val {
				walk(child)
			}
		default:
			out = append(out, fmt.Sprintf("%v", val))
		}
	}
	for _, v := range llmContext {
		walk(v)
	}
	return out
}
