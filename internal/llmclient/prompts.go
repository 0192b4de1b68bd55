package llmclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Canonical prompt templates (spec.md §6.5): "part of the contract —
// changing them changes behavior." Every template instructs the model to
// emit raw JSON without markdown fences.

func buildDependencyPrompt(tools []ToolDescriptor) string {
	var b strings.Builder
	b.WriteString("You are analyzing a set of tools to determine their parameter dependencies.\n")
	b.WriteString("For each tool below, determine its required parameters and, for each one, ")
	b.WriteString("whether its value is likely already available from another tool's output.\n\n")
	b.WriteString("Tools:\n")
	for _, t := range tools {
		b.WriteString(describeTool(t))
	}
	b.WriteString("\nRespond with ONLY a raw JSON array (no markdown fences, no prose), one entry per tool, of the form:\n")
	b.WriteString(`[{"tool":"name","requiredParams":["p1"],"canExecuteWithoutContext":true,"suggestedOrder":1,"dependencies":[{"paramName":"p1","sourceTool":"other","sourceField":"field","confidence":0.8}]}]`)
	b.WriteString("\n")
	return b.String()
}

func buildExtractPrompt(target ToolDescriptor, llmContext map[string]any) string {
	ctxJSON, _ := json.MarshalIndent(llmContext, "", "  ")
	var b strings.Builder
	b.WriteString("You are resolving parameters for a tool call from previously gathered context.\n\n")
	b.WriteString("Target tool:\n")
	b.WriteString(describeTool(target))
	b.WriteString("\nAvailable context (tool name -> its most recent result, flattened):\n")
	b.Write(ctxJSON)
	b.WriteString("\n\nFor each required parameter, find its value in the context if present. Record where each ")
	b.WriteString(`value came from as "toolName.fieldPath". If a required parameter's value cannot be found, `)
	b.WriteString("list it in missingParams instead of guessing.\n\n")
	b.WriteString("Respond with ONLY raw JSON (no markdown fences, no prose) of the form:\n")
	b.WriteString(`{"params":{"p1":"value"},"sources":{"p1":"toolName.fieldPath"},"confidence":0.9,"missingParams":[]}`)
	b.WriteString("\n")
	return b.String()
}

func buildSelectPrompt(tools []ToolDescriptor, executed map[string]bool, llmContext map[string]any, currentDepth, maxDepth int) string {
	ctxJSON, _ := json.MarshalIndent(llmContext, "", "  ")
	var executedNames, unexecutedNames []string
	for _, t := range tools {
		if executed[t.Name] {
			executedNames = append(executedNames, t.Name)
		} else {
			unexecutedNames = append(unexecutedNames, t.Name)
		}
	}

	var b strings.Builder
	b.WriteString("You are driving an autonomous tool-chaining loop. Pick the single best next tool to call.\n\n")
	b.WriteString("Already executed (do not select these):\n")
	b.WriteString(strings.Join(executedNames, ", "))
	b.WriteString("\n\nCandidate tools (not yet executed):\n")
	for _, t := range tools {
		if !executed[t.Name] {
			b.WriteString(describeTool(t))
		}
	}
	b.WriteString("\nAvailable context (tool name -> its most recent result, flattened):\n")
	b.Write(ctxJSON)
	b.WriteString(fmt.Sprintf("\n\nDepth: %d of a maximum of %d.\n\n", currentDepth, maxDepth))
	b.WriteString("Preference order when several tools are viable: tools that take no parameters, then ")
	b.WriteString("search/list-style tools, then get-style tools, then mutating tools last.\n\n")
	b.WriteString("Respond with ONLY raw JSON (no markdown fences, no prose) of the form:\n")
	b.WriteString(`{"tool":"name","reason":"why"}`)
	b.WriteString("\nIf no candidate tool can usefully run next, respond with:\n")
	b.WriteString(`{"tool":null,"reason":"why"}`)
	b.WriteString("\n")
	return b.String()
}

func describeTool(t ToolDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s", t.Name)
	if t.Description != "" {
		fmt.Fprintf(&b, ": %s", t.Description)
	}
	if len(t.Required) > 0 {
		fmt.Fprintf(&b, " (required: %s)", strings.Join(t.Required, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

// stripMarkdownFence removes a leading/trailing ``` or ```json code fence,
// if present (spec.md §4.3 "Response robustness").
func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimPrefix(s, "JSON")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
