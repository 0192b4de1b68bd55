// Package llmclient implements the LLM Client capability abstraction
// (spec.md §4.3): three operations — dependency analysis, parameter
// extraction, and next-tool selection — shared across pluggable
// transports (spec.md §6.3).
package llmclient

// ParamSchema describes one named parameter of a tool's input schema
// (spec.md §3.1).
type ParamSchema struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ToolDescriptor is the tool shape the LLM operations reason over
// (spec.md §3.1).
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Params      map[string]ParamSchema `json:"params,omitempty"`
	Required    []string               `json:"required,omitempty"`
}

// Dependency is one entry of a DependencyAnalysis's Dependencies list
// (spec.md §4.3).
type Dependency struct {
	ParamName   string  `json:"paramName"`
	SourceTool  string  `json:"sourceTool"`
	SourceField string  `json:"sourceField"`
	Confidence  float64 `json:"confidence"`
}

// DependencyAnalysis is one tool's result from analyzeToolDependencies
// (spec.md §4.3).
type DependencyAnalysis struct {
	Tool                     string       `json:"tool"`
	RequiredParams           []string     `json:"requiredParams"`
	CanExecuteWithoutContext bool         `json:"canExecuteWithoutContext"`
	SuggestedOrder           int          `json:"suggestedOrder"`
	Dependencies             []Dependency `json:"dependencies"`
}

// ExtractResult is extractParameters's result (spec.md §4.3). Sources maps
// a param name to a source label of the implicit form "toolName.fieldPath"
// (spec.md §9: "only the token before the first '.' matters... Preserve
// this").
type ExtractResult struct {
	Params        map[string]any    `json:"params"`
	Sources       map[string]string `json:"sources"`
	Confidence    float64           `json:"confidence"`
	MissingParams []string          `json:"missingParams"`
}

// NextToolPick is selectNextTool's result (spec.md §4.3). Tool is nil when
// no tool should run next.
type NextToolPick struct {
	Tool   *string `json:"tool"`
	Reason string  `json:"reason"`
}
