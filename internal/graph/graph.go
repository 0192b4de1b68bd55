package graph

import (
	"fmt"

	"github.com/mcplens/inspector/internal/resource"
)

// Graph is the in-memory Resource Graph of one orchestrator run (spec.md
// §4.2, §3.5). NOT goroutine-safe: all methods must be called from a
// single goroutine. The orchestrator's Flow.Run loop guarantees this, the
// same way the teacher's AgentState relies on single-goroutine access.
type Graph struct {
	nodes map[string]*Node
	edges []Edge

	toolResults  map[string]map[string]any // toolName -> flattened result, most recent wins
	resourceKeys map[string]struct{}       // "resource_<fieldName>_<value>" ids already created
	latestByName map[string]string         // toolName -> most recent tool node id
	seq          int64
	clock        func() int64
}

// New creates an empty Graph. clock supplies the timestamp (epoch-ms)
// recorded on each node; production callers pass time.Now().UnixMilli,
// tests pass a deterministic stub.
func New(clock func() int64) *Graph {
	return &Graph{
		nodes:        make(map[string]*Node),
		toolResults:  make(map[string]map[string]any),
		resourceKeys: make(map[string]struct{}),
		latestByName: make(map[string]string),
		clock:        clock,
	}
}

// AddPendingTool creates a new tool node with status pending and returns
// its id. Ids are time-unique within the graph's lifetime (spec.md §3.5)
// via a monotonic sequence number, since single-goroutine ownership means
// a plain counter is sufficient.
func (g *Graph) AddPendingTool(name string) string {
	g.seq++
	id := fmt.Sprintf("tool_%s_%d", name, g.seq)
	now := g.clock()
	g.nodes[id] = &Node{
		ID:        id,
		Type:      NodeTool,
		Name:      name,
		Timestamp: now,
		Status:    StatusPending,
	}
	g.latestByName[name] = id
	return id
}

// MarkToolRunning transitions nodeId to running and records the params it
// was invoked with. Unknown nodeId is silently ignored (spec.md §4.2).
func (g *Graph) MarkToolRunning(nodeID string, params map[string]any) {
	n, ok := g.nodes[nodeID]
	if !ok {
		return
	}
	n.Status = StatusRunning
	n.Data = map[string]any{"params": params}
}

// RecordToolExecution transitions nodeId to completed and performs, in
// order (spec.md §4.2 "On completion"): store result in data; flatten the
// result into toolResults[name] (most recent wins); add one edge per
// paramSources entry whose source node exists; run resource extraction
// against the result to add resource nodes and edges.
//
// paramSources maps paramName to the already-resolved source node id (the
// orchestrator resolves sources[param] to a node id before calling this —
// spec.md §4.4 step (k)); entries whose source node id doesn't exist in
// the graph are dropped rather than producing a dangling edge.
func (g *Graph) RecordToolExecution(nodeID string, result any, paramSources map[string]string) {
	n, ok := g.nodes[nodeID]
	if !ok {
		return
	}
	n.Status = StatusCompleted
	n.Data = result

	g.toolResults[n.Name] = flatten(result)

	for paramName, sourceNodeID := range paramSources {
		if _, exists := g.nodes[sourceNodeID]; !exists {
			continue
		}
		g.addEdge(sourceNodeID, nodeID, "provided_"+paramName, paramName)
	}

	unwrapped := resource.UnwrapEnvelope(result)
	for _, c := range extractGraphResources(unwrapped) {
		g.addResourceNode(nodeID, c.FieldName, c.Value)
	}
}

// MarkToolFailed transitions nodeId to failed and records the error.
// Unknown nodeId is silently ignored.
func (g *Graph) MarkToolFailed(nodeID string, cause error) {
	n, ok := g.nodes[nodeID]
	if !ok {
		return
	}
	n.Status = StatusFailed
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	n.Data = map[string]any{"error": msg}
}

// MarkToolSkipped transitions nodeId to skipped and records why. Unknown
// nodeId is silently ignored.
func (g *Graph) MarkToolSkipped(nodeID, reason string, missingParams []string) {
	n, ok := g.nodes[nodeID]
	if !ok {
		return
	}
	n.Status = StatusSkipped
	n.Data = map[string]any{"reason": reason, "missingParams": missingParams}
}

// addResourceNode creates a resource node for (fieldName, value) if one
// doesn't already exist anywhere in the graph's lifetime, and links it
// from triggerNodeID with relation "discovered" (spec.md §4.2).
func (g *Graph) addResourceNode(triggerNodeID, fieldName, value string) {
	dedupKey := fieldName + "_" + value
	nodeID := "resource_" + dedupKey
	if _, exists := g.resourceKeys[dedupKey]; !exists {
		g.resourceKeys[dedupKey] = struct{}{}
		g.nodes[nodeID] = &Node{
			ID:        nodeID,
			Type:      NodeResource,
			Name:      value,
			Data:      map[string]any{"fieldName": fieldName},
			Timestamp: g.clock(),
		}
	}
	g.addEdge(triggerNodeID, nodeID, "discovered", fieldName)
}

func (g *Graph) addEdge(source, target, relation, paramName string) {
	g.seq++
	g.edges = append(g.edges, Edge{
		ID:        fmt.Sprintf("edge_%d", g.seq),
		Source:    source,
		Target:    target,
		Relation:  relation,
		ParamName: paramName,
	})
}

// GetAvailableContext returns the mapping from tool name to the sanitized,
// flattened result of that tool's most recent completed call (spec.md
// §4.2 "Context for LLM") — the sole input to parameter extraction.
func (g *Graph) GetAvailableContext() map[string]any {
	out := make(map[string]any, len(g.toolResults))
	for name, flattened := range g.toolResults {
		out[name] = sanitizeForLLM(flattened)
	}
	return out
}

// sanitizeForLLM implements spec.md §4.2's redaction rule: any string whose
// whitespace-split word count exceeds 100 is replaced by
// "[REDACTED - long content]"; arrays are truncated to their first 10
// elements; objects are recursed. This threshold is intentionally
// independent of the Resource Indexer's 200-character parentContext
// truncation (spec.md §9).
func sanitizeForLLM(v any) any {
	switch val := v.(type) {
	case string:
		if wordCount(val) > 100 {
			return "[REDACTED - long content]"
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = sanitizeForLLM(child)
		}
		return out
	case []any:
		limit := len(val)
		if limit > 10 {
			limit = 10
		}
		out := make([]any, limit)
		for i := 0; i < limit; i++ {
			out[i] = sanitizeForLLM(val[i])
		}
		return out
	default:
		return v
	}
}

func wordCount(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if isSpace {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

// NodeIDForTool returns the most recent tool node id created for name, and
// whether one exists (spec.md §4.2 "Tool-name → node-id lookup").
func (g *Graph) NodeIDForTool(name string) (string, bool) {
	id, ok := g.latestByName[name]
	return id, ok
}

// Node returns a copy of the node with the given id, if present.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Snapshot is the plain {nodes, edges} export used for visualization
// (spec.md §3.5 "supports... visualization" — SPEC_FULL §10 fixes this
// shape since spec.md leaves it unspecified).
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Snapshot exports the full current graph state.
func (g *Graph) Snapshot() Snapshot {
	nodes := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, *n)
	}
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return Snapshot{Nodes: nodes, Edges: edges}
}
