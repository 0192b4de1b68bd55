package mcpclient

import (
	"context"
	"encoding/json"

	"github.com/mcplens/inspector/internal/llmclient"
)

// jsonSchema is the minimal shape of a tool's JSON Schema InputSchema that
// the LLM Client's ToolDescriptor needs (spec.md §3.1).
type jsonSchema struct {
	Properties map[string]struct {
		Type        string   `json:"type"`
		Description string   `json:"description"`
		Enum        []string `json:"enum"`
	} `json:"properties"`
	Required []string `json:"required"`
}

// ToDescriptor converts a downstream tool's MCP metadata into the
// ToolDescriptor shape the LLM Client reasons over.
func ToDescriptor(info ToolInfo) llmclient.ToolDescriptor {
	d := llmclient.ToolDescriptor{Name: info.Name, Description: info.Description}

	var schema jsonSchema
	if len(info.InputSchema) > 0 {
		_ = json.Unmarshal(info.InputSchema, &schema)
	}
	if len(schema.Properties) > 0 {
		d.Params = make(map[string]llmclient.ParamSchema, len(schema.Properties))
		for name, p := range schema.Properties {
			d.Params[name] = llmclient.ParamSchema{Type: p.Type, Description: p.Description, Enum: p.Enum}
		}
	}
	d.Required = schema.Required
	return d
}

// ListTools adapts Client.ListTools to the orchestrator's ListToolsFn shape
// (spec.md §4.4 step 1).
func ListTools(client *Client) func(ctx context.Context) ([]llmclient.ToolDescriptor, error) {
	return func(ctx context.Context) ([]llmclient.ToolDescriptor, error) {
		infos, err := client.ListTools(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]llmclient.ToolDescriptor, len(infos))
		for i, info := range infos {
			out[i] = ToDescriptor(info)
		}
		return out, nil
	}
}

// CallTool adapts Client.CallTool to the orchestrator's ToolCallFn shape
// (spec.md §6.2).
func CallTool(client *Client) func(ctx context.Context, toolName string, params map[string]any) (any, error) {
	return func(ctx context.Context, toolName string, params map[string]any) (any, error) {
		return client.CallTool(ctx, toolName, params)
	}
}
