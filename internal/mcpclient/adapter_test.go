package mcpclient_test

import (
	"encoding/json"
	"testing"

	"github.com/mcplens/inspector/internal/mcpclient"
)

func TestToDescriptor_ParsesPropertiesAndRequired(t *testing.T) {
	info := mcpclient.ToolInfo{
		Name:        "getIssue",
		Description: "Fetch an issue by id",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"issueId": {"type": "string", "description": "the issue id"},
				"verbose": {"type": "boolean"}
			},
			"required": ["issueId"]
		}`),
	}

	d := mcpclient.ToDescriptor(info)
	if d.Name != "getIssue" || d.Description != "Fetch an issue by id" {
		t.Fatalf("got %+v", d)
	}
	if len(d.Required) != 1 || d.Required[0] != "issueId" {
		t.Fatalf("Required = %v", d.Required)
	}
	if d.Params["issueId"].Type != "string" || d.Params["issueId"].Description != "the issue id" {
		t.Fatalf("Params[issueId] = %+v", d.Params["issueId"])
	}
	if d.Params["verbose"].Type != "boolean" {
		t.Fatalf("Params[verbose] = %+v", d.Params["verbose"])
	}
}

func TestToDescriptor_EmptySchemaYieldsNoParams(t *testing.T) {
	d := mcpclient.ToDescriptor(mcpclient.ToolInfo{Name: "ping"})
	if len(d.Params) != 0 || len(d.Required) != 0 {
		t.Fatalf("got %+v", d)
	}
}
