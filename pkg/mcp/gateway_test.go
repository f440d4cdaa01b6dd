package mcp

import (
	"context"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

func TestToProviderDefs(t *testing.T) {
	tools := []mcptypes.Tool{
		{
			Name:        "get_dealers_list",
			Description: "List dealers with optional filters",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"region": map[string]interface{}{"type": "string"},
					"limit":  map[string]interface{}{"type": "integer"},
				},
				Required: []string{"region"},
			},
		},
		{
			Name: "get_users_list",
		},
	}

	defs := ToProviderDefs(tools)
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}

	first := defs[0]
	if first.Type != "function" {
		t.Errorf("type = %q", first.Type)
	}
	if first.Function.Name != "get_dealers_list" {
		t.Errorf("name = %q", first.Function.Name)
	}
	if first.Function.Description != "List dealers with optional filters" {
		t.Errorf("description = %q", first.Function.Description)
	}

	params := first.Function.Parameters
	if params["type"] != "object" {
		t.Errorf("schema type = %v", params["type"])
	}
	props, ok := params["properties"].(map[string]interface{})
	if !ok || len(props) != 2 {
		t.Errorf("properties not preserved: %v", params["properties"])
	}
	required, ok := params["required"].([]string)
	if !ok || len(required) != 1 || required[0] != "region" {
		t.Errorf("required not preserved: %v", params["required"])
	}

	// A schema-less tool still produces a valid empty object schema.
	second := defs[1].Function.Parameters
	if second["type"] != "object" {
		t.Errorf("defaulted schema type = %v", second["type"])
	}
	if _, ok := second["properties"].(map[string]interface{}); !ok {
		t.Error("defaulted schema must carry an empty properties object")
	}
	if _, ok := second["required"]; ok {
		t.Error("empty required list must be omitted")
	}
}

func TestCallToolNotConnected(t *testing.T) {
	g := NewGateway("https://mcp.example.com/mcp")
	if _, err := g.CallTool(context.Background(), "get_users_list", nil); err == nil {
		t.Error("expected error before Connect")
	}
}

func TestCloseIdempotent(t *testing.T) {
	g := NewGateway("https://mcp.example.com/mcp")
	g.Close()
	g.Close()
}
