package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/brixta-dev/cemtemchat/pkg/logger"
	"github.com/brixta-dev/cemtemchat/pkg/providers"
)

// Gateway is the remote tool backend: a hosted MCP server reached over
// streamable HTTP. It is a process-wide shared resource with
// initialize-once-then-reuse semantics; Connect/Close are mutex-guarded,
// tool calls after initialization may run concurrently.
type Gateway struct {
	serverURL string

	mu     sync.Mutex
	client *mcpclient.Client
	tools  []mcptypes.Tool
}

func NewGateway(serverURL string) *Gateway {
	return &Gateway{serverURL: serverURL}
}

// Connect establishes the HTTP transport, runs the MCP initialize handshake
// and caches the tool list. Calling it on an already-connected gateway is a
// no-op.
func (g *Gateway) Connect(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return nil
	}

	client, err := mcpclient.NewStreamableHttpClient(g.serverURL)
	if err != nil {
		return fmt.Errorf("creating MCP client: %w", err)
	}
	if err := client.GetTransport().Start(ctx); err != nil {
		return fmt.Errorf("starting MCP transport: %w", err)
	}

	_, err = client.Initialize(ctx, mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: "2025-06-18",
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "cemtemchat",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		return fmt.Errorf("initializing MCP session: %w", err)
	}

	result, err := client.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("listing MCP tools: %w", err)
	}

	g.client = client
	g.tools = result.Tools

	logger.InfoCF("mcp", "Connected to MCP gateway", map[string]interface{}{
		"url":   g.serverURL,
		"tools": len(result.Tools),
	})
	return nil
}

// Close tears the client down. Safe to call repeatedly.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client == nil {
		return
	}
	if err := g.client.Close(); err != nil {
		logger.WarnCF("mcp", "Error closing MCP client", map[string]interface{}{"error": err.Error()})
	}
	g.client = nil
	g.tools = nil
	logger.InfoC("mcp", "MCP gateway closed")
}

// Tools returns the tool list cached at Connect time. The slice is treated
// as immutable for the life of the connection.
func (g *Gateway) Tools() []mcptypes.Tool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tools
}

// CallTool invokes a remote tool and flattens the result's text content to a
// single string. A result flagged IsError comes back as a Go error so the
// caller can surface it to the model.
func (g *Gateway) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	g.mu.Lock()
	client := g.client
	g.mu.Unlock()

	if client == nil {
		return "", fmt.Errorf("MCP gateway not connected")
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := client.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling tool %s: %w", name, err)
	}

	text := flattenContent(result.Content)
	if result.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return "", fmt.Errorf("tool %s: %s", name, text)
	}
	return text, nil
}

func flattenContent(content []mcptypes.Content) string {
	var texts []string
	for _, c := range content {
		if tc, ok := c.(mcptypes.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	if len(texts) == 0 {
		// Non-text content is rare from this backend; serialize whatever
		// came back so the model still sees something.
		data, err := json.Marshal(content)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return strings.Join(texts, "\n")
}

// ToProviderDefs converts the cached MCP tool schemas into the OpenAI-style
// function definitions the completion providers expect.
func (g *Gateway) ToProviderDefs() []providers.ToolDefinition {
	return ToProviderDefs(g.Tools())
}

// ToProviderDefs converts MCP tool schemas to provider tool definitions.
// Both sides are plain JSON Schema; only the envelope differs.
func ToProviderDefs(tools []mcptypes.Tool) []providers.ToolDefinition {
	out := make([]providers.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		params := map[string]interface{}{
			"type": t.InputSchema.Type,
		}
		if params["type"] == "" {
			params["type"] = "object"
		}
		if t.InputSchema.Properties != nil {
			params["properties"] = t.InputSchema.Properties
		} else {
			params["properties"] = map[string]interface{}{}
		}
		if len(t.InputSchema.Required) > 0 {
			params["required"] = t.InputSchema.Required
		}
		out = append(out, providers.ToolDefinition{
			Type: "function",
			Function: providers.FunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
