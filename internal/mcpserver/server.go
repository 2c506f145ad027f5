// Package mcpserver publishes the operation catalog as MCP tools.
//
// This is a thin adapter: every catalog spec becomes one MCP tool definition
// and every call dispatches straight into the catalog, so MCP clients and
// the inference engine see the exact same operation contract. The server is
// bound to a single (app, user) session resolved at startup.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/avictorio/taskpilot/internal/catalog"
	"github.com/avictorio/taskpilot/internal/session"
	"github.com/avictorio/taskpilot/internal/state"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every catalog operation registered as a
// tool, bound to the session for (appName, userID).
func New(sessions *session.Manager, cat *catalog.Catalog, appName, userID string) (*server.MCPServer, error) {
	sess, err := sessions.GetOrCreate(appName, userID, state.New())
	if err != nil {
		return nil, fmt.Errorf("mcpserver: resolve session: %w", err)
	}

	s := server.NewMCPServer(
		"taskpilot",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(
			"Project-management assistant state tools. Operations match names "+
				"case-insensitively on substrings; destructive clear_* tools "+
				"require confirm=true.",
		),
	)

	for _, spec := range cat.Specs() {
		s.AddTool(toolDefinition(spec), handler(cat, sess.ID, spec.Name))
	}
	return s, nil
}

// handler adapts one catalog operation to an MCP tool handler.
func handler(cat *catalog.Catalog, sessionID, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := cat.Execute(sessionID, name, req.GetArguments())
		if err != nil {
			if errors.Is(err, catalog.ErrInvalidArgument) {
				return mcp.NewToolResultError(res.Message), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("operation failed: %v", err)), nil
		}
		payload, err := json.Marshal(res)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// toolDefinition translates a catalog spec into an MCP tool schema.
func toolDefinition(spec catalog.Spec) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, p := range spec.Params {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		if len(p.Enum) > 0 {
			popts = append(popts, mcp.Enum(p.Enum...))
		}
		switch p.Type {
		case catalog.TypeInteger, catalog.TypeNumber:
			if d, ok := toFloat(p.Default); ok {
				popts = append(popts, mcp.DefaultNumber(d))
			}
			opts = append(opts, mcp.WithNumber(p.Name, popts...))
		case catalog.TypeBoolean:
			if d, ok := p.Default.(bool); ok {
				popts = append(popts, mcp.DefaultBool(d))
			}
			opts = append(opts, mcp.WithBoolean(p.Name, popts...))
		default:
			if d, ok := p.Default.(string); ok {
				popts = append(popts, mcp.DefaultString(d))
			}
			opts = append(opts, mcp.WithString(p.Name, popts...))
		}
	}
	return mcp.NewTool(spec.Name, opts...)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
