package parity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the paritycheck tools on an MCP server.
func (c *Checker) RegisterMCP(srv *mcp.Server) {
	c.registerCheckTool(srv)
	c.registerFeaturesTool(srv)
	c.registerRunsTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool registers a tool whose handler decodes arguments into Req and
// returns a JSON-encodable response. Failures become tool errors.
func addTool[Req any](srv *mcp.Server, tool *mcp.Tool, fn func(context.Context, *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r Req
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}

		resp, err := fn(ctx, &r)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

var targetSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name": map[string]any{"type": "string"},
		"url":  map[string]any{"type": "string", "description": "Absolute http(s) URL"},
	},
	"required": []string{"url"},
}

// --- parity_check ---

type checkReq struct {
	Left  *Target `json:"left"`
	Right *Target `json:"right"`
}

func (c *Checker) registerCheckTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "parity_check",
		Description: "Compare two deployments of the web application feature by feature and return the report and recommendations. Without arguments the configured targets are used.",
		InputSchema: inputSchema(map[string]any{
			"left":  targetSchema,
			"right": targetSchema,
		}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, r *checkReq) (any, error) {
		left, right, err := c.Targets()
		if r.Left != nil || r.Right != nil {
			if r.Left == nil || r.Right == nil {
				return nil, fmt.Errorf("both left and right are required")
			}
			left, right, err = *r.Left, *r.Right, nil
		}
		if err != nil {
			return nil, err
		}
		return c.Run(ctx, left, right)
	})
}

// --- parity_features ---

type featuresReq struct{}

func (c *Checker) registerFeaturesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "parity_features",
		Description: "List the features checked on each deployment, in check order, with their priority.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}
	addTool(srv, tool, func(context.Context, *featuresReq) (any, error) {
		return map[string]any{"features": c.Features()}, nil
	})
}

// --- parity_runs ---

type runsReq struct {
	ID    string `json:"id"`
	Limit int    `json:"limit"`
}

func (c *Checker) registerRunsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "parity_runs",
		Description: "List recent parity runs, or fetch one run in full by id.",
		InputSchema: inputSchema(map[string]any{
			"id":    map[string]any{"type": "string", "description": "Run ID to fetch"},
			"limit": map[string]any{"type": "integer", "description": "Max runs to list (default 20)"},
		}, nil),
	}
	addTool(srv, tool, func(ctx context.Context, r *runsReq) (any, error) {
		if r.ID != "" {
			return c.GetRun(ctx, r.ID)
		}
		if r.Limit <= 0 {
			r.Limit = 20
		}
		list, err := c.Runs(ctx, r.Limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"runs": list}, nil
	})
}
