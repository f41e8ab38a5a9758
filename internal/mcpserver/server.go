// Package mcpserver exposes the consideration engine as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/everstacklabs/scout/internal/catalog"
	"github.com/everstacklabs/scout/internal/consider"
	"github.com/everstacklabs/scout/internal/rank"
)

// Tool names.
const (
	ToolGetModel       = "get_model"
	ToolConsiderModels = "consider_models"
)

// Engine is the subset of *consider.Engine the tools call.
type Engine interface {
	GetModel(ctx context.Context, identifier string, refresh bool) (catalog.ModelRecord, error)
	Consider(ctx context.Context, req consider.Request) (*consider.Response, error)
}

// Server wraps an MCP server with the scout tools registered.
type Server struct {
	mcp    *server.MCPServer
	engine Engine
}

// New creates an MCP server exposing get_model and consider_models.
func New(engine Engine, version string) *Server {
	s := &Server{
		mcp:    server.NewMCPServer("scout", version, server.WithToolCapabilities(false), server.WithRecovery()),
		engine: engine,
	}
	s.mcp.AddTool(getModelTool(), s.handleGetModel)
	s.mcp.AddTool(considerModelsTool(), s.handleConsiderModels)
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// Serve speaks MCP over the given streams until ctx is cancelled or in closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serving MCP: %w", err)
	}
	return nil
}

func getModelTool() mcp.Tool {
	return mcp.NewTool(ToolGetModel,
		mcp.WithDescription("Look up a single model by id, canonical slug, or display-name fragment and return its full normalized record."),
		mcp.WithString("modelId",
			mcp.Required(),
			mcp.Description("Model id (e.g. openai/gpt-4o), canonical slug, or part of the display name"),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Force a fresh catalog fetch before the lookup"),
		),
	)
}

func considerModelsTool() mcp.Tool {
	return mcp.NewTool(ToolConsiderModels,
		mcp.WithDescription("Find, rank, cost out and compare models from a free-text request plus optional structured filters."),
		mcp.WithString("request",
			mcp.Required(),
			mcp.Description("What you are looking for, e.g. \"cheap long context model with tools\""),
		),
		mcp.WithObject("filters",
			mcp.Description("Explicit filters; each one overrides anything inferred from the request text"),
			mcp.Properties(map[string]any{
				"provider":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"freeOnly":      map[string]any{"type": "boolean"},
				"minContext":    map[string]any{"type": "integer"},
				"maxContext":    map[string]any{"type": "integer"},
				"maxPricePer1M": map[string]any{"type": "number", "description": "Upper bound on prompt+completion USD per million tokens"},
				"hasVision":     map[string]any{"type": "boolean"},
				"hasTools":      map[string]any{"type": "boolean"},
				"hasReasoning":  map[string]any{"type": "boolean"},
				"modality":      map[string]any{"type": "string"},
			}),
		),
		mcp.WithArray("models",
			mcp.Description("Restrict to these model ids; two to five ids also produce a side-by-side comparison"),
			mcp.WithStringItems(),
		),
		mcp.WithString("sortBy",
			mcp.Description("Explicit sort order"),
			mcp.Enum(criteria()...),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of models to return (default 10)"),
			mcp.Min(1),
		),
		mcp.WithObject("workload",
			mcp.Description("Expected usage for cost projection"),
			mcp.Properties(map[string]any{
				"promptTokens":     map[string]any{"type": "integer"},
				"completionTokens": map[string]any{"type": "integer"},
				"requestsPerDay":   map[string]any{"type": "integer"},
				"requestsPerMonth": map[string]any{"type": "integer"},
				"images":           map[string]any{"type": "integer"},
			}),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Force a fresh catalog fetch"),
		),
	)
}

func (s *Server) handleGetModel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := invocationLogger(ToolGetModel)

	id, err := req.RequireString("modelId")
	if err != nil {
		log.Warn("invalid arguments", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.engine.GetModel(ctx, id, req.GetBool("refresh", false))
	if err != nil {
		log.Warn("tool failed", "model", id, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	log.Debug("tool succeeded", "model", rec.ID)
	return jsonResult(rec)
}

func (s *Server) handleConsiderModels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log := invocationLogger(ToolConsiderModels)

	var creq consider.Request
	if err := req.BindArguments(&creq); err != nil {
		log.Warn("invalid arguments", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	resp, err := s.engine.Consider(ctx, creq)
	if err != nil {
		log.Warn("tool failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	log.Debug("tool succeeded", "returned", resp.Interpretation.Returned, "matches", resp.Interpretation.TotalMatches)
	return jsonResult(resp)
}

func criteria() []string {
	out := make([]string, len(rank.Criteria))
	for i, c := range rank.Criteria {
		out[i] = string(c)
	}
	return out
}

func invocationLogger(tool string) *slog.Logger {
	return slog.With("tool", tool, "invocation", uuid.NewString())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
