package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rcliao/section-j/internal/chat"
	"github.com/rcliao/section-j/internal/report"
	"github.com/rcliao/section-j/internal/store"
)

// Tools holds references needed by the tool handlers.
type Tools struct {
	Store   store.Store
	Reports *report.Service
	Chat    *chat.Service
}

// --- Input types ---

type ListProjectsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Substring of the project name or building type"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of projects to return (default 20)"`
}

type ProjectInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project id"`
}

type GenerateReportInput struct {
	ProjectID   string `json:"project_id" jsonschema:"Project id"`
	Section     string `json:"section,omitempty" jsonschema:"Only include this section id, e.g. j9monitor"`
	SectionType string `json:"section_type,omitempty" jsonschema:"Section library to use (default section-j)"`
}

type DiagramChatInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project id"`
	Message   string `json:"message" jsonschema:"What to change in the diagram"`
}

type ApplyCommandsInput struct {
	ProjectID string `json:"project_id" jsonschema:"Project id"`
	Commands  string `json:"commands" jsonschema:"Commands in braces, or pipe-separated when piped is true"`
	Piped     bool   `json:"piped,omitempty" jsonschema:"Commands are separated by | instead of wrapped in braces"`
}

// --- Handlers ---

func (t *Tools) ListProjects(ctx context.Context, _ *mcp.CallToolRequest, input ListProjectsInput) (*mcp.CallToolResult, any, error) {
	projects, err := t.Store.ListProjects(ctx, store.ListProjectsParams{Query: input.Query, Limit: input.Limit})
	if err != nil {
		return toolError("Failed to list projects: %v", err), nil, nil
	}
	return toolJSON(projects)
}

func (t *Tools) ClassifyProject(ctx context.Context, _ *mcp.CallToolRequest, input ProjectInput) (*mcp.CallToolResult, any, error) {
	if input.ProjectID == "" {
		return toolError("project_id is required"), nil, nil
	}
	pctx, err := t.Reports.Context(ctx, input.ProjectID)
	if err != nil {
		return toolError("Failed to classify project: %v", err), nil, nil
	}
	return toolJSON(pctx)
}

func (t *Tools) GenerateReport(ctx context.Context, _ *mcp.CallToolRequest, input GenerateReportInput) (*mcp.CallToolResult, any, error) {
	if input.ProjectID == "" {
		return toolError("project_id is required"), nil, nil
	}
	r, err := t.Reports.Generate(ctx, input.ProjectID, input.Section, input.SectionType)
	if err != nil {
		return toolError("Failed to generate report: %v", err), nil, nil
	}
	return toolJSON(r)
}

func (t *Tools) GetDiagram(ctx context.Context, _ *mcp.CallToolRequest, input ProjectInput) (*mcp.CallToolResult, any, error) {
	if input.ProjectID == "" {
		return toolError("project_id is required"), nil, nil
	}
	if _, err := t.Store.GetProject(ctx, input.ProjectID); err != nil {
		return toolError("Failed to load project: %v", err), nil, nil
	}
	snap, err := t.Store.LatestDiagram(ctx, input.ProjectID)
	if err != nil {
		return toolError("Failed to load diagram: %v", err), nil, nil
	}
	return toolJSON(snap)
}

func (t *Tools) DiagramChat(ctx context.Context, _ *mcp.CallToolRequest, input DiagramChatInput) (*mcp.CallToolResult, any, error) {
	if input.ProjectID == "" || input.Message == "" {
		return toolError("project_id and message are required"), nil, nil
	}
	reply, err := t.Chat.Send(ctx, input.ProjectID, input.Message)
	if err != nil {
		if chat.IsNoCommands(err) && reply != nil {
			return toolError("%v. The model said: %s", err, reply.Preamble), nil, nil
		}
		return toolError("Diagram chat failed: %v", err), nil, nil
	}
	return toolJSON(reply)
}

func (t *Tools) ApplyDiagramCommands(ctx context.Context, _ *mcp.CallToolRequest, input ApplyCommandsInput) (*mcp.CallToolResult, any, error) {
	if input.ProjectID == "" || input.Commands == "" {
		return toolError("project_id and commands are required"), nil, nil
	}
	reply, err := t.Chat.Apply(ctx, input.ProjectID, input.Commands, input.Piped)
	if err != nil {
		return toolError("Failed to apply commands: %v", err), nil, nil
	}
	return toolJSON(reply)
}

// --- Helpers ---

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
