// Package mcpserver exposes projects, reports and diagram chat as MCP tools.
package mcpserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rcliao/section-j/internal/chat"
	"github.com/rcliao/section-j/internal/report"
	"github.com/rcliao/section-j/internal/store"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// New creates an MCP server with all tools registered.
func New(st store.Store, reports *report.Service, chats *chat.Service) *mcp.Server {
	t := &Tools{Store: st, Reports: reports, Chat: chats}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "section-j",
		Version: Version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_projects",
		Description: "List building projects, optionally filtered by a name or building type substring",
	}, t.ListProjects)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "classify_project",
		Description: "Resolve a project's NCC building classification and climate zone",
	}, t.ClassifyProject)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "generate_report",
		Description: "Generate the applicable Section J requirements for a project",
	}, t.GenerateReport)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_diagram",
		Description: "Get the latest single-line metering diagram of a project",
	}, t.GetDiagram)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "diagram_chat",
		Description: "Describe a change to a project's metering diagram in plain language; the model edits the diagram",
	}, t.DiagramChat)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "apply_diagram_commands",
		Description: "Apply diagram commands such as {add,smart-meter,1,1,Main} or {connect,1,1,right,3,1,left} directly",
	}, t.ApplyDiagramCommands)

	return srv
}
