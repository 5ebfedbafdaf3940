package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rcliao/section-j/internal/chat"
	"github.com/rcliao/section-j/internal/classify"
	"github.com/rcliao/section-j/internal/diagram"
	"github.com/rcliao/section-j/internal/library"
	"github.com/rcliao/section-j/internal/llm"
	"github.com/rcliao/section-j/internal/model"
	"github.com/rcliao/section-j/internal/report"
	"github.com/rcliao/section-j/internal/resolver"
	"github.com/rcliao/section-j/internal/store"
)

// setup creates a server with in-memory transport and returns a connected
// client session and a project id.
func setup(t *testing.T, replies ...string) (*mcp.ClientSession, string) {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	area := 3000.0
	p, err := st.PutProject(ctx, store.PutProjectParams{
		Name: "Harbour Offices", BuildingType: "office",
		Location: &model.Location{Name: "Hobart"}, FloorArea: &area,
	})
	if err != nil {
		t.Fatalf("put project: %v", err)
	}

	c, err := classify.Default()
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	res := resolver.New(library.NewCache(library.NewFSLoader(library.Embedded())), nil)
	reports := report.New(st, c, res, nil)
	chats := chat.New(st, &llm.Static{Replies: replies}, diagram.DefaultGrid(), nil)

	srv := New(st, reports, chats)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	if _, err := srv.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session, p.ID
}

// callTool calls a tool and returns its text content and error flag.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	return tc.Text, result.IsError
}

func TestListTools(t *testing.T) {
	session, _ := setup(t)
	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"list_projects", "classify_project", "generate_report", "get_diagram", "diagram_chat", "apply_diagram_commands"} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}

func TestProjectTools(t *testing.T) {
	session, id := setup(t)

	text, isErr := callTool(t, session, "list_projects", map[string]any{"query": "harbour"})
	if isErr || !strings.Contains(text, id) {
		t.Errorf("list_projects should find the project: %s", text)
	}

	text, isErr = callTool(t, session, "classify_project", map[string]any{"project_id": id})
	if isErr {
		t.Fatalf("classify_project: %s", text)
	}
	var pctx model.ProjectContext
	if err := json.Unmarshal([]byte(text), &pctx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pctx.ClassType() != "Class_5" || pctx.Zone() != "7" {
		t.Errorf("unexpected context %s / %s", pctx.ClassType(), pctx.Zone())
	}

	text, isErr = callTool(t, session, "generate_report", map[string]any{"project_id": id, "section": "j9monitor"})
	if isErr {
		t.Fatalf("generate_report: %s", text)
	}
	var r report.Report
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(r.Sections) != 1 || r.Sections[0].SectionID != "j9monitor" {
		t.Errorf("expected only j9monitor, got %+v", r.Sections)
	}

	_, isErr = callTool(t, session, "generate_report", map[string]any{"project_id": "missing"})
	if !isErr {
		t.Error("expected error result for missing project")
	}
}

func TestDiagramTools(t *testing.T) {
	session, id := setup(t, "Sorry, I can't help with that.")

	text, isErr := callTool(t, session, "apply_diagram_commands", map[string]any{
		"project_id": id,
		"commands":   "{add,smart-meter,1,1,Main}{add,cloud,3,1}{connect,1,1,right,3,1,left}",
	})
	if isErr {
		t.Fatalf("apply_diagram_commands: %s", text)
	}
	var reply chat.Reply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Applied != 3 || len(reply.Graph.Edges) != 1 {
		t.Errorf("unexpected reply %+v", reply)
	}

	text, isErr = callTool(t, session, "get_diagram", map[string]any{"project_id": id})
	if isErr {
		t.Fatalf("get_diagram: %s", text)
	}
	var snap model.DiagramSnapshot
	if err := json.Unmarshal([]byte(text), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Version != 1 || len(snap.Graph.Nodes) != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	text, isErr = callTool(t, session, "diagram_chat", map[string]any{"project_id": id, "message": "make it pretty"})
	if !isErr || !strings.Contains(text, "no diagram commands") {
		t.Errorf("expected no-commands error, got %s", text)
	}
}
