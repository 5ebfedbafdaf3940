package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func newTestServer(t *testing.T, replies ...string) *httptest.Server {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	c, err := classify.Default()
	require.NoError(t, err)
	res := resolver.New(library.NewCache(library.NewFSLoader(library.Embedded())), nil)

	s := &Server{
		Store:   st,
		Reports: report.New(st, c, res, nil),
		Chat:    chat.New(st, &llm.Static{Replies: replies}, diagram.DefaultGrid(), nil),
	}
	srv := httptest.NewServer(s.Handler(nil))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func createProject(t *testing.T, srv *httptest.Server) model.Project {
	t.Helper()
	resp, body := do(t, "POST", srv.URL+"/api/projects",
		`{"name":"Harbour Offices","buildingType":"office","location":"Hobart","floorArea":3000}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	var p model.Project
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

func TestProjects(t *testing.T) {
	srv := newTestServer(t)
	p := createProject(t, srv)
	assert.NotEmpty(t, p.ID)
	require.NotNil(t, p.Location)
	assert.Equal(t, "Hobart", p.Location.Name)

	resp, body := do(t, "GET", srv.URL+"/api/projects/"+p.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Harbour Offices")

	resp, body = do(t, "GET", srv.URL+"/api/projects?q=harbour", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, p.ID)

	resp, _ = do(t, "PUT", srv.URL+"/api/projects/"+p.ID, `{"name":"Harbour Offices","buildingType":"shop"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, "DELETE", srv.URL+"/api/projects/"+p.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, "GET", srv.URL+"/api/projects/"+p.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing name", "POST", "/api/projects", `{"buildingType":"office"}`, http.StatusBadRequest},
		{"invalid json", "POST", "/api/projects", `{`, http.StatusBadRequest},
		{"empty body", "POST", "/api/projects", ``, http.StatusBadRequest},
		{"update missing project", "PUT", "/api/projects/nope", `{"name":"x"}`, http.StatusNotFound},
		{"report missing project", "GET", "/api/projects/nope/report", ``, http.StatusNotFound},
		{"diagram missing project", "GET", "/api/projects/nope/diagram", ``, http.StatusNotFound},
		{"blank chat message", "POST", "/api/projects/nope/chat", `{"message":"  \n "}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, srv.URL+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode, body)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(chat.ErrEmptyMessage))
	assert.Equal(t, http.StatusBadRequest, statusFor(badRequest(errors.New("x"))))
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("project p: %w", store.ErrNotFound)))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(llm.ErrDisabled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestReport(t *testing.T) {
	srv := newTestServer(t)
	p := createProject(t, srv)

	resp, body := do(t, "GET", srv.URL+"/api/projects/"+p.ID+"/report?section=j9monitor", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	require.Len(t, r.Sections, 1)
	assert.Equal(t, "j9monitor", r.Sections[0].SectionID)
	assert.Equal(t, "Class_5", r.BuildingClassification.ClassType)

	resp, body = do(t, "GET", srv.URL+"/api/projects/"+p.ID+"/report?format=text", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Harbour Offices\n")

	resp, _ = do(t, "GET", srv.URL+"/api/projects/"+p.ID+"/report?type=unknown", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, body = do(t, "GET", srv.URL+"/api/projects/"+p.ID+"/classification", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"zone": "7"`)
}

func TestDiagramCommandsAndChat(t *testing.T) {
	srv := newTestServer(t, "Adding a tenant meter. {add,meter,2,2,Tenant}", "I cannot draw that.")
	p := createProject(t, srv)
	base := srv.URL + "/api/projects/" + p.ID

	resp, body := do(t, "POST", base+"/diagram/commands", `{"commands":"add,smart-meter,1,1 | add,cloud,3,1","piped":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var reply chat.Reply
	require.NoError(t, json.Unmarshal([]byte(body), &reply))
	assert.Equal(t, 2, reply.Applied)

	resp, body = do(t, "POST", base+"/diagram/commands", `{"commands":"nothing to see"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, body)

	resp, body = do(t, "POST", base+"/chat", `{"message":"add a tenant meter"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	require.NoError(t, json.Unmarshal([]byte(body), &reply))
	assert.Equal(t, "Adding a tenant meter.", reply.Preamble)
	assert.Len(t, reply.Graph.Nodes, 3)
	assert.Equal(t, 2, reply.Version)

	resp, body = do(t, "POST", base+"/chat", `{"message":"draw a dragon"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "I cannot draw that.")

	resp, body = do(t, "GET", base+"/diagram", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap model.DiagramSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	assert.Equal(t, 2, snap.Version)

	resp, body = do(t, "GET", base+"/diagram/history", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var hist []model.DiagramSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &hist))
	assert.Len(t, hist, 2)
}

func TestChatDisabled(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer st.Close()
	p, err := st.PutProject(t.Context(), store.PutProjectParams{Name: "A"})
	require.NoError(t, err)

	s := &Server{Store: st, Chat: chat.New(st, nil, diagram.DefaultGrid(), nil)}
	srv := httptest.NewServer(s.Handler(nil))
	defer srv.Close()

	resp, _ := do(t, "POST", srv.URL+"/api/projects/"+p.ID+"/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthAndExtraHandlers(t *testing.T) {
	s := &Server{}
	extra := map[string]http.Handler{
		"/mcp": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }),
	}
	srv := httptest.NewServer(s.Handler(extra))
	defer srv.Close()

	resp, _ := do(t, "GET", srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, "POST", srv.URL+"/mcp", "{}")
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
