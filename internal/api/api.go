// Package api serves projects, reports and diagram chat over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/section-j/internal/chat"
	"github.com/rcliao/section-j/internal/diagram"
	"github.com/rcliao/section-j/internal/llm"
	"github.com/rcliao/section-j/internal/model"
	"github.com/rcliao/section-j/internal/report"
	"github.com/rcliao/section-j/internal/store"
)

const maxBody = 1 << 20

// Server holds the handlers' dependencies.
type Server struct {
	Store   store.Store
	Reports *report.Service
	Chat    *chat.Service
	Logger  *zap.Logger
}

// Handler returns the routes. extra handlers, such as the MCP endpoint, are
// mounted by path.
func (s *Server) Handler(extra map[string]http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects", s.listProjects)
	mux.HandleFunc("POST /api/projects", s.putProject)
	mux.HandleFunc("GET /api/projects/{id}", s.getProject)
	mux.HandleFunc("PUT /api/projects/{id}", s.putProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.rmProject)
	mux.HandleFunc("GET /api/projects/{id}/classification", s.classify)
	mux.HandleFunc("GET /api/projects/{id}/report", s.report)
	mux.HandleFunc("GET /api/projects/{id}/diagram", s.getDiagram)
	mux.HandleFunc("GET /api/projects/{id}/diagram/history", s.diagramHistory)
	mux.HandleFunc("POST /api/projects/{id}/diagram/commands", s.applyCommands)
	mux.HandleFunc("POST /api/projects/{id}/chat", s.chat)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	for path, h := range extra {
		mux.Handle(path, h)
	}
	return s.logRequests(mux)
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// --- Projects ---

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	projects, err := s.Store.ListProjects(r.Context(), store.ListProjectsParams{
		Query:        q.Get("q"),
		BuildingType: q.Get("type"),
		Limit:        limit,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) putProject(w http.ResponseWriter, r *http.Request) {
	var p model.Project
	if err := decode(r, &p); err != nil {
		s.writeError(w, badRequest(err))
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		s.writeError(w, badRequest(fmt.Errorf("name is required")))
		return
	}
	p.ID = r.PathValue("id") // empty for POST
	saved, err := s.Store.PutProject(r.Context(), store.PutProjectParams{
		ID:                        p.ID,
		Name:                      p.Name,
		BuildingType:              p.BuildingType,
		BuildingClassification:    p.BuildingClassification,
		Location:                  p.Location,
		ClimateZone:               p.ClimateZone,
		FloorArea:                 p.FloorArea,
		TotalAreaOfHabitableRooms: p.TotalAreaOfHabitableRooms,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	writeJSON(w, status, saved)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.Store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) rmProject(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.RmProject(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Reports ---

func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	pctx, err := s.Reports.Context(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pctx)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rep, err := s.Reports.Generate(r.Context(), r.PathValue("id"), q.Get("section"), q.Get("type"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if q.Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		report.Render(w, rep)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// --- Diagrams ---

func (s *Server) getDiagram(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.Store.GetProject(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := s.Store.LatestDiagram(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) diagramHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.Store.GetProject(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	snaps, err := s.Store.DiagramHistory(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

type commandsRequest struct {
	Commands string `json:"commands"`
	Piped    bool   `json:"piped"`
}

func (s *Server) applyCommands(w http.ResponseWriter, r *http.Request) {
	var req commandsRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, badRequest(err))
		return
	}
	reply, err := s.Chat.Apply(r.Context(), r.PathValue("id"), req.Commands, req.Piped)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, badRequest(err))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, badRequest(chat.ErrEmptyMessage))
		return
	}
	reply, err := s.Chat.Send(r.Context(), r.PathValue("id"), req.Message)
	if err != nil {
		if chat.IsNoCommands(err) && reply != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    err.Error(),
				"preamble": reply.Preamble,
			})
			return
		}
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// --- Helpers ---

type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return requestError{err} }

func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return fmt.Errorf("request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var re requestError
	switch {
	case errors.As(err, &re), errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, diagram.ErrNoCommands):
		return http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		// includes library.ErrLibraryNotFound and library.ErrMalformedRules
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
