// Package chat runs diagram conversations: it asks a language model for
// diagram commands and applies them to the project's latest diagram.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rcliao/section-j/internal/diagram"
	"github.com/rcliao/section-j/internal/llm"
	"github.com/rcliao/section-j/internal/model"
)

// ErrEmptyMessage is returned by Send for a blank message.
var ErrEmptyMessage = errors.New("message is required")

// Store is the persistence the chat service needs.
type Store interface {
	GetProject(ctx context.Context, id string) (*model.Project, error)
	LatestDiagram(ctx context.Context, projectID string) (*model.DiagramSnapshot, error)
	SaveDiagram(ctx context.Context, projectID string, g model.Graph) (*model.DiagramSnapshot, error)
	AddTurn(ctx context.Context, t model.ChatTurn) (*model.ChatTurn, error)
	ListTurns(ctx context.Context, projectID string, limit int) ([]model.ChatTurn, error)
}

// Reply is the result of one chat turn or command batch.
type Reply struct {
	Preamble string            `json:"preamble,omitempty"`
	Applied  int               `json:"applied"`
	Skipped  []diagram.Skipped `json:"skipped"`
	Version  int               `json:"version"`
	Graph    model.Graph       `json:"graph"`
}

// Service coordinates the store, the model and the command applier.
type Service struct {
	store   Store
	llm     llm.Completer
	applier *diagram.Applier
	grid    diagram.Grid
	logger  *zap.Logger

	// HistoryTurns is how many earlier requests are included in the prompt.
	HistoryTurns int
}

// New creates a chat service. completer may be nil, in which case Send
// fails with llm.ErrDisabled and Apply still works.
func New(st Store, completer llm.Completer, grid diagram.Grid, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        st,
		llm:          completer,
		applier:      diagram.NewApplier(grid),
		grid:         grid,
		logger:       logger,
		HistoryTurns: 5,
	}
}

// Applier exposes the command applier, mainly so tests can fix node ids.
func (s *Service) Applier() *diagram.Applier { return s.applier }

// Send asks the model to act on message and applies the commands it returns.
// A reply without any command syntax yields diagram.ErrNoCommands; the turn
// is still recorded and the diagram is left as it was.
func (s *Service) Send(ctx context.Context, projectID, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if s.llm == nil {
		return nil, llm.ErrDisabled
	}
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.LatestDiagram(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load diagram: %w", err)
	}
	current := diagram.Prune(snap.Graph)

	var history []model.ChatTurn
	if s.HistoryTurns > 0 {
		history, err = s.store.ListTurns(ctx, projectID, s.HistoryTurns)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
	}

	prompt := UserPrompt(*project, diagram.Describe(current, s.grid), history, message)
	s.logger.Debug("diagram chat request",
		zap.String("project", projectID),
		zap.String("provider", s.llm.Name()),
		zap.Int("nodes", len(current.Nodes)))

	text, err := s.llm.CompleteWithSystem(ctx, SystemPrompt(s.grid), prompt)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	reply, err := s.run(ctx, projectID, snap.Version, current, diagram.Parse(text))
	if reply != nil {
		reply.Preamble = diagram.Preamble(text)
	}

	turn := model.ChatTurn{ProjectID: projectID, Message: message, Response: text}
	if reply != nil {
		turn.Applied = reply.Applied
		turn.Skipped = len(reply.Skipped)
	}
	if _, terr := s.store.AddTurn(ctx, turn); terr != nil {
		s.logger.Warn("failed to record chat turn", zap.String("project", projectID), zap.Error(terr))
	}
	return reply, err
}

// Apply runs commands typed directly, without the model. piped selects the
// "a | b | c" form instead of brace spans.
func (s *Service) Apply(ctx context.Context, projectID, text string, piped bool) (*Reply, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	snap, err := s.store.LatestDiagram(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load diagram: %w", err)
	}
	results := diagram.Parse(text)
	if piped {
		results = diagram.ParsePiped(text)
	}
	return s.run(ctx, projectID, snap.Version, diagram.Prune(snap.Graph), results)
}

// Reset clears the project's diagram.
func (s *Service) Reset(ctx context.Context, projectID string) (*Reply, error) {
	return s.Apply(ctx, projectID, "{delete-all}", false)
}

func (s *Service) run(ctx context.Context, projectID string, version int, current model.Graph, results []diagram.Result) (*Reply, error) {
	if len(results) == 0 {
		return &Reply{Skipped: []diagram.Skipped{}, Version: version, Graph: current}, diagram.ErrNoCommands
	}

	next, outcome := s.applier.Run(current, results, s.logger)
	reply := &Reply{Applied: outcome.Applied, Skipped: outcome.Skipped, Version: version, Graph: next}

	recognised := 0
	for _, r := range results {
		if r.Command != nil {
			recognised++
		}
	}
	if recognised == 0 {
		s.logger.Info("no recognised diagram commands", zap.String("project", projectID), zap.Int("spans", len(results)))
		reply.Graph = current
		return reply, nil
	}

	saved, err := s.store.SaveDiagram(ctx, projectID, next)
	if err != nil {
		return nil, fmt.Errorf("save diagram: %w", err)
	}
	reply.Version = saved.Version
	s.logger.Info("diagram updated",
		zap.String("project", projectID),
		zap.Int("version", saved.Version),
		zap.Int("applied", outcome.Applied),
		zap.Int("skipped", len(outcome.Skipped)))
	return reply, nil
}

// IsNoCommands reports whether err means the text held no commands.
func IsNoCommands(err error) bool {
	return errors.Is(err, diagram.ErrNoCommands)
}
