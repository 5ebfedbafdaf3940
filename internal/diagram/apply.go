package diagram

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rcliao/section-j/internal/model"
)

var (
	ErrUnknownNodeType  = errors.New("unknown node type")
	ErrInvalidSide      = errors.New("invalid connection side")
	ErrCoordinate       = errors.New("coordinate out of range")
	ErrEndpointNotFound = errors.New("connection endpoint not found")
	ErrNodeNotFound     = errors.New("no node at position")
	ErrUnknownCommand   = errors.New("unknown command")

	// ErrNoCommands means a response contained no command syntax at all.
	ErrNoCommands = errors.New("could not interpret response: no diagram commands found")
)

// Edge defaults.
const (
	EdgeType        = "step"
	EdgeStroke      = "#1f2937"
	EdgeStrokeWidth = 2
	EdgeMarker      = "arrowclosed"
)

// Applier applies commands to graphs.
type Applier struct {
	Grid  Grid
	NewID func() string
}

// NewApplier creates an Applier using random UUIDs for element ids.
func NewApplier(grid Grid) *Applier {
	return &Applier{Grid: grid, NewID: uuid.NewString}
}

// Apply returns the graph that results from cmd. When it returns an error
// the command is a no-op and the returned graph equals g.
func (a *Applier) Apply(g model.Graph, cmd Command) (model.Graph, error) {
	switch cmd.Verb {
	case VerbDeleteAll:
		return model.Graph{Nodes: []model.Node{}, Edges: []model.Edge{}}, nil
	case VerbAdd:
		return a.add(g, cmd)
	case VerbConnect:
		return a.connect(g, cmd)
	case VerbDelete:
		return a.remove(g, cmd)
	}
	return g, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Verb)
}

func (a *Applier) add(g model.Graph, cmd Command) (model.Graph, error) {
	nt, ok := LookupNodeType(cmd.NodeType)
	if !ok {
		return g, fmt.Errorf("%w: %q", ErrUnknownNodeType, cmd.NodeType)
	}
	pos, err := a.Grid.ToPixel(cmd.X, cmd.Y)
	if err != nil {
		return g, err
	}
	label := cmd.Label
	if label == "" {
		label = DefaultLabel(nt.Name)
	}

	out := g.Clone()
	out.Nodes = append(out.Nodes, model.Node{
		ID:       nt.Tag + "-" + a.NewID(),
		Type:     nt.Tag,
		Position: pos,
		Data:     model.NodeData{Label: label},
		Width:    nt.Width,
		Height:   nt.Height,
	})
	return out, nil
}

func (a *Applier) connect(g model.Graph, cmd Command) (model.Graph, error) {
	fromSide, ok := LookupSide(cmd.From.Side)
	if !ok {
		return g, fmt.Errorf("%w: %q", ErrInvalidSide, cmd.From.Side)
	}
	toSide, ok := LookupSide(cmd.To.Side)
	if !ok {
		return g, fmt.Errorf("%w: %q", ErrInvalidSide, cmd.To.Side)
	}
	src, err := a.nodeAt(g, cmd.From.X, cmd.From.Y)
	if err != nil {
		return g, err
	}
	dst, err := a.nodeAt(g, cmd.To.X, cmd.To.Y)
	if err != nil {
		return g, err
	}

	out := g.Clone()
	out.Edges = append(out.Edges, model.Edge{
		ID:           "edge-" + a.NewID(),
		Source:       src.ID,
		Target:       dst.ID,
		SourceHandle: fromSide,
		TargetHandle: toSide,
		Type:         EdgeType,
		Style:        model.EdgeStyle{Stroke: EdgeStroke, StrokeWidth: EdgeStrokeWidth},
		MarkerEnd:    model.Marker{Type: EdgeMarker},
	})
	return out, nil
}

// nodeAt finds the first node whose position equals the mapped grid
// coordinate exactly.
func (a *Applier) nodeAt(g model.Graph, x, y int) (model.Node, error) {
	pos, err := a.Grid.ToPixel(x, y)
	if err != nil {
		return model.Node{}, err
	}
	for _, n := range g.Nodes {
		if n.Position == pos {
			return n, nil
		}
	}
	return model.Node{}, fmt.Errorf("%w: (%d,%d)", ErrEndpointNotFound, x, y)
}

func (a *Applier) remove(g model.Graph, cmd Command) (model.Graph, error) {
	pos, err := a.Grid.ToPixel(cmd.X, cmd.Y)
	if err != nil {
		return g, err
	}
	half := a.Grid.CellSize / 2
	target := ""
	for _, n := range g.Nodes {
		if math.Abs(n.Position.X-pos.X) < half && math.Abs(n.Position.Y-pos.Y) < half {
			target = n.ID
			break
		}
	}
	if target == "" {
		return g, fmt.Errorf("%w: (%d,%d)", ErrNodeNotFound, cmd.X, cmd.Y)
	}

	out := model.Graph{Nodes: []model.Node{}, Edges: []model.Edge{}}
	for _, n := range g.Nodes {
		if n.ID != target {
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		if e.Source != target && e.Target != target {
			out.Edges = append(out.Edges, e)
		}
	}
	return out, nil
}

// Skipped records a command that left the graph unchanged.
type Skipped struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

// Outcome summarises a batch.
type Outcome struct {
	Applied int       `json:"applied"`
	Skipped []Skipped `json:"skipped"`
}

// Run folds results over g in order. Parse errors and failed commands are
// logged and skipped; later commands see the effects of earlier ones.
func (a *Applier) Run(g model.Graph, results []Result, logger *zap.Logger) (model.Graph, Outcome) {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := Outcome{Skipped: []Skipped{}}
	for _, r := range results {
		if r.Err != nil {
			logger.Warn("diagram command skipped", zap.String("command", r.Err.Raw), zap.String("reason", r.Err.Reason))
			out.Skipped = append(out.Skipped, Skipped{Command: r.Err.Raw, Reason: r.Err.Reason})
			continue
		}
		next, err := a.Apply(g, *r.Command)
		if err != nil {
			logger.Warn("diagram command skipped", zap.String("command", r.Command.Raw), zap.Error(err))
			out.Skipped = append(out.Skipped, Skipped{Command: r.Command.Raw, Reason: err.Error()})
			continue
		}
		g = next
		out.Applied++
	}
	return g, out
}

// Prune drops edges whose source or target is missing and normalises nil
// slices to empty ones.
func Prune(g model.Graph) model.Graph {
	out := model.Graph{Nodes: []model.Node{}, Edges: []model.Edge{}}
	out.Nodes = append(out.Nodes, g.Nodes...)
	for _, e := range g.Edges {
		if g.HasNode(e.Source) && g.HasNode(e.Target) {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}
