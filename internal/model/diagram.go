package model

import "time"

// Graph is a single-line diagram in the node-graph editor's persisted format.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Position is a pixel coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries the display fields of a node.
type NodeData struct {
	Label string `json:"label"`
}

// Node is one diagram element.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
}

// EdgeStyle is the stroke of an edge.
type EdgeStyle struct {
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// Marker is an edge end marker.
type Marker struct {
	Type string `json:"type"`
}

// Edge connects two nodes by their handles.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle"`
	TargetHandle string    `json:"targetHandle"`
	Type         string    `json:"type"`
	Style        EdgeStyle `json:"style"`
	MarkerEnd    Marker    `json:"markerEnd"`
}

// Clone returns a deep copy of g with non-nil slices.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	return out
}

// HasNode reports whether a node with the given id exists.
func (g Graph) HasNode(id string) bool {
	for _, n := range g.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// DiagramSnapshot is a persisted version of a project's diagram.
type DiagramSnapshot struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	Version    int       `json:"version"`
	Supersedes string    `json:"supersedes,omitempty"`
	Graph      Graph     `json:"graph"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ChatTurn records one diagram chat exchange.
type ChatTurn struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Applied   int       `json:"applied"`
	Skipped   int       `json:"skipped"`
	CreatedAt time.Time `json:"createdAt"`
}
