// Package store provides the project storage interface and SQLite implementation.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/section-j/internal/model"
)

// ErrNotFound is returned when a project does not exist.
var ErrNotFound = errors.New("not found")

// PutProjectParams holds parameters for creating or updating a project.
// An empty ID creates a new project.
type PutProjectParams struct {
	ID                        string
	Name                      string
	BuildingType              string
	BuildingClassification    *model.BuildingClassification
	Location                  *model.Location
	ClimateZone               *model.ClimateZone
	FloorArea                 *float64
	TotalAreaOfHabitableRooms *float64
}

// ListProjectsParams holds parameters for listing projects.
type ListProjectsParams struct {
	Query        string // substring of name or building type
	BuildingType string
	Limit        int
}

// Store defines the project storage interface.
type Store interface {
	// PutProject creates or updates a project.
	PutProject(ctx context.Context, p PutProjectParams) (*model.Project, error)

	// GetProject retrieves a project by id.
	GetProject(ctx context.Context, id string) (*model.Project, error)

	// ListProjects lists projects, newest first.
	ListProjects(ctx context.Context, p ListProjectsParams) ([]model.Project, error)

	// RmProject deletes a project with its diagrams and chat turns.
	RmProject(ctx context.Context, id string) error

	// SaveDiagram stores a new diagram version for a project.
	SaveDiagram(ctx context.Context, projectID string, g model.Graph) (*model.DiagramSnapshot, error)

	// LatestDiagram returns the newest diagram version, or an empty
	// version-0 snapshot when none exists.
	LatestDiagram(ctx context.Context, projectID string) (*model.DiagramSnapshot, error)

	// DiagramHistory returns diagram versions, newest first.
	DiagramHistory(ctx context.Context, projectID string, limit int) ([]model.DiagramSnapshot, error)

	// AddTurn records a chat turn.
	AddTurn(ctx context.Context, t model.ChatTurn) (*model.ChatTurn, error)

	// ListTurns returns chat turns, oldest first.
	ListTurns(ctx context.Context, projectID string, limit int) ([]model.ChatTurn, error)

	// Close closes the store.
	Close() error
}
