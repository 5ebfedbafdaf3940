package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/section-j/internal/model"
)

// ProjectExport is a project together with its latest diagram.
type ProjectExport struct {
	Project model.Project `json:"project"`
	Diagram *model.Graph  `json:"diagram,omitempty"`
}

// ExportAll returns every project with its latest diagram, if any.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]ProjectExport, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		projects = append(projects, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := []ProjectExport{}
	for _, p := range projects {
		e := ProjectExport{Project: p}
		snap, err := s.LatestDiagram(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("diagram for %s: %w", p.ID, err)
		}
		if snap.Version > 0 {
			g := snap.Graph
			e.Diagram = &g
		}
		out = append(out, e)
	}
	return out, nil
}

// Import stores projects from an export, keeping their ids. An existing
// project with the same id is overwritten and a non-empty diagram is saved
// as its next version.
func (s *SQLiteStore) Import(ctx context.Context, exports []ProjectExport) (int, error) {
	imported := 0
	for _, e := range exports {
		p := e.Project
		if p.ID == "" {
			created, err := s.PutProject(ctx, paramsFor(p))
			if err != nil {
				return imported, err
			}
			p.ID = created.ID
		} else if err := s.upsertProject(ctx, p); err != nil {
			return imported, err
		}
		if e.Diagram != nil && (len(e.Diagram.Nodes) > 0 || len(e.Diagram.Edges) > 0) {
			if _, err := s.SaveDiagram(ctx, p.ID, *e.Diagram); err != nil {
				return imported, err
			}
		}
		imported++
	}
	return imported, nil
}

func (s *SQLiteStore) upsertProject(ctx context.Context, p model.Project) error {
	classification, err := jsonColumn(p.BuildingClassification)
	if err != nil {
		return err
	}
	location, err := jsonColumn(p.Location)
	if err != nil {
		return err
	}
	zone, err := jsonColumn(p.ClimateZone)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	created, updated := p.CreatedAt, p.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = now
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, building_type, classification, location, climate_zone, floor_area, habitable_area, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, building_type = excluded.building_type,
		   classification = excluded.classification, location = excluded.location,
		   climate_zone = excluded.climate_zone, floor_area = excluded.floor_area,
		   habitable_area = excluded.habitable_area, updated_at = excluded.updated_at`,
		p.ID, p.Name, p.BuildingType, classification, location, zone, p.FloorArea, p.TotalAreaOfHabitableRooms,
		created.UTC().Format(timeFormat), updated.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("import project %s: %w", p.ID, err)
	}
	return nil
}

func paramsFor(p model.Project) PutProjectParams {
	return PutProjectParams{
		ID:                        p.ID,
		Name:                      p.Name,
		BuildingType:              p.BuildingType,
		BuildingClassification:    p.BuildingClassification,
		Location:                  p.Location,
		ClimateZone:               p.ClimateZone,
		FloorArea:                 p.FloorArea,
		TotalAreaOfHabitableRooms: p.TotalAreaOfHabitableRooms,
	}
}
