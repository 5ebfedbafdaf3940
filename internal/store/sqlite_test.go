package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rcliao/section-j/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func f(v float64) *float64 { return &v }

func TestPutAndGetProject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.PutProject(ctx, PutProjectParams{
		Name:         "Harbour Offices",
		BuildingType: "office",
		Location:     &model.Location{Name: "Hobart", State: "TAS"},
		FloorArea:    f(1200),
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if p.ID == "" {
		t.Error("expected non-empty ID")
	}

	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Harbour Offices" || got.BuildingType != "office" {
		t.Errorf("unexpected project %+v", got)
	}
	if got.Location == nil || got.Location.Name != "Hobart" {
		t.Errorf("location not round-tripped: %+v", got.Location)
	}
	if got.FloorArea == nil || *got.FloorArea != 1200 {
		t.Errorf("floor area not round-tripped: %v", got.FloorArea)
	}
	if got.ClimateZone != nil || got.TotalAreaOfHabitableRooms != nil {
		t.Error("unset fields should stay nil")
	}
}

func TestPutProjectRequiresName(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.PutProject(context.Background(), PutProjectParams{Name: "  "}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestUpdateProject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, _ := s.PutProject(ctx, PutProjectParams{Name: "A", BuildingType: "office", FloorArea: f(100)})
	updated, err := s.PutProject(ctx, PutProjectParams{
		ID:          p.ID,
		Name:        "A",
		ClimateZone: &model.ClimateZone{Zone: "5"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != p.ID {
		t.Errorf("id changed: %s -> %s", p.ID, updated.ID)
	}
	if updated.FloorArea != nil {
		t.Error("update should replace floor area")
	}
	if updated.ClimateZone == nil || updated.ClimateZone.Zone != "5" {
		t.Errorf("climate zone not stored: %+v", updated.ClimateZone)
	}

	_, err = s.PutProject(ctx, PutProjectParams{ID: "missing", Name: "B"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetMissingProject(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetProject(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListProjects(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.PutProject(ctx, PutProjectParams{Name: "Harbour Offices", BuildingType: "office"})
	s.PutProject(ctx, PutProjectParams{Name: "Corner Cafe", BuildingType: "cafe"})
	s.PutProject(ctx, PutProjectParams{Name: "Office Park", BuildingType: "office"})

	all, err := s.ListProjects(ctx, ListProjectsParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 projects, got %d", len(all))
	}

	offices, _ := s.ListProjects(ctx, ListProjectsParams{BuildingType: "office"})
	if len(offices) != 2 {
		t.Errorf("expected 2 offices, got %d", len(offices))
	}

	byName, _ := s.ListProjects(ctx, ListProjectsParams{Query: "cafe"})
	if len(byName) != 1 || byName[0].Name != "Corner Cafe" {
		t.Errorf("query should match name, got %+v", byName)
	}

	limited, _ := s.ListProjects(ctx, ListProjectsParams{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected 1 with limit, got %d", len(limited))
	}
}

func TestRmProject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, _ := s.PutProject(ctx, PutProjectParams{Name: "A"})
	s.SaveDiagram(ctx, p.ID, model.Graph{Nodes: []model.Node{{ID: "n1"}}})
	s.AddTurn(ctx, model.ChatTurn{ProjectID: p.ID, Message: "hi", Response: "{delete-all}"})

	if err := s.RmProject(ctx, p.ID); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if _, err := s.GetProject(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected project gone, got %v", err)
	}
	hist, _ := s.DiagramHistory(ctx, p.ID, 0)
	if len(hist) != 0 {
		t.Errorf("expected snapshots removed, got %d", len(hist))
	}
	if err := s.RmProject(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second rm should be ErrNotFound, got %v", err)
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("create store with nested path: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}
