package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/section-j/internal/classify"
	"github.com/rcliao/section-j/internal/library"
	"github.com/rcliao/section-j/internal/model"
	"github.com/rcliao/section-j/internal/resolver"
	"github.com/rcliao/section-j/internal/store"
)

type projects map[string]model.Project

func (p projects) GetProject(_ context.Context, id string) (*model.Project, error) {
	pr, ok := p[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, store.ErrNotFound)
	}
	return &pr, nil
}

func f(v float64) *float64 { return &v }

var testLibrary = library.Memory{"t": {
	{
		SectionID:    "monitoring",
		Title:        "Energy monitoring",
		DisplayOrder: 1,
		OverallApplicability: model.ApplicabilityRules{
			BuildingClasses: []string{"Class_5"},
		},
		ContentBlocks: []model.ContentBlock{
			{BlockID: "intro", ContentType: model.ContentParagraph, Text: "{{project.name}} is {{buildingClassification.classType}}."},
			{BlockID: "schedule", ContentType: model.ContentTable, Table: &model.Table{
				Headers: []string{"Service", "Meter"},
				Rows:    [][]string{{"Lighting", "Yes"}, {"HVAC", "Yes"}},
			}},
			{BlockID: "list", ContentType: model.ContentList, Items: []string{"Lifts", "Hot water"}},
		},
	},
}}

func newTestService(t *testing.T, ps projects) *Service {
	t.Helper()
	c, err := classify.Default()
	require.NoError(t, err)
	svc := New(ps, c, resolver.New(testLibrary, nil), nil)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func TestGenerate(t *testing.T) {
	svc := newTestService(t, projects{"p1": {
		ID: "p1", Name: "Harbour Offices", BuildingType: "office",
		Location: &model.Location{Name: "Hobart"}, FloorArea: f(1200),
	}})

	r, err := svc.Generate(context.Background(), "p1", "", "t")
	require.NoError(t, err)

	require.NotNil(t, r.BuildingClassification)
	assert.Equal(t, "Class_5", r.BuildingClassification.ClassType)
	require.NotNil(t, r.ClimateZone)
	assert.Equal(t, "7", r.ClimateZone.Zone)
	require.Len(t, r.Sections, 1)
	assert.Equal(t, "Harbour Offices is Class_5.", r.Sections[0].ContentBlocks[0].Text)
	assert.Equal(t, "1 applicable sections, 3 requirements", r.Summary)
	assert.Equal(t, "t", r.SectionType)
	assert.Equal(t, 2026, r.GeneratedAt.Year())
}

func TestGenerateNoRequirements(t *testing.T) {
	svc := newTestService(t, projects{"p1": {ID: "p1", Name: "Corner Cafe", BuildingType: "cafe"}})

	r, err := svc.Generate(context.Background(), "p1", "", "t")
	require.NoError(t, err)
	assert.Empty(t, r.Sections)
	assert.NotNil(t, r.Sections)
	assert.Equal(t, NoRequirements, r.Summary)
}

func TestGenerateErrors(t *testing.T) {
	svc := newTestService(t, projects{"p1": {ID: "p1", Name: "A", BuildingType: "office"}})

	_, err := svc.Generate(context.Background(), "missing", "", "t")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	_, err = svc.Generate(context.Background(), "p1", "", "no-such-type")
	assert.True(t, errors.Is(err, library.ErrLibraryNotFound))
}

func TestRender(t *testing.T) {
	svc := newTestService(t, projects{"p1": {
		ID: "p1", Name: "Harbour Offices", BuildingType: "office",
		Location: &model.Location{Name: "Hobart"}, FloorArea: f(1200),
	}})
	r, err := svc.Generate(context.Background(), "p1", "", "t")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "Harbour Offices\n===============")
	assert.Contains(t, out, "Classification: Class_5")
	assert.Contains(t, out, "Climate zone:   7")
	assert.Contains(t, out, "Floor area:     1,200 m²")
	assert.Contains(t, out, "Energy monitoring\n-----------------")
	assert.Contains(t, out, "  Service  Meter")
	assert.Contains(t, out, "  Lighting Yes")
	assert.Contains(t, out, "  - Hot water")
}

func TestRenderUnknownContext(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &Report{ProjectName: "X", Summary: NoRequirements}))
	assert.Contains(t, buf.String(), "Classification: unknown")
	assert.Contains(t, buf.String(), NoRequirements)
}
