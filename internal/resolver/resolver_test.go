package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rcliao/section-j/internal/library"
	"github.com/rcliao/section-j/internal/model"
)

func f(v float64) *float64 { return &v }

func para(id string, rules model.ApplicabilityRules) model.ContentBlock {
	return model.ContentBlock{BlockID: id, ContentType: model.ContentParagraph, BlockApplicability: rules, Text: id}
}

func office(area float64) model.ProjectContext {
	return model.ProjectContext{
		Project:                model.Project{ID: "p1", BuildingType: "office", FloorArea: f(area), Location: &model.Location{Name: "Hobart"}},
		BuildingClassification: &model.BuildingClassification{ClassType: "Class_5"},
		ClimateZone:            &model.ClimateZone{Zone: "7"},
	}
}

func blockIDs(s model.Section) []string {
	var ids []string
	for _, b := range s.ContentBlocks {
		ids = append(ids, b.BlockID)
	}
	return ids
}

func sectionIDs(ss []model.Section) []string {
	var ids []string
	for _, s := range ss {
		ids = append(ids, s.SectionID)
	}
	return ids
}

func TestResolve_ExemptionBlocksFollowRegularBlocks(t *testing.T) {
	lib := library.Memory{"t": {{
		SectionID: "s1", Title: "S1", DisplayOrder: 1,
		ContentBlocks: []model.ContentBlock{
			para("a-exemption", model.ApplicabilityRules{}),
			para("b", model.ApplicabilityRules{}),
			para("exemption-c", model.ApplicabilityRules{}),
			para("d", model.ApplicabilityRules{}),
		},
	}}}

	got, err := New(lib, nil).Resolve(context.Background(), office(1000), "", "t")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := []string{"b", "d", "a-exemption", "exemption-c"}
	if diff := cmp.Diff(want, blockIDs(got[0])); diff != "" {
		t.Errorf("block order (-want +got):\n%s", diff)
	}
}

func TestResolve_SortsByDisplayOrderStable(t *testing.T) {
	lib := library.Memory{"t": {
		{SectionID: "two", DisplayOrder: 2, ContentBlocks: []model.ContentBlock{para("x", model.ApplicabilityRules{})}},
		{SectionID: "one", DisplayOrder: 1, ContentBlocks: []model.ContentBlock{para("x", model.ApplicabilityRules{})}},
		{SectionID: "two-b", DisplayOrder: 2, ContentBlocks: []model.ContentBlock{para("x", model.ApplicabilityRules{})}},
	}}

	got, err := New(lib, nil).Resolve(context.Background(), office(1000), "", "t")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"one", "two", "two-b"}, sectionIDs(got)); diff != "" {
		t.Errorf("section order (-want +got):\n%s", diff)
	}
}

func TestResolve_FiltersSectionsAndBlocks(t *testing.T) {
	lib := library.Memory{"t": {
		{
			SectionID: "residential", DisplayOrder: 1,
			OverallApplicability: model.ApplicabilityRules{BuildingClasses: []string{"Class_2"}},
			ContentBlocks:        []model.ContentBlock{para("x", model.ApplicabilityRules{})},
		},
		{
			SectionID: "monitor", DisplayOrder: 2,
			ContentBlocks: []model.ContentBlock{
				para("small", model.ApplicabilityRules{MaxFloorArea: f(500)}),
				para("large", model.ApplicabilityRules{MinFloorArea: f(2500)}),
				para("mid", model.ApplicabilityRules{MinFloorArea: f(500), MaxFloorArea: f(2500)}),
			},
		},
		{
			SectionID: "cold-only", DisplayOrder: 3,
			ContentBlocks: []model.ContentBlock{para("x", model.ApplicabilityRules{ClimateZones: []string{"8"}})},
		},
	}}

	got, err := New(lib, nil).Resolve(context.Background(), office(1000), "", "t")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"monitor"}, sectionIDs(got)); diff != "" {
		t.Fatalf("sections (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"mid"}, blockIDs(got[0])); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
}

func TestResolve_SectionParam(t *testing.T) {
	lib := library.Memory{"t": {
		{SectionID: "j7lighting", DisplayOrder: 1, ContentBlocks: []model.ContentBlock{para("x", model.ApplicabilityRules{})}},
		{SectionID: "j9monitor", DisplayOrder: 2, ContentBlocks: []model.ContentBlock{para("x", model.ApplicabilityRules{})}},
	}}

	got, err := New(lib, nil).Resolve(context.Background(), office(1000), "j9monitor", "t")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"j9monitor"}, sectionIDs(got)); diff != "" {
		t.Errorf("sections (-want +got):\n%s", diff)
	}
}

func TestResolve_EmptyResultIsNotAnError(t *testing.T) {
	lib := library.Memory{"t": {
		{SectionID: "s", OverallApplicability: model.ApplicabilityRules{ClimateZones: []string{"1"}},
			ContentBlocks: []model.ContentBlock{para("x", model.ApplicabilityRules{})}},
	}}
	got, err := New(lib, nil).Resolve(context.Background(), office(1000), "", "t")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestResolve_LibraryNotFoundFailsWholeCall(t *testing.T) {
	_, err := New(library.Memory{}, nil).Resolve(context.Background(), office(1000), "", "missing")
	if !errors.Is(err, library.ErrLibraryNotFound) {
		t.Fatalf("expected ErrLibraryNotFound, got %v", err)
	}
}

func TestGenerateDynamicSections_RendersPlaceholders(t *testing.T) {
	lib := library.Memory{"t": {{
		SectionID: "s", DisplayOrder: 1,
		ContentBlocks: []model.ContentBlock{{
			BlockID: "a", ContentType: model.ContentParagraph,
			Text:  "{{buildingClassification.classType}} in zone {{ climateZone.zone }} at {{project.location.name}}: {{project.floorArea}} m²{{project.missing}}",
			Items: nil,
		}},
	}}}

	pctx := office(1200)
	got, err := New(lib, nil).GenerateDynamicSections(context.Background(), pctx.Project, "", pctx.BuildingClassification, pctx.ClimateZone, "t")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := "Class_5 in zone 7 at Hobart: 1200 m²"
	if got[0].ContentBlocks[0].Text != want {
		t.Errorf("got %q, want %q", got[0].ContentBlocks[0].Text, want)
	}
	if lib["t"][0].ContentBlocks[0].Text == want {
		t.Error("library block must not be modified")
	}
}

func TestResolve_EmbeddedLibraryMonitoringThresholds(t *testing.T) {
	r := New(library.NewCache(library.NewFSLoader(library.Embedded())), nil)

	small, err := r.Resolve(context.Background(), office(300), "j9monitor", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(small) != 1 {
		t.Fatalf("expected j9monitor only, got %v", sectionIDs(small))
	}
	if diff := cmp.Diff([]string{"j9d4-ev-charging", "j9d3-exemption-small"}, blockIDs(small[0])); diff != "" {
		t.Errorf("small building blocks (-want +got):\n%s", diff)
	}

	large, err := r.Resolve(context.Background(), office(3000), "j9monitor", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(large) != 1 {
		t.Fatalf("expected j9monitor only, got %v", sectionIDs(large))
	}
	ids := blockIDs(large[0])
	for _, want := range []string{"j9d3-time-of-use", "j9d3-separate-services", "j9d3-metering-schedule"} {
		found := false
		for _, id := range ids {
			found = found || id == want
		}
		if !found {
			t.Errorf("large building missing block %s in %v", want, ids)
		}
	}
}
