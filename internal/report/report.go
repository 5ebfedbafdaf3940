// Package report assembles a project's applicable compliance sections into
// a report.
package report

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/section-j/internal/classify"
	"github.com/rcliao/section-j/internal/library"
	"github.com/rcliao/section-j/internal/model"
	"github.com/rcliao/section-j/internal/resolver"
)

// NoRequirements is the summary of a report with no applicable sections.
const NoRequirements = "No applicable requirements"

// ProjectGetter loads projects.
type ProjectGetter interface {
	GetProject(ctx context.Context, id string) (*model.Project, error)
}

// Report is the generated compliance report for one project.
type Report struct {
	ProjectID              string                        `json:"projectId"`
	ProjectName            string                        `json:"projectName"`
	BuildingClassification *model.BuildingClassification `json:"buildingClassification,omitempty"`
	ClimateZone            *model.ClimateZone            `json:"climateZone,omitempty"`
	FloorArea              *float64                      `json:"floorArea,omitempty"`
	SectionType            string                        `json:"sectionType"`
	Sections               []model.Section               `json:"sections"`
	Summary                string                        `json:"summary"`
	GeneratedAt            time.Time                     `json:"generatedAt"`
}

// Service generates reports.
type Service struct {
	projects   ProjectGetter
	classifier *classify.Classifier
	resolver   *resolver.Resolver
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a report service.
func New(projects ProjectGetter, classifier *classify.Classifier, res *resolver.Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		projects:   projects,
		classifier: classifier,
		resolver:   res,
		logger:     logger,
		now:        time.Now,
	}
}

// Context loads a project and resolves its classification and climate zone.
func (s *Service) Context(ctx context.Context, projectID string) (model.ProjectContext, error) {
	p, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return model.ProjectContext{}, err
	}
	return s.classifier.Resolve(*p), nil
}

// Generate builds the report for a project. sectionParam and sectionType
// are passed to the resolver unchanged.
func (s *Service) Generate(ctx context.Context, projectID, sectionParam, sectionType string) (*Report, error) {
	pctx, err := s.Context(ctx, projectID)
	if err != nil {
		return nil, err
	}
	p := pctx.Project

	sections, err := s.resolver.GenerateDynamicSections(ctx, p, sectionParam,
		pctx.BuildingClassification, pctx.ClimateZone, sectionType)
	if err != nil {
		return nil, err
	}
	if sectionType == "" {
		sectionType = library.DefaultSectionType
	}

	r := &Report{
		ProjectID:              p.ID,
		ProjectName:            p.Name,
		BuildingClassification: pctx.BuildingClassification,
		ClimateZone:            pctx.ClimateZone,
		FloorArea:              p.FloorArea,
		SectionType:            sectionType,
		Sections:               sections,
		Summary:                summarize(sections),
		GeneratedAt:            s.now().UTC(),
	}
	s.logger.Info("report generated",
		zap.String("project", p.ID),
		zap.String("class", pctx.ClassType()),
		zap.String("zone", pctx.Zone()),
		zap.Int("sections", len(sections)))
	return r, nil
}

func summarize(sections []model.Section) string {
	if len(sections) == 0 {
		return NoRequirements
	}
	blocks := 0
	for _, sec := range sections {
		blocks += len(sec.ContentBlocks)
	}
	return fmt.Sprintf("%d applicable sections, %d requirements", len(sections), blocks)
}
