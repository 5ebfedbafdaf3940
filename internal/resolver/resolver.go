// Package resolver selects the sections and content blocks of a library
// that apply to a project.
package resolver

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rcliao/section-j/internal/applicability"
	"github.com/rcliao/section-j/internal/library"
	"github.com/rcliao/section-j/internal/model"
)

// Resolver filters a section library against project contexts.
type Resolver struct {
	lib    library.Source
	logger *zap.Logger
}

// New creates a Resolver. lib is usually a *library.Cache.
func New(lib library.Source, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lib: lib, logger: logger}
}

// GenerateDynamicSections builds the context for project from the resolved
// classification and climate zone and returns the applicable sections.
func (r *Resolver) GenerateDynamicSections(ctx context.Context, project model.Project, sectionParam string,
	classification *model.BuildingClassification, climateZone *model.ClimateZone, sectionType string) ([]model.Section, error) {
	return r.Resolve(ctx, model.ProjectContext{
		Project:                project,
		BuildingClassification: classification,
		ClimateZone:            climateZone,
	}, sectionParam, sectionType)
}

// Resolve returns the applicable sections of sectionType ordered by display
// order. A non-empty sectionParam restricts the result to that section id.
// Within a section, regular blocks precede blocks whose id mentions an
// exemption. Sections left without blocks are dropped.
func (r *Resolver) Resolve(ctx context.Context, pctx model.ProjectContext, sectionParam, sectionType string) ([]model.Section, error) {
	if sectionType == "" {
		sectionType = library.DefaultSectionType
	}
	defs, err := r.lib.Load(ctx, sectionType)
	if err != nil {
		return nil, fmt.Errorf("load section library %q: %w", sectionType, err)
	}

	eval := applicability.NewEvaluator(pctx)
	sections := []model.Section{}
	for _, def := range defs {
		if sectionParam != "" && !strings.EqualFold(def.SectionID, sectionParam) {
			continue
		}
		if !eval.Check(def.OverallApplicability) {
			r.logger.Debug("section not applicable", zap.String("section", def.SectionID))
			continue
		}

		var regular, exemptions []model.ContentBlock
		for _, b := range def.ContentBlocks {
			if IsExemption(b.BlockID) {
				exemptions = append(exemptions, b)
			} else {
				regular = append(regular, b)
			}
		}

		var blocks []model.ProcessedBlock
		for _, group := range [][]model.ContentBlock{regular, exemptions} {
			for _, b := range group {
				if eval.Check(b.BlockApplicability) {
					blocks = append(blocks, Process(b, eval.Document()))
				}
			}
		}
		if len(blocks) == 0 {
			r.logger.Debug("section has no applicable blocks", zap.String("section", def.SectionID))
			continue
		}

		sections = append(sections, model.Section{
			SectionID:     def.SectionID,
			Title:         def.Title,
			DisplayOrder:  def.DisplayOrder,
			ContentBlocks: blocks,
		})
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].DisplayOrder < sections[j].DisplayOrder
	})
	return sections, nil
}

// IsExemption reports whether a block id marks an exemption block.
func IsExemption(blockID string) bool {
	return strings.Contains(strings.ToLower(blockID), "exemption")
}

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.#\-]+)\s*\}\}`)

// Process renders {{dotted.path}} placeholders in every text field of b.
// The source block is not modified.
func Process(b model.ContentBlock, doc *applicability.Document) model.ProcessedBlock {
	render := func(s string) string {
		if !strings.Contains(s, "{{") {
			return s
		}
		return placeholder.ReplaceAllStringFunc(s, func(m string) string {
			path := placeholder.FindStringSubmatch(m)[1]
			return doc.Get(path).String()
		})
	}

	out := model.ProcessedBlock{
		BlockID:     b.BlockID,
		ContentType: b.ContentType,
		Heading:     render(b.Heading),
		Text:        render(b.Text),
		Reference:   b.Reference,
	}
	if len(b.Items) > 0 {
		out.Items = make([]string, len(b.Items))
		for i, item := range b.Items {
			out.Items[i] = render(item)
		}
	}
	if b.Table != nil {
		t := &model.Table{Headers: append([]string(nil), b.Table.Headers...)}
		for _, row := range b.Table.Rows {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = render(c)
			}
			t.Rows = append(t.Rows, cells)
		}
		out.Table = t
	}
	return out
}
