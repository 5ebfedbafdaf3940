// Package applicability decides whether a set of rules applies to a project.
package applicability

import (
	"encoding/json"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/rcliao/section-j/internal/model"
)

// Check reports whether rules apply to the project context. All rule
// categories are AND-combined; an absent or empty category never excludes.
func Check(rules model.ApplicabilityRules, pctx model.ProjectContext) bool {
	return NewEvaluator(pctx).Check(rules)
}

// Evaluator checks many rule sets against one project context, building the
// JSON document used by custom conditions at most once.
type Evaluator struct {
	pctx model.ProjectContext
	doc  *Document
}

// NewEvaluator creates an Evaluator for pctx.
func NewEvaluator(pctx model.ProjectContext) *Evaluator {
	return &Evaluator{pctx: pctx}
}

// Document returns the JSON view of the context used for dotted-path lookups.
func (e *Evaluator) Document() *Document {
	if e.doc == nil {
		e.doc = NewDocument(e.pctx)
	}
	return e.doc
}

// Check applies rules to the evaluator's context.
func (e *Evaluator) Check(rules model.ApplicabilityRules) bool {
	if len(rules.BuildingClasses) > 0 && !slices.Contains(rules.BuildingClasses, e.pctx.ClassType()) {
		return false
	}
	if len(rules.ClimateZones) > 0 && !slices.Contains(rules.ClimateZones, e.pctx.Zone()) {
		return false
	}
	if !floorAreaInRange(rules, e.pctx.Project.FloorArea) {
		return false
	}
	if len(rules.CustomConditions) > 0 && !e.Document().Match(rules.CustomConditions) {
		return false
	}
	return true
}

// floorAreaInRange checks inclusive bounds. A project without a floor area
// is never excluded by area.
func floorAreaInRange(rules model.ApplicabilityRules, area *float64) bool {
	if area == nil {
		return true
	}
	if rules.MinFloorArea == nil && rules.MaxFloorArea == nil {
		return true
	}
	if rules.MinFloorArea != nil && *area < *rules.MinFloorArea {
		return false
	}
	if rules.MaxFloorArea != nil && *area > *rules.MaxFloorArea {
		return false
	}
	return true
}

// Document is the JSON form of a project context.
type Document struct {
	raw []byte
}

// NewDocument marshals pctx for path lookups.
func NewDocument(pctx model.ProjectContext) *Document {
	raw, err := json.Marshal(pctx)
	if err != nil {
		raw = []byte("{}")
	}
	return &Document{raw: raw}
}

// Get resolves a dotted path such as "project.floorArea".
func (d *Document) Get(path string) gjson.Result {
	return gjson.GetBytes(d.raw, path)
}

// Match reports whether every condition holds.
func (d *Document) Match(conds []model.Condition) bool {
	for _, c := range conds {
		if !Evaluate(c, d.Get(c.Property)) {
			return false
		}
	}
	return true
}
