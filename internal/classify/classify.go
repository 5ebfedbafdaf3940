// Package classify derives a project's NCC building classification and
// climate zone from its declared building type and location.
package classify

import (
	"embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/rcliao/section-j/internal/applicability"
	"github.com/rcliao/section-j/internal/model"
)

//go:embed data/*.json
var data embed.FS

// ClassRule maps building types to a class. Rules are tried in order and
// the first whose types and conditions match wins.
type ClassRule struct {
	ClassType     string            `json:"classType"`
	Description   string            `json:"description"`
	BuildingTypes []string          `json:"buildingTypes"`
	Conditions    []model.Condition `json:"conditions,omitempty"`
}

// LocationEntry maps a named place to a climate zone.
type LocationEntry struct {
	Name      string   `json:"name"`
	State     string   `json:"state"`
	Postcodes []string `json:"postcodes"`
	Zone      string   `json:"zone"`
}

// Tables holds the static classification data.
type Tables struct {
	Classes       []ClassRule       `json:"classes"`
	Zones         map[string]string `json:"zones"`
	Locations     []LocationEntry   `json:"locations"`
	StateDefaults map[string]string `json:"stateDefaults"`
}

// Classifier resolves classification and climate zone.
type Classifier struct {
	tables Tables
}

// New creates a Classifier over t.
func New(t Tables) *Classifier {
	return &Classifier{tables: t}
}

// Default loads the embedded tables.
func Default() (*Classifier, error) {
	var t Tables
	for _, name := range []string{"data/building_classes.json", "data/climate_zones.json"} {
		b, err := data.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if err := json.Unmarshal(b, &t); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
	}
	return New(t), nil
}

// Classes returns the class rules in evaluation order.
func (c *Classifier) Classes() []ClassRule {
	return c.tables.Classes
}

// Resolve builds the project context. Values already on the project win;
// otherwise they are derived. Dimensions that cannot be derived stay nil.
func (c *Classifier) Resolve(p model.Project) model.ProjectContext {
	pctx := model.ProjectContext{Project: p}
	pctx.BuildingClassification = p.BuildingClassification
	if pctx.BuildingClassification == nil || pctx.BuildingClassification.ClassType == "" {
		pctx.BuildingClassification = c.Classify(p)
	}
	pctx.ClimateZone = p.ClimateZone
	if pctx.ClimateZone == nil || pctx.ClimateZone.Zone == "" {
		pctx.ClimateZone = c.ClimateZone(p.Location)
	}
	return pctx
}

// Classify walks the class rules for the project's building type.
func (c *Classifier) Classify(p model.Project) *model.BuildingClassification {
	bt := normalize(p.BuildingType)
	if bt == "" {
		return nil
	}
	doc := applicability.NewDocument(model.ProjectContext{Project: p})
	for _, rule := range c.tables.Classes {
		if !slices.Contains(rule.BuildingTypes, bt) {
			continue
		}
		if len(rule.Conditions) > 0 && !doc.Match(rule.Conditions) {
			continue
		}
		return &model.BuildingClassification{ClassType: rule.ClassType, Description: rule.Description}
	}
	return nil
}

// ClimateZone looks a location up by postcode, then name, then state.
func (c *Classifier) ClimateZone(loc *model.Location) *model.ClimateZone {
	if loc == nil {
		return nil
	}
	zone := ""
	if pc := strings.TrimSpace(loc.Postcode); pc != "" {
		for _, e := range c.tables.Locations {
			if slices.Contains(e.Postcodes, pc) {
				zone = e.Zone
				break
			}
		}
	}
	if zone == "" && loc.Name != "" {
		for _, e := range c.tables.Locations {
			if strings.EqualFold(e.Name, strings.TrimSpace(loc.Name)) {
				zone = e.Zone
				break
			}
		}
	}
	if zone == "" && loc.State != "" {
		zone = c.tables.StateDefaults[strings.ToUpper(strings.TrimSpace(loc.State))]
	}
	if zone == "" {
		return nil
	}
	return &model.ClimateZone{Zone: zone, Description: c.tables.Zones[zone]}
}

// normalize lower-cases and hyphenates a building type: "Aged Care" -> "aged-care".
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), "-")
}
