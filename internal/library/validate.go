package library

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/rcliao/section-j/internal/model"
)

const sectionSchema = `{
  "type": "object",
  "required": ["title", "displayOrder", "contentBlocks"],
  "properties": {
    "sectionId": {"type": "string"},
    "title": {"type": "string", "minLength": 1},
    "displayOrder": {"type": "number"},
    "overallApplicability": {"$ref": "#/$defs/rules"},
    "contentBlocks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["blockId", "contentType"],
        "properties": {
          "blockId": {"type": "string", "minLength": 1},
          "contentType": {"enum": ["heading", "paragraph", "list", "table", "note"]},
          "blockApplicability": {"$ref": "#/$defs/rules"},
          "heading": {"type": "string"},
          "text": {"type": "string"},
          "items": {"type": "array", "items": {"type": "string"}},
          "table": {
            "type": "object",
            "required": ["headers"],
            "properties": {
              "headers": {"type": "array", "items": {"type": "string"}},
              "rows": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}}
            }
          },
          "reference": {"type": "string"}
        }
      }
    }
  },
  "$defs": {
    "rules": {
      "type": "object",
      "properties": {
        "buildingClasses": {"type": "array", "items": {"type": "string"}},
        "climateZones": {"type": "array", "items": {"type": "string"}},
        "minFloorArea": {"type": ["number", "null"]},
        "maxFloorArea": {"type": ["number", "null"]},
        "customConditions": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["property", "operator"],
            "properties": {
              "property": {"type": "string", "minLength": 1},
              "operator": {"enum": ["equals", "notEquals", "greaterThan", "greaterThanOrEqual", "lessThan", "lessThanOrEqual", "in", "notIn", "contains", "exists", "notExists"]}
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	resolvedSchema *jsonschema.Resolved
	schemaErr      error
)

func compiledSchema() (*jsonschema.Resolved, error) {
	schemaOnce.Do(func() {
		var s jsonschema.Schema
		if err := json.Unmarshal([]byte(sectionSchema), &s); err != nil {
			schemaErr = fmt.Errorf("parse section schema: %w", err)
			return
		}
		resolvedSchema, schemaErr = s.Resolve(nil)
	})
	return resolvedSchema, schemaErr
}

// Decode validates a section file against the schema and decodes it. The
// section id defaults to id when the file does not carry one.
func Decode(id string, data []byte) (model.SectionDefinition, error) {
	var def model.SectionDefinition

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return def, fmt.Errorf("%w: %v", ErrMalformedRules, err)
	}
	rs, err := compiledSchema()
	if err != nil {
		return def, err
	}
	if err := rs.Validate(raw); err != nil {
		return def, fmt.Errorf("%w: %v", ErrMalformedRules, err)
	}
	if err := json.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("%w: %v", ErrMalformedRules, err)
	}
	if def.SectionID == "" {
		def.SectionID = id
	}
	if err := Validate(def); err != nil {
		return def, err
	}
	return def, nil
}

// Validate checks the constraints the schema cannot express.
func Validate(def model.SectionDefinition) error {
	if def.SectionID == "" {
		return fmt.Errorf("%w: section id is required", ErrMalformedRules)
	}
	if err := validateRules(def.OverallApplicability); err != nil {
		return fmt.Errorf("%w: overallApplicability: %v", ErrMalformedRules, err)
	}

	seen := make(map[string]bool, len(def.ContentBlocks))
	for _, b := range def.ContentBlocks {
		if b.BlockID == "" {
			return fmt.Errorf("%w: block id is required", ErrMalformedRules)
		}
		if seen[b.BlockID] {
			return fmt.Errorf("%w: duplicate block id %q", ErrMalformedRules, b.BlockID)
		}
		seen[b.BlockID] = true

		if err := validatePayload(b); err != nil {
			return fmt.Errorf("%w: block %q: %v", ErrMalformedRules, b.BlockID, err)
		}
		if err := validateRules(b.BlockApplicability); err != nil {
			return fmt.Errorf("%w: block %q: %v", ErrMalformedRules, b.BlockID, err)
		}
	}
	return nil
}

func validateRules(r model.ApplicabilityRules) error {
	if r.MinFloorArea != nil && r.MaxFloorArea != nil && *r.MinFloorArea > *r.MaxFloorArea {
		return fmt.Errorf("minFloorArea %v exceeds maxFloorArea %v", *r.MinFloorArea, *r.MaxFloorArea)
	}
	for _, c := range r.CustomConditions {
		if c.Property == "" {
			return fmt.Errorf("condition property is required")
		}
		if !model.ValidOperators[c.Operator] {
			return fmt.Errorf("unknown operator %q", c.Operator)
		}
	}
	return nil
}

func validatePayload(b model.ContentBlock) error {
	switch b.ContentType {
	case model.ContentHeading:
		if b.Heading == "" && b.Text == "" {
			return fmt.Errorf("heading block needs heading or text")
		}
	case model.ContentParagraph, model.ContentNote:
		if b.Text == "" {
			return fmt.Errorf("%s block needs text", b.ContentType)
		}
	case model.ContentList:
		if len(b.Items) == 0 {
			return fmt.Errorf("list block needs items")
		}
	case model.ContentTable:
		if b.Table == nil || len(b.Table.Headers) == 0 {
			return fmt.Errorf("table block needs headers")
		}
		for i, row := range b.Table.Rows {
			if len(row) != len(b.Table.Headers) {
				return fmt.Errorf("table row %d has %d cells, want %d", i, len(row), len(b.Table.Headers))
			}
		}
	default:
		return fmt.Errorf("unknown content type %q", b.ContentType)
	}
	return nil
}
