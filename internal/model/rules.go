package model

// ApplicabilityRules gate a section or content block. A nil or empty
// category leaves that dimension unconstrained.
type ApplicabilityRules struct {
	BuildingClasses  []string    `json:"buildingClasses,omitempty"`
	ClimateZones     []string    `json:"climateZones,omitempty"`
	MinFloorArea     *float64    `json:"minFloorArea,omitempty"` // nil = no minimum
	MaxFloorArea     *float64    `json:"maxFloorArea,omitempty"` // nil = no maximum
	CustomConditions []Condition `json:"customConditions,omitempty"`
}

// Condition compares the value at a dotted path of the project context
// against Value.
type Condition struct {
	Property string `json:"property"`
	Operator string `json:"operator"`
	Value    any    `json:"value,omitempty"`
}

// Condition operators.
const (
	OpEquals             = "equals"
	OpNotEquals          = "notEquals"
	OpGreaterThan        = "greaterThan"
	OpGreaterThanOrEqual = "greaterThanOrEqual"
	OpLessThan           = "lessThan"
	OpLessThanOrEqual    = "lessThanOrEqual"
	OpIn                 = "in"
	OpNotIn              = "notIn"
	OpContains           = "contains"
	OpExists             = "exists"
	OpNotExists          = "notExists"
)

// ValidOperators are the allowed condition operators.
var ValidOperators = map[string]bool{
	OpEquals:             true,
	OpNotEquals:          true,
	OpGreaterThan:        true,
	OpGreaterThanOrEqual: true,
	OpLessThan:           true,
	OpLessThanOrEqual:    true,
	OpIn:                 true,
	OpNotIn:              true,
	OpContains:           true,
	OpExists:             true,
	OpNotExists:          true,
}

// SectionDefinition is one regulatory section of a library, e.g. "j7lighting".
type SectionDefinition struct {
	SectionID            string             `json:"sectionId"`
	Title                string             `json:"title"`
	DisplayOrder         float64            `json:"displayOrder"`
	OverallApplicability ApplicabilityRules `json:"overallApplicability"`
	ContentBlocks        []ContentBlock     `json:"contentBlocks"`
}

// Content block types.
const (
	ContentHeading   = "heading"
	ContentParagraph = "paragraph"
	ContentList      = "list"
	ContentTable     = "table"
	ContentNote      = "note"
)

// ValidContentTypes are the allowed block content types.
var ValidContentTypes = map[string]bool{
	ContentHeading:   true,
	ContentParagraph: true,
	ContentList:      true,
	ContentTable:     true,
	ContentNote:      true,
}

// ContentBlock is the smallest unit of report content. Which payload fields
// are set depends on ContentType.
type ContentBlock struct {
	BlockID            string             `json:"blockId"`
	ContentType        string             `json:"contentType"`
	BlockApplicability ApplicabilityRules `json:"blockApplicability"`
	Heading            string             `json:"heading,omitempty"`
	Text               string             `json:"text,omitempty"`
	Items              []string           `json:"items,omitempty"`
	Table              *Table             `json:"table,omitempty"`
	Reference          string             `json:"reference,omitempty"`
}

// Table is the payload of a table block.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows,omitempty"`
}

// Section is a resolved section with only its applicable blocks.
type Section struct {
	SectionID     string           `json:"sectionId"`
	Title         string           `json:"title"`
	DisplayOrder  float64          `json:"displayOrder"`
	ContentBlocks []ProcessedBlock `json:"contentBlocks"`
}

// ProcessedBlock is a content block with placeholders rendered.
type ProcessedBlock struct {
	BlockID     string   `json:"blockId"`
	ContentType string   `json:"contentType"`
	Heading     string   `json:"heading,omitempty"`
	Text        string   `json:"text,omitempty"`
	Items       []string `json:"items,omitempty"`
	Table       *Table   `json:"table,omitempty"`
	Reference   string   `json:"reference,omitempty"`
}
