// Package model defines the core project, rule and diagram data types.
package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Project is a building described by the user.
type Project struct {
	ID                        string                  `json:"id"`
	Name                      string                  `json:"name"`
	BuildingType              string                  `json:"buildingType"`
	BuildingClassification    *BuildingClassification `json:"buildingClassification,omitempty"`
	Location                  *Location               `json:"location,omitempty"`
	ClimateZone               *ClimateZone            `json:"climateZone,omitempty"`
	FloorArea                 *float64                `json:"floorArea,omitempty"`
	TotalAreaOfHabitableRooms *float64                `json:"totalAreaOfHabitableRooms,omitempty"`
	CreatedAt                 time.Time               `json:"createdAt"`
	UpdatedAt                 time.Time               `json:"updatedAt"`
}

// BuildingClassification is the NCC class of a building, e.g. "Class_5".
type BuildingClassification struct {
	ClassType   string `json:"classType"`
	Description string `json:"description,omitempty"`
}

// Location is where the building is. It decodes from either a plain
// string (taken as the name) or an object.
type Location struct {
	Name     string `json:"name"`
	State    string `json:"state,omitempty"`
	Postcode string `json:"postcode,omitempty"`
}

func (l *Location) UnmarshalJSON(b []byte) error {
	if s, ok := asString(b); ok {
		*l = Location{Name: s}
		return nil
	}
	type plain Location
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*l = Location(p)
	return nil
}

// ClimateZone is an NCC climate zone. It decodes from either a plain string
// (taken as the zone code) or an object.
type ClimateZone struct {
	Zone        string `json:"zone"`
	Description string `json:"description,omitempty"`
}

func (z *ClimateZone) UnmarshalJSON(b []byte) error {
	if s, ok := asString(b); ok {
		*z = ClimateZone{Zone: s}
		return nil
	}
	if n, ok := asNumber(b); ok {
		*z = ClimateZone{Zone: n}
		return nil
	}
	type plain ClimateZone
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*z = ClimateZone(p)
	return nil
}

// ProjectContext is built fresh for each resolution call and never persisted.
type ProjectContext struct {
	Project                Project                 `json:"project"`
	BuildingClassification *BuildingClassification `json:"buildingClassification"`
	ClimateZone            *ClimateZone            `json:"climateZone"`
}

// ClassType returns the resolved class code or "".
func (c ProjectContext) ClassType() string {
	if c.BuildingClassification == nil {
		return ""
	}
	return c.BuildingClassification.ClassType
}

// Zone returns the resolved climate zone code or "".
func (c ProjectContext) Zone() string {
	if c.ClimateZone == nil {
		return ""
	}
	return c.ClimateZone.Zone
}

func asString(b []byte) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", false
	}
	return s, true
}

func asNumber(b []byte) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || (b[0] != '-' && (b[0] < '0' || b[0] > '9')) {
		return "", false
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", false
	}
	return n.String(), true
}
