// Package diagram parses bracketed diagram commands and applies them to a
// single-line diagram graph.
package diagram

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NodeType describes one entry of the node vocabulary.
type NodeType struct {
	Name   string // command name, e.g. "smart-meter"
	Tag    string // editor node type, e.g. "smartMeter"
	Width  float64
	Height float64
}

var nodeTypes = map[string]NodeType{
	"smart-meter": {Name: "smart-meter", Tag: "smartMeter", Width: 120, Height: 80},
	"meter":       {Name: "meter", Tag: "meter", Width: 100, Height: 80},
	"auth-meter":  {Name: "auth-meter", Tag: "authMeter", Width: 120, Height: 80},
	"ethernet":    {Name: "ethernet", Tag: "ethernet", Width: 100, Height: 60},
	"rs485":       {Name: "rs485", Tag: "rs485", Width: 100, Height: 60},
	"wireless":    {Name: "wireless", Tag: "wireless", Width: 100, Height: 60},
	"on-premise":  {Name: "on-premise", Tag: "onPremise", Width: 140, Height: 80},
	"cloud":       {Name: "cloud", Tag: "cloud", Width: 140, Height: 80},
	"label":       {Name: "label", Tag: "textLabel", Width: 160, Height: 40},
	"transformer": {Name: "transformer", Tag: "transformer", Width: 100, Height: 100},
	"load":        {Name: "load", Tag: "load", Width: 100, Height: 60},
}

// LookupNodeType resolves a command node type name, case-insensitively.
func LookupNodeType(name string) (NodeType, bool) {
	nt, ok := nodeTypes[strings.ToLower(strings.TrimSpace(name))]
	return nt, ok
}

// NodeTypeByTag resolves an editor node type back to its vocabulary entry.
func NodeTypeByTag(tag string) (NodeType, bool) {
	for _, nt := range nodeTypes {
		if nt.Tag == tag {
			return nt, true
		}
	}
	return NodeType{}, false
}

// NodeTypeNames lists the vocabulary in sorted order.
func NodeTypeNames() []string {
	names := make([]string, 0, len(nodeTypes))
	for n := range nodeTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultLabel derives a display label from a node type name:
// "smart-meter" becomes "Smart Meter".
func DefaultLabel(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "-", " "))
}

// Connection sides.
const (
	SideTop    = "top"
	SideRight  = "right"
	SideBottom = "bottom"
	SideLeft   = "left"
)

var sides = map[string]string{
	"top": SideTop, "t": SideTop,
	"right": SideRight, "r": SideRight,
	"bottom": SideBottom, "b": SideBottom,
	"left": SideLeft, "l": SideLeft,
}

// LookupSide resolves a side or its one-letter alias.
func LookupSide(s string) (string, bool) {
	side, ok := sides[strings.ToLower(strings.TrimSpace(s))]
	return side, ok
}
