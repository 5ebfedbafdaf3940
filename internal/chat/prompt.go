package chat

import (
	"fmt"
	"strings"

	"github.com/rcliao/section-j/internal/diagram"
	"github.com/rcliao/section-j/internal/model"
)

// SystemPrompt describes the command grammar and vocabulary to the model.
func SystemPrompt(grid diagram.Grid) string {
	var b strings.Builder
	b.WriteString("You edit single-line metering diagrams for NCC Section J compliance (J9 energy monitoring).\n")
	b.WriteString("Reply with a short sentence, then the commands that make the change, each in braces:\n\n")
	b.WriteString("  {add,<type>,<x>,<y>[,<label>]}\n")
	b.WriteString("  {connect,<x1>,<y1>,<side1>,<x2>,<y2>,<side2>}\n")
	b.WriteString("  {delete,<x>,<y>}\n")
	b.WriteString("  {delete-all}\n\n")
	fmt.Fprintf(&b, "Node types: %s.\n", strings.Join(diagram.NodeTypeNames(), ", "))
	fmt.Fprintf(&b, "Sides: %s.\n", strings.Join([]string{diagram.SideTop, diagram.SideRight, diagram.SideBottom, diagram.SideLeft}, ", "))
	fmt.Fprintf(&b, "Coordinates are whole grid cells from %d to %d; x grows right, y grows down.\n", diagram.MinCoord, diagram.MaxCoord)
	b.WriteString("connect endpoints must name cells that already hold a node.\n")
	b.WriteString("Use {delete-all} only when asked to start over. Do not put braces anywhere except around commands.")
	return b.String()
}

// UserPrompt gives the model the project, current diagram and recent turns.
func UserPrompt(p model.Project, current string, history []model.ChatTurn, message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s", p.Name)
	if p.BuildingType != "" {
		fmt.Fprintf(&b, " (%s)", p.BuildingType)
	}
	b.WriteString("\n\nCurrent diagram:\n")
	b.WriteString(current)
	b.WriteString("\n")
	if len(history) > 0 {
		b.WriteString("\nEarlier requests:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "- %s\n", t.Message)
		}
	}
	b.WriteString("\nRequest: ")
	b.WriteString(strings.TrimSpace(message))
	return b.String()
}
