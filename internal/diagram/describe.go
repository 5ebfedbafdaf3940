package diagram

import (
	"fmt"
	"strings"

	"github.com/rcliao/section-j/internal/model"
)

// Describe renders g in command vocabulary and grid coordinates, one line
// per node and edge, for use in LLM prompts.
func Describe(g model.Graph, grid Grid) string {
	if len(g.Nodes) == 0 {
		return "(empty diagram)"
	}

	var sb strings.Builder
	where := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		x, y := grid.ToGrid(n.Position)
		where[n.ID] = fmt.Sprintf("%d,%d", x, y)
		name := n.Type
		if nt, ok := NodeTypeByTag(n.Type); ok {
			name = nt.Name
		}
		fmt.Fprintf(&sb, "node %s at %d,%d label %q\n", name, x, y, n.Data.Label)
	}
	for _, e := range g.Edges {
		from, ok1 := where[e.Source]
		to, ok2 := where[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		fmt.Fprintf(&sb, "edge %s %s -> %s %s\n", from, e.SourceHandle, to, e.TargetHandle)
	}
	return strings.TrimRight(sb.String(), "\n")
}
