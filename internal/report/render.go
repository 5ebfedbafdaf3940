package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rcliao/section-j/internal/model"
)

var printer = message.NewPrinter(language.English)

// Render writes r as plain text.
func Render(w io.Writer, r *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n", r.ProjectName, strings.Repeat("=", len(r.ProjectName)))
	if c := r.BuildingClassification; c != nil {
		fmt.Fprintf(&b, "Classification: %s", c.ClassType)
		if c.Description != "" {
			fmt.Fprintf(&b, " (%s)", c.Description)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Classification: unknown\n")
	}
	if z := r.ClimateZone; z != nil {
		fmt.Fprintf(&b, "Climate zone:   %s", z.Zone)
		if z.Description != "" {
			fmt.Fprintf(&b, " (%s)", z.Description)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Climate zone:   unknown\n")
	}
	if r.FloorArea != nil {
		b.WriteString(printer.Sprintf("Floor area:     %.0f m²\n", *r.FloorArea))
	}
	fmt.Fprintf(&b, "\n%s\n", r.Summary)

	for _, sec := range r.Sections {
		fmt.Fprintf(&b, "\n%s\n%s\n", sec.Title, strings.Repeat("-", len([]rune(sec.Title))))
		for _, blk := range sec.ContentBlocks {
			renderBlock(&b, blk)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderBlock(b *strings.Builder, blk model.ProcessedBlock) {
	switch blk.ContentType {
	case model.ContentHeading:
		fmt.Fprintf(b, "\n## %s\n", firstNonEmpty(blk.Heading, blk.Text))
		return
	case model.ContentNote:
		fmt.Fprintf(b, "Note: %s\n", blk.Text)
	default:
		if blk.Heading != "" {
			fmt.Fprintf(b, "%s\n", blk.Heading)
		}
		if blk.Text != "" {
			fmt.Fprintf(b, "%s\n", blk.Text)
		}
	}
	for _, item := range blk.Items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
	if blk.Table != nil {
		renderTable(b, blk.Table)
	}
	if blk.Reference != "" {
		fmt.Fprintf(b, "  [%s]\n", blk.Reference)
	}
}

func renderTable(b *strings.Builder, t *model.Table) {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len([]rune(h))
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len([]rune(cell)) > widths[i] {
				widths[i] = len([]rune(cell))
			}
		}
	}
	line := func(cells []string) {
		b.WriteString(" ")
		for i, w := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			fmt.Fprintf(b, " %-*s", w, cell)
		}
		b.WriteString("\n")
	}
	line(t.Headers)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	line(sep)
	for _, row := range t.Rows {
		line(row)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
