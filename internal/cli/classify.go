package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/section-j/internal/classify"
	"github.com/rcliao/section-j/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "classify [project-id]",
		Short: "Resolve building classification and climate zone",
		Long: `Resolve the NCC building classification and climate zone of a stored project,
or of an ad-hoc building described with --type and --location.`,
		Args: cobra.MaximumNArgs(1),
		Run:  runClassify,
	}

	cmd.Flags().StringP("type", "t", "", "Building type for an ad-hoc lookup")
	cmd.Flags().StringP("location", "l", "", "Town or city for an ad-hoc lookup")
	cmd.Flags().String("state", "", "State for an ad-hoc lookup")
	cmd.Flags().Float64("habitable-area", 0, "Total area of habitable rooms in m²")
	cmd.Flags().Bool("classes", false, "List the classification rules instead")

	RootCmd.AddCommand(cmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	listClasses, _ := cmd.Flags().GetBool("classes")

	c, err := classify.Default()
	if err != nil {
		exitErr("load classification tables", err)
	}
	if listClasses {
		printJSON(c.Classes())
		return
	}

	var p model.Project
	if len(args) == 1 {
		s, err := openStore()
		if err != nil {
			exitErr("open store", err)
		}
		defer s.Close()
		found, err := s.GetProject(cmd.Context(), args[0])
		if err != nil {
			exitErr("get project", err)
		}
		p = *found
	} else {
		p.BuildingType, _ = cmd.Flags().GetString("type")
		name, _ := cmd.Flags().GetString("location")
		state, _ := cmd.Flags().GetString("state")
		if name != "" || state != "" {
			p.Location = &model.Location{Name: name, State: state}
		}
		if cmd.Flags().Changed("habitable-area") {
			v, _ := cmd.Flags().GetFloat64("habitable-area")
			p.TotalAreaOfHabitableRooms = &v
		}
		if p.BuildingType == "" && p.Location == nil {
			exitErr("classify", fmt.Errorf("a project id or --type/--location is required"))
		}
	}

	pctx := c.Resolve(p)
	if formatFlag == "text" {
		fmt.Printf("class: %s\nzone:  %s\n", orUnknown(pctx.ClassType()), orUnknown(pctx.Zone()))
		return
	}
	printJSON(pctx)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
