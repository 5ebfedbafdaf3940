package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/section-j/internal/model"
	"github.com/rcliao/section-j/internal/store"
)

func init() {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Project management",
	}

	putCmd := &cobra.Command{
		Use:   "put",
		Short: "Create or update a project",
		Long:  "Create a project, or replace an existing one when --id is given.",
		Run:   runProjectPut,
	}
	putCmd.Flags().String("id", "", "Existing project id to update")
	putCmd.Flags().StringP("name", "n", "", "Project name (required)")
	putCmd.Flags().StringP("type", "t", "", "Building type, e.g. office, apartment, aged-care")
	putCmd.Flags().StringP("location", "l", "", "Town or city")
	putCmd.Flags().String("state", "", "State or territory, e.g. VIC")
	putCmd.Flags().String("postcode", "", "Postcode")
	putCmd.Flags().String("class", "", "NCC class override, e.g. Class_5")
	putCmd.Flags().String("zone", "", "Climate zone override, 1-8")
	putCmd.Flags().Float64("floor-area", 0, "Floor area in m²")
	putCmd.Flags().Float64("habitable-area", 0, "Total area of habitable rooms in m²")
	putCmd.MarkFlagRequired("name")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		Run:   runProjectGet,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Run:   runProjectList,
	}
	listCmd.Flags().StringP("query", "q", "", "Name or building type substring")
	listCmd.Flags().StringP("type", "t", "", "Exact building type")
	listCmd.Flags().IntP("limit", "l", 20, "Max results")

	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a project with its diagrams and chat history",
		Args:  cobra.ExactArgs(1),
		Run:   runProjectRm,
	}

	projectCmd.AddCommand(putCmd, getCmd, listCmd, rmCmd)
	RootCmd.AddCommand(projectCmd)
}

func runProjectPut(cmd *cobra.Command, args []string) {
	flags := cmd.Flags()
	id, _ := flags.GetString("id")
	name, _ := flags.GetString("name")
	buildingType, _ := flags.GetString("type")
	locName, _ := flags.GetString("location")
	state, _ := flags.GetString("state")
	postcode, _ := flags.GetString("postcode")
	class, _ := flags.GetString("class")
	zone, _ := flags.GetString("zone")

	p := store.PutProjectParams{ID: id, Name: name, BuildingType: buildingType}
	if locName != "" || state != "" || postcode != "" {
		p.Location = &model.Location{Name: locName, State: state, Postcode: postcode}
	}
	if class != "" {
		p.BuildingClassification = &model.BuildingClassification{ClassType: class}
	}
	if zone != "" {
		p.ClimateZone = &model.ClimateZone{Zone: zone}
	}
	if flags.Changed("floor-area") {
		v, _ := flags.GetFloat64("floor-area")
		p.FloorArea = &v
	}
	if flags.Changed("habitable-area") {
		v, _ := flags.GetFloat64("habitable-area")
		p.TotalAreaOfHabitableRooms = &v
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	project, err := s.PutProject(cmd.Context(), p)
	if err != nil {
		exitErr("put project", err)
	}
	printJSON(project)
}

func runProjectGet(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	project, err := s.GetProject(cmd.Context(), args[0])
	if err != nil {
		exitErr("get project", err)
	}
	printJSON(project)
}

func runProjectList(cmd *cobra.Command, args []string) {
	query, _ := cmd.Flags().GetString("query")
	buildingType, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	projects, err := s.ListProjects(cmd.Context(), store.ListProjectsParams{
		Query:        query,
		BuildingType: buildingType,
		Limit:        limit,
	})
	if err != nil {
		exitErr("list projects", err)
	}

	if formatFlag == "text" {
		for _, p := range projects {
			fmt.Printf("%s  %-30s %s\n", p.ID, p.Name, p.BuildingType)
		}
		return
	}
	printJSON(projects)
}

func runProjectRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.RmProject(cmd.Context(), args[0]); err != nil {
		exitErr("rm project", err)
	}
	fmt.Printf(`{"ok":true,"deleted":%q}`+"\n", args[0])
}
