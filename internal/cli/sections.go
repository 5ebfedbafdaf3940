package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sections [project-id]",
		Short: "List the applicable sections of a project",
		Long: `Resolve the applicable sections and content blocks of a project from the
section library. With --types, list the section types the library holds.`,
		Args: cobra.MaximumNArgs(1),
		Run:  runSections,
	}

	cmd.Flags().StringP("section", "s", "", "Only this section id, e.g. j9monitor")
	cmd.Flags().StringP("type", "t", "", "Section type (default section-j)")
	cmd.Flags().Bool("types", false, "List available section types")

	RootCmd.AddCommand(cmd)
}

func runSections(cmd *cobra.Command, args []string) {
	section, _ := cmd.Flags().GetString("section")
	sectionType, _ := cmd.Flags().GetString("type")
	listTypes, _ := cmd.Flags().GetBool("types")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	svc, err := newServices(s)
	if err != nil {
		exitErr("init", err)
	}

	if listTypes {
		types, err := svc.library.Types(cmd.Context())
		if err != nil {
			exitErr("list section types", err)
		}
		printJSON(types)
		return
	}
	if len(args) == 0 {
		cmd.Help()
		return
	}

	pctx, err := svc.reports.Context(cmd.Context(), args[0])
	if err != nil {
		exitErr("load project", err)
	}
	sections, err := svc.resolver.GenerateDynamicSections(cmd.Context(), pctx.Project, section,
		pctx.BuildingClassification, pctx.ClimateZone, sectionType)
	if err != nil {
		exitErr("resolve sections", err)
	}
	printJSON(sections)
}
