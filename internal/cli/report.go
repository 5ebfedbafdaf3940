package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/section-j/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "report <project-id>",
		Short: "Generate a compliance report",
		Args:  cobra.ExactArgs(1),
		Run:   runReport,
	}

	cmd.Flags().StringP("section", "s", "", "Only this section id, e.g. j9monitor")
	cmd.Flags().StringP("type", "t", "", "Section type (default section-j)")

	RootCmd.AddCommand(cmd)
}

func runReport(cmd *cobra.Command, args []string) {
	section, _ := cmd.Flags().GetString("section")
	sectionType, _ := cmd.Flags().GetString("type")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	svc, err := newServices(s)
	if err != nil {
		exitErr("init", err)
	}

	rep, err := svc.reports.Generate(cmd.Context(), args[0], section, sectionType)
	if err != nil {
		exitErr("report", err)
	}

	if formatFlag == "text" {
		if err := report.Render(os.Stdout, rep); err != nil {
			exitErr("render", err)
		}
		return
	}
	printJSON(rep)
}
