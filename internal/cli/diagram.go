package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/section-j/internal/chat"
	"github.com/rcliao/section-j/internal/diagram"
)

func init() {
	diagramCmd := &cobra.Command{
		Use:   "diagram",
		Short: "Single-line metering diagram",
	}

	showCmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show the latest diagram",
		Args:  cobra.ExactArgs(1),
		Run:   runDiagramShow,
	}

	applyCmd := &cobra.Command{
		Use:   "apply <project-id> [commands]",
		Short: "Apply diagram commands",
		Long: `Apply diagram commands without the language model. Commands are given as
arguments or on stdin, each in braces:

  {add,smart-meter,1,1,Main} {connect,1,1,right,3,1,left} {delete,2,2} {delete-all}

With --piped they are separated by "|" instead.`,
		Args: cobra.MinimumNArgs(1),
		Run:  runDiagramApply,
	}
	applyCmd.Flags().Bool("piped", false, "Commands are separated by |")

	resetCmd := &cobra.Command{
		Use:   "reset <project-id>",
		Short: "Clear the diagram",
		Args:  cobra.ExactArgs(1),
		Run:   runDiagramReset,
	}

	historyCmd := &cobra.Command{
		Use:   "history <project-id>",
		Short: "List diagram versions",
		Args:  cobra.ExactArgs(1),
		Run:   runDiagramHistory,
	}
	historyCmd.Flags().IntP("limit", "l", 20, "Max versions")

	diagramCmd.AddCommand(showCmd, applyCmd, resetCmd, historyCmd)
	RootCmd.AddCommand(diagramCmd)
}

func runDiagramShow(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if _, err := s.GetProject(cmd.Context(), args[0]); err != nil {
		exitErr("get project", err)
	}
	snap, err := s.LatestDiagram(cmd.Context(), args[0])
	if err != nil {
		exitErr("load diagram", err)
	}

	if formatFlag == "text" {
		fmt.Printf("version %d\n%s\n", snap.Version, diagram.Describe(snap.Graph, cfg.Grid))
		return
	}
	printJSON(snap)
}

func runDiagramApply(cmd *cobra.Command, args []string) {
	piped, _ := cmd.Flags().GetBool("piped")

	text, err := readInput(args[1:])
	if err != nil {
		exitErr("read stdin", err)
	}
	if strings.TrimSpace(text) == "" {
		exitErr("apply", fmt.Errorf("commands are required (positional args or stdin)"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	svc, err := newServices(s)
	if err != nil {
		exitErr("init", err)
	}

	reply, err := svc.chat.Apply(cmd.Context(), args[0], text, piped)
	if err != nil {
		exitErr("apply", err)
	}
	printReply(reply)
}

func runDiagramReset(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	svc, err := newServices(s)
	if err != nil {
		exitErr("init", err)
	}

	reply, err := svc.chat.Reset(cmd.Context(), args[0])
	if err != nil {
		exitErr("reset", err)
	}
	printReply(reply)
}

func runDiagramHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	snaps, err := s.DiagramHistory(cmd.Context(), args[0], limit)
	if err != nil {
		exitErr("history", err)
	}

	if formatFlag == "text" {
		for _, snap := range snaps {
			fmt.Printf("v%d  %s  %d nodes, %d edges\n", snap.Version,
				snap.CreatedAt.Format("2006-01-02 15:04:05"), len(snap.Graph.Nodes), len(snap.Graph.Edges))
		}
		return
	}
	printJSON(snaps)
}

func printReply(reply *chat.Reply) {
	if formatFlag != "text" {
		printJSON(reply)
		return
	}
	if reply.Preamble != "" {
		fmt.Println(reply.Preamble)
	}
	fmt.Printf("applied %d, skipped %d, version %d\n", reply.Applied, len(reply.Skipped), reply.Version)
	for _, sk := range reply.Skipped {
		fmt.Printf("  skipped %s: %s\n", sk.Command, sk.Reason)
	}
	fmt.Println(diagram.Describe(reply.Graph, cfg.Grid))
}
