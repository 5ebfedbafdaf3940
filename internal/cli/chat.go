package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat <project-id> [message]",
		Short: "Ask the language model to edit the diagram",
		Long:  "Describe a diagram change in plain language. The message can be given as arguments or on stdin.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runChat,
	}

	cmd.Flags().Int("history", 5, "Earlier requests to include in the prompt")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	history, _ := cmd.Flags().GetInt("history")

	message, err := readInput(args[1:])
	if err != nil {
		exitErr("read stdin", err)
	}
	if strings.TrimSpace(message) == "" {
		exitErr("chat", fmt.Errorf("message is required (positional arg or stdin)"))
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
	svc.chat.HistoryTurns = history

	reply, err := svc.chat.Send(cmd.Context(), args[0], message)
	if err != nil {
		if reply != nil && reply.Preamble != "" {
			fmt.Println(reply.Preamble)
		}
		exitErr("chat", err)
	}
	printReply(reply)
}
