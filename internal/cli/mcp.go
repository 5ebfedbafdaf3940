package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/section-j/internal/mcpserver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run as an MCP server",
		Long:  "Expose projects, reports and diagram tools to MCP clients over stdio or streamable HTTP.",
		Run:   runMCP,
	}

	cmd.Flags().String("transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().String("addr", "", "Listen address for http (default from config)")

	RootCmd.AddCommand(cmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	transport, _ := cmd.Flags().GetString("transport")
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.HTTPAddr
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
	srv := mcpserver.New(s, svc.reports, svc.chat)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch transport {
	case "stdio":
		logger.Info("mcp server starting", zap.String("transport", "stdio"))
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			exitErr("mcp", err)
		}
	case "http":
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		logger.Info("mcp server listening", zap.String("transport", "http"), zap.String("addr", addr))
		if err := http.ListenAndServe(addr, handler); err != nil {
			exitErr("mcp", err)
		}
	default:
		exitErr("mcp", fmt.Errorf("unknown transport %q (use stdio or http)", transport))
	}
}
