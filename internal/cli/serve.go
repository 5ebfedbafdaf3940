package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/section-j/internal/api"
	"github.com/rcliao/section-j/internal/mcpserver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  "Serve the JSON API under /api and the MCP streamable HTTP endpoint under /mcp.",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, 127.0.0.1:8080)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
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
	if err := svc.library.Preload(cmd.Context()); err != nil {
		exitErr("load section library", err)
	}

	mcpSrv := mcpserver.New(s, svc.reports, svc.chat)
	apiSrv := &api.Server{Store: s, Reports: svc.reports, Chat: svc.chat, Logger: logger}
	handler := apiSrv.Handler(map[string]http.Handler{
		"/mcp": mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return mcpSrv
		}, nil),
	})

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	httpSrv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("section-j listening", zap.String("addr", addr), zap.String("db", getDBPath()))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		exitErr("serve", err)
	}
}
