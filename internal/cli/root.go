// Package cli implements the section-j CLI commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/section-j/internal/chat"
	"github.com/rcliao/section-j/internal/classify"
	"github.com/rcliao/section-j/internal/config"
	"github.com/rcliao/section-j/internal/library"
	"github.com/rcliao/section-j/internal/llm"
	"github.com/rcliao/section-j/internal/logging"
	"github.com/rcliao/section-j/internal/report"
	"github.com/rcliao/section-j/internal/resolver"
	"github.com/rcliao/section-j/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	verbose    bool

	cfg    = config.DefaultConfig()
	logger = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "section-j",
	Short: "NCC Section J compliance reports and metering diagrams",
	Long: `section-j works out which NCC Section J energy efficiency requirements apply to a
building project and keeps a single-line metering diagram for it, edited by
bracketed commands or by chatting with a language model.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded

		logger, err = logging.New(cfg.Log, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $SECTION_J_DB or ~/.section-j/section-j.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $SECTION_J_CONFIG or ~/.section-j/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DBPath
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

// services bundles what the commands share.
type services struct {
	library    *library.Cache
	classifier *classify.Classifier
	resolver   *resolver.Resolver
	reports    *report.Service
	chat       *chat.Service
}

func newServices(s store.Store) (*services, error) {
	src := library.NewFSLoader(library.Embedded())
	if cfg.LibraryDir != "" {
		src = library.NewFSLoader(os.DirFS(cfg.LibraryDir))
	}
	lib := library.NewCache(src)

	c, err := classify.Default()
	if err != nil {
		return nil, fmt.Errorf("load classification tables: %w", err)
	}
	res := resolver.New(lib, logger)

	completer, err := llm.NewFromConfig(cfg.LLM)
	if err != nil && !errors.Is(err, llm.ErrDisabled) {
		logger.Warn("diagram chat unavailable", zap.Error(err))
	}

	return &services{
		library:    lib,
		classifier: c,
		resolver:   res,
		reports:    report.New(s, c, res, logger),
		chat:       chat.New(s, completer, cfg.Grid, logger),
	}, nil
}

// readInput joins args, or reads stdin when no args are given and stdin is piped.
func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", nil
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
