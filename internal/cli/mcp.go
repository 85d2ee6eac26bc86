package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/mcptools"
	"github.com/ryandumpert/flint/internal/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve contract tools over MCP (stdio)",
		Long:  "Run an MCP server on stdin/stdout exposing ground_message, locate_clause, contract_summary and open_contract.",
		Run:   runMCP,
	}

	cmd.Flags().String("open", "", "Contract to open as the active session on start")

	RootCmd.AddCommand(cmd)
}

func runMCP(cmd *cobra.Command, args []string) {
	open, _ := cmd.Flags().GetString("open")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sess := session.NewManager(newGrounder())
	if open != "" {
		if sess, err = openSession(cmd.Context(), s, open); err != nil {
			exitErr("open contract", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcptools.NewServer(sess, s, Version, logger)
	logger.Info("mcp server ready", "db", getDBPath())
	if err := mcptools.Serve(ctx, server); err != nil {
		exitErr("mcp", err)
	}
}
