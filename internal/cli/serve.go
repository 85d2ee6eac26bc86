package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/issue"
	"github.com/ryandumpert/flint/internal/server"
	"github.com/ryandumpert/flint/internal/session"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: server.addr from config)")
	cmd.Flags().String("open", "", "Contract to open as the active session on start")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")
	open, _ := cmd.Flags().GetString("open")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	sess := session.NewManager(newGrounder())
	if open != "" {
		a, err := s.LoadAnalysis(cmd.Context(), open)
		if err != nil {
			exitErr("open contract", err)
		}
		sess.Open(a.Contract, a.Issues)
		logger.Info("session opened", "contract", a.Contract.Name, "version", a.Contract.Version, "issues", len(a.Issues))
	}

	srv := server.New(s, sess,
		server.WithLogger(logger),
		server.WithNormalizer(issue.NewNormalizer(issue.WithLogger(logger))),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		exitErr("serve", err)
	}
}
