// Package cli implements the flint CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/config"
	"github.com/ryandumpert/flint/internal/logging"
	"github.com/ryandumpert/flint/internal/store"
)

// Version is set at build time.
var Version = "dev"

var (
	dbPath     string
	configPath string
	formatFlag string

	cfg    *config.Config
	logger = logging.Discard()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "flint",
	Short: "Ground contract review in the contract text",
	Long: "Ingest contracts, normalize AI analyses against the canonical text, " +
		"and ground chat messages and clause lookups in the active contract. SQLite-backed, single binary.",
	Version:          Version,
	PersistentPreRun: setup,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $FLINT_DB or ~/.flint/flint.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./flint.yaml or ~/.flint/flint.yaml)")
	RootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json, yaml or text")
}

// setup loads configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, args []string) {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if dbPath != "" {
		cfg.DB = dbPath
	}
	if err := cfg.Validate(); err != nil {
		exitErr("invalid config", err)
	}

	logger, err = logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		exitErr("logger", err)
	}
	log.SetDefault(logger)
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DB
}

func openStore() (*store.SQLiteStore, error) {
	logger.Debug("opening store", "path", getDBPath())
	return store.NewSQLiteStore(getDBPath())
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
