package cli

import (
	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export contracts and their issues",
		Long:  "Export every live contract version with its issues as JSON (default) or YAML (--format yaml). Filter by contract with -n.",
		Run:   runExport,
	}

	cmd.Flags().StringP("name", "n", "", "Filter by contract name")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	if formatFlag == "text" {
		exitErr("export", errTextFormat)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	bundles, err := s.ExportAll(cmd.Context(), name)
	if err != nil {
		exitErr("export", err)
	}
	if bundles == nil {
		bundles = []store.Analysis{}
	}

	printOut(bundles)
}
