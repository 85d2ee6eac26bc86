package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a contract",
		Long:  "Soft-delete the latest version of a contract, or every version with --all-versions.",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}

	cmd.Flags().Bool("all-versions", false, "Delete all versions")
	cmd.Flags().Bool("hard", false, "Permanent delete, including issues and sections (irreversible)")

	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	allVersions, _ := cmd.Flags().GetBool("all-versions")
	hard, _ := cmd.Flags().GetBool("hard")
	name := args[0]

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	err = s.Rm(cmd.Context(), store.RmParams{
		Name:        name,
		AllVersions: allVersions,
		Hard:        hard,
	})
	if err != nil {
		exitErr("rm", err)
	}

	if formatFlag == "text" {
		fmt.Fprintf(stdout, "removed %s\n", name)
		return
	}
	printOut(map[string]any{"ok": true, "name": name})
}
