package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <contract>",
		Short: "Retrieve a contract version",
		Long:  "Retrieve a contract by version ID or name. By name, the latest version is returned unless --version or --history is given.",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().Bool("history", false, "Return all versions (newest first)")
	cmd.Flags().IntP("version", "v", 0, "Specific version number")
	cmd.Flags().Bool("text", false, "Print only the canonical text")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	history, _ := cmd.Flags().GetBool("history")
	version, _ := cmd.Flags().GetInt("version")
	textOnly, _ := cmd.Flags().GetBool("text")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p := store.GetParams{Name: args[0], History: history, Version: version}
	if !history && version == 0 {
		v, err := s.Resolve(cmd.Context(), args[0])
		if err != nil {
			exitErr("get", err)
		}
		p = store.GetParams{ID: v.ID}
	}

	versions, err := s.Get(cmd.Context(), p)
	if err != nil {
		exitErr("get", err)
	}

	if textOnly {
		fmt.Fprintln(stdout, versions[0].Text)
		return
	}
	if formatFlag == "text" {
		writeVersionsText(stdout, versions)
		return
	}
	if history || len(versions) > 1 {
		printOut(versions)
	} else {
		printOut(versions[0])
	}
}
