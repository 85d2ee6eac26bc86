package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contracts (latest version of each)",
		Run:   runList,
	}

	cmd.Flags().StringP("name", "n", "", "Filter by contract name")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("names-only", false, "Only output contract names")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	limit, _ := cmd.Flags().GetInt("limit")
	namesOnly, _ := cmd.Flags().GetBool("names-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	versions, err := s.List(cmd.Context(), store.ListParams{Name: name, Limit: limit})
	if err != nil {
		exitErr("list", err)
	}

	if namesOnly {
		for _, v := range versions {
			fmt.Fprintln(stdout, v.Name)
		}
		return
	}
	if formatFlag == "text" {
		for _, v := range versions {
			fmt.Fprintf(stdout, "%s\tv%d\t%d words\t%d issues\t%s\n", v.Name, v.Version, v.WordCount, v.IssueCount, v.CreatedAt.Format("2006-01-02"))
		}
		return
	}
	printOut(versions)
}
