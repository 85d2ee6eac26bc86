package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search contract sections by phrase",
		Long:  "Full-text phrase search over the sections of the latest version of every contract.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("name", "n", "", "Filter by contract name")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Query: query,
		Name:  name,
		Limit: limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if formatFlag == "text" {
		writeSearchText(stdout, results)
		return
	}
	if results == nil {
		results = []store.SearchResult{}
	}
	printOut(results)
}
