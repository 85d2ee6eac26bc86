package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/locate"
)

func init() {
	cmd := &cobra.Command{
		Use:   "locate <contract> [message...]",
		Short: "Find the clause a navigation request refers to",
		Long: "Parse a request such as \"show me the termination clause\" and locate it in the " +
			"contract. With --query the text is searched for directly.",
		Args: cobra.MinimumNArgs(1),
		Run:  runLocate,
	}

	cmd.Flags().StringP("query", "q", "", "Search for this text instead of parsing a message")

	RootCmd.AddCommand(cmd)
}

type locateResult struct {
	Found   bool                      `json:"found"`
	Request *locate.NavigationRequest `json:"request,omitempty"`
	Match   *locate.Match             `json:"match,omitempty"`
}

func runLocate(cmd *cobra.Command, args []string) {
	query, _ := cmd.Flags().GetString("query")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	v, err := s.Resolve(cmd.Context(), args[0])
	if err != nil {
		exitErr("locate", err)
	}

	var res locateResult
	if query != "" {
		if m, ok := locate.FindClause(v.Text, query); ok {
			res = locateResult{Found: true, Match: &m}
		}
	} else {
		m, req, ok := locate.Locate(messageArg(args[1:]), v.Text)
		if req.SearchQuery != "" {
			res.Request = &req
		}
		if ok {
			res.Found = true
			res.Match = &m
		}
	}

	if formatFlag == "text" {
		if !res.Found {
			fmt.Fprintln(stdout, "not found")
			return
		}
		fmt.Fprintf(stdout, "@%d-%d (%s)\n%s\n", res.Match.Start, res.Match.End, res.Match.Strategy, res.Match.MatchedText)
		return
	}
	printOut(res)
}
