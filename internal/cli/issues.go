package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/model"
	"github.com/ryandumpert/flint/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "issues <contract>",
		Short: "List the issues of a contract version",
		Args:  cobra.ExactArgs(1),
		Run:   runIssues,
	}

	cmd.Flags().StringP("severity", "s", "", "Filter by severity: critical, high, medium, low")
	cmd.Flags().String("category", "", "Filter by category (case-insensitive)")
	cmd.Flags().Bool("quotes", false, "With --format text, print the anchored text of each issue")

	RootCmd.AddCommand(cmd)
}

func runIssues(cmd *cobra.Command, args []string) {
	sev, _ := cmd.Flags().GetString("severity")
	category, _ := cmd.Flags().GetString("category")
	quotes, _ := cmd.Flags().GetBool("quotes")

	var f store.IssueFilter
	if sev != "" {
		parsed, ok := model.ParseSeverity(sev)
		if !ok {
			exitErr("issues", fmt.Errorf("unknown severity %q", sev))
		}
		f.Severity = parsed
	}
	f.Category = category

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	v, err := s.Resolve(cmd.Context(), args[0])
	if err != nil {
		exitErr("issues", err)
	}
	issues, err := s.Issues(cmd.Context(), v.ID, f)
	if err != nil {
		exitErr("issues", err)
	}

	if formatFlag != "text" {
		printOut(issues)
		return
	}
	for _, iss := range issues {
		loc := "unanchored"
		if iss.Anchor.Resolved() {
			loc = fmt.Sprintf("@%d-%d", iss.Anchor.Start, iss.Anchor.End)
		}
		fmt.Fprintf(stdout, "[%s] %s (%s, %s)\n", strings.ToUpper(string(iss.Severity)), iss.Title, iss.Category, loc)
		if quotes && iss.Anchor.Resolved() {
			fmt.Fprintf(stdout, "    %q\n", iss.Anchor.Slice(v.Text))
		}
	}
}
