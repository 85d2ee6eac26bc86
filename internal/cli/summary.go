package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/grounding"
)

func init() {
	cmd := &cobra.Command{
		Use:   "summary <contract>",
		Short: "Show the analysis summary and risk score of a contract",
		Args:  cobra.ExactArgs(1),
		Run:   runSummary,
	}

	RootCmd.AddCommand(cmd)
}

func runSummary(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rep, err := s.Report(cmd.Context(), args[0])
	if err != nil {
		exitErr("summary", err)
	}

	if formatFlag == "text" {
		fmt.Fprintln(stdout, grounding.Header(rep.Context))
		fmt.Fprintf(stdout, "[Risk: %s (%d/100)]\n", rep.RiskLabel, rep.RiskScore)
		return
	}
	printOut(rep)
}
