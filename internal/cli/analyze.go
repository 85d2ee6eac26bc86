package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/issue"
	"github.com/ryandumpert/flint/internal/review"
)

func init() {
	cmd := &cobra.Command{
		Use:   "analyze <contract> [analysis-file]",
		Short: "Normalize an analysis response and store its issues",
		Long: "Read a raw analysis response (JSON, optionally wrapped in prose or a Markdown fence) " +
			"from a file or stdin, normalize every issue against the contract's canonical text, " +
			"and replace the version's issues. Malformed issues are logged and skipped.",
		Args: cobra.RangeArgs(1, 2),
		Run:  runAnalyze,
	}

	RootCmd.AddCommand(cmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	var payload []byte
	var err error
	if len(args) == 2 {
		payload, err = os.ReadFile(args[1])
	} else {
		payload, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read analysis", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	n := issue.NewNormalizer(issue.WithLogger(logger))
	res, err := review.Apply(cmd.Context(), s, n, args[0], payload)
	if err != nil {
		exitErr("analyze", err)
	}
	if res.Dropped > 0 {
		logger.Warn("dropped malformed issues", "count", res.Dropped)
	}

	if formatFlag == "text" {
		fmt.Fprintf(stdout, "%s v%d: %d issues stored, %d dropped\n",
			res.Contract.Name, res.Contract.Version, len(res.Issues), res.Dropped)
		return
	}
	res.Contract.Text = ""
	printOut(res)
}
