package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "outline <contract>",
		Short: "Show the section outline of a contract",
		Args:  cobra.ExactArgs(1),
		Run:   runOutline,
	}

	RootCmd.AddCommand(cmd)
}

func runOutline(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	v, err := s.Resolve(cmd.Context(), args[0])
	if err != nil {
		exitErr("outline", err)
	}
	secs, err := s.Sections(cmd.Context(), v.ID)
	if err != nil {
		exitErr("outline", err)
	}

	if formatFlag == "text" {
		for _, sec := range secs {
			heading := sec.Heading
			if heading == "" {
				heading = "(untitled)"
			}
			fmt.Fprintf(stdout, "%6d-%-6d %s\n", sec.Start, sec.End, heading)
		}
		return
	}
	printOut(secs)
}
