package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import contracts from an export",
		Long:  "Import contracts and issues from a JSON or YAML export (file or stdin). Every bundle becomes a new version.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	bundles, err := decodeBundles(data)
	if err != nil {
		exitErr("parse", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := s.Import(cmd.Context(), bundles)
	if err != nil {
		exitErr("import", err)
	}

	if formatFlag == "text" {
		fmt.Fprintf(stdout, "imported %d contract versions\n", imported)
		return
	}
	printOut(map[string]any{"ok": true, "imported": imported})
}
