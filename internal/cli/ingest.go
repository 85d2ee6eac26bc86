package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ryandumpert/flint/internal/ingest"
	"github.com/ryandumpert/flint/internal/model"
	"github.com/ryandumpert/flint/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest [files, directories or globs...]",
		Short: "Store contracts as new versions",
		Long: "Normalize and store UTF-8 text contracts. Arguments may be files, directories " +
			"(walked with the configured include/exclude globs) or ** glob patterns. " +
			"With no arguments the contract is read from stdin and --name is required.",
		Run: runIngest,
	}

	cmd.Flags().StringP("name", "n", "", "Contract name (default: file name without extension)")
	cmd.Flags().Int("pages", 0, "Page count of the source document")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	name, _ := cmd.Flags().GetString("name")
	pages, _ := cmd.Flags().GetInt("pages")
	var pageCount *int
	if pages > 0 {
		pageCount = &pages
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if len(args) == 0 {
		if name == "" {
			exitErr("ingest", fmt.Errorf("--name is required when reading stdin"))
		}
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		v, err := s.Ingest(cmd.Context(), store.IngestParams{Name: name, RawText: string(b), PageCount: pageCount})
		if err != nil {
			exitErr("ingest", err)
		}
		v.Text = ""
		if formatFlag == "text" {
			writeVersionsText(stdout, []model.ContractVersion{*v})
			return
		}
		printOut(v)
		return
	}

	w := ingest.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	files, err := w.Expand(args)
	if err != nil {
		exitErr("ingest", err)
	}
	if len(files) == 0 {
		exitErr("ingest", fmt.Errorf("no files matched"))
	}
	if name != "" && len(files) > 1 {
		exitErr("ingest", fmt.Errorf("--name needs a single file, got %d", len(files)))
	}

	var bar *progressbar.ProgressBar
	if len(files) > 1 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)
	}

	versions := make([]model.ContractVersion, 0, len(files))
	failed := 0
	for _, f := range files {
		text, err := ingest.ReadText(f)
		if err == nil {
			n := name
			if n == "" {
				n = ingest.ContractName(f)
			}
			var v *model.ContractVersion
			v, err = s.Ingest(cmd.Context(), store.IngestParams{
				Name:      n,
				FileName:  f,
				RawText:   text,
				PageCount: pageCount,
			})
			if err == nil {
				v.Text = ""
				versions = append(versions, *v)
				logger.Debug("ingested", "name", v.Name, "version", v.Version, "words", v.WordCount)
			}
		}
		if err != nil {
			failed++
			logger.Warn("skipping file", "path", f, "err", err)
		}
		if bar != nil {
			bar.Add(1)
		}
	}

	if formatFlag == "text" {
		for _, v := range versions {
			fmt.Fprintf(stdout, "%s\tv%d\t%d words\t%s\n", v.Name, v.Version, v.WordCount, v.ID)
		}
	} else {
		printOut(versions)
	}
	if failed > 0 {
		exitErr("ingest", fmt.Errorf("%d of %d files failed", failed, len(files)))
	}
}
