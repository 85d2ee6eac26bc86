package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ryandumpert/flint/internal/model"
	"github.com/ryandumpert/flint/internal/store"
)

// Renderers for --format text. Each writes one record per line, tab separated.

func writeVersionsText(w io.Writer, versions []model.ContractVersion) {
	for _, v := range versions {
		line := fmt.Sprintf("%s\t%s\tv%d\t%s\t%d words", v.ID, v.Name, v.Version, v.FileName, v.WordCount)
		if v.PageCount != nil {
			line += fmt.Sprintf("\t%d pages", *v.PageCount)
		}
		line += "\t" + v.CreatedAt.Format("2006-01-02")
		if v.DeletedAt != nil {
			line += "\tdeleted"
		}
		fmt.Fprintln(w, line)
	}
}

func writeStatsText(w io.Writer, st *store.Stats) {
	fmt.Fprintf(w, "database:    %s (%d bytes)\n", st.DBPath, st.DBSizeBytes)
	fmt.Fprintf(w, "versions:    %d (%d active)\n", st.TotalVersions, st.ActiveVersions)
	fmt.Fprintf(w, "sections:    %d\n", st.TotalSections)
	fmt.Fprintf(w, "issues:      %d (%d unresolved)\n", st.TotalIssues, st.UnresolvedIssues)
	for _, sev := range st.Severities {
		fmt.Fprintf(w, "  %-10s %d\n", sev.Severity, sev.Count)
	}
}

func writeSearchText(w io.Writer, results []store.SearchResult) {
	for _, r := range results {
		heading := r.Section.Heading
		if heading == "" {
			heading = "(preamble)"
		}
		fmt.Fprintf(w, "%s v%d\t%s\t[%d,%d)\t%s\n", r.Name, r.Version, heading,
			r.Section.Start, r.Section.End, snippet(r.Section.Text, 80))
	}
}

// snippet flattens s onto one line and cuts it to n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
