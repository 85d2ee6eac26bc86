package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath           string          `json:"db_path"`
	DBSizeBytes      int64           `json:"db_size_bytes"`
	TotalVersions    int             `json:"total_versions"`
	ActiveVersions   int             `json:"active_versions"`
	TotalIssues      int             `json:"total_issues"`
	TotalSections    int             `json:"total_sections"`
	UnresolvedIssues int             `json:"unresolved_issues"`
	Severities       []SeverityStats `json:"severities"`
}

// SeverityStats holds per-severity issue counts across live contracts.
type SeverityStats struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts`).Scan(&st.TotalVersions)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contracts WHERE deleted_at IS NULL`).Scan(&st.ActiveVersions)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues`).Scan(&st.TotalIssues)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sections`).Scan(&st.TotalSections)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues WHERE anchor_start < 0`).Scan(&st.UnresolvedIssues)

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.severity, COUNT(*) AS cnt
		FROM issues i JOIN contracts c ON c.id = i.contract_id
		WHERE c.deleted_at IS NULL
		GROUP BY i.severity ORDER BY cnt DESC`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var sv SeverityStats
		rows.Scan(&sv.Severity, &sv.Count)
		st.Severities = append(st.Severities, sv)
	}

	return st, nil
}
