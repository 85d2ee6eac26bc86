package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ryandumpert/flint/internal/section"
)

// SearchParams holds parameters for searching contract sections.
type SearchParams struct {
	Query string
	Name  string // restrict to one contract
	Limit int
}

// SearchResult is a matching section of the latest version of a contract.
type SearchResult struct {
	ContractID string          `json:"contract_id"`
	Name       string          `json:"name"`
	Version    int             `json:"version"`
	Section    section.Section `json:"section"`
}

// Search runs a full-text phrase query over the sections of the latest
// version of every live contract, best matches first.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]SearchResult, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"sections_fts MATCH ?", "c.deleted_at IS NULL"}
	args := []interface{}{ftsPhrase(query)}
	if p.Name != "" {
		where = append(where, "c.name = ?")
		args = append(args, p.Name)
	}

	sql := fmt.Sprintf(`
		SELECT c.id, c.name, c.version, s.heading, s.text, s.start_offset, s.end_offset
		FROM sections_fts
		JOIN sections s ON s.rowid = sections_fts.rowid
		JOIN contracts c ON c.id = s.contract_id
		INNER JOIN (
			SELECT name, MAX(version) AS max_ver
			FROM contracts WHERE deleted_at IS NULL
			GROUP BY name
		) latest ON c.name = latest.name AND c.version = latest.max_ver
		WHERE %s
		ORDER BY bm25(sections_fts), s.seq
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var heading *string
		if err := rows.Scan(&r.ContractID, &r.Name, &r.Version, &heading,
			&r.Section.Text, &r.Section.Start, &r.Section.End); err != nil {
			return nil, err
		}
		if heading != nil {
			r.Section.Heading = *heading
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// Sections returns the stored outline of a contract version.
func (s *SQLiteStore) Sections(ctx context.Context, versionID string) ([]section.Section, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT heading, text, start_offset, end_offset FROM sections
		 WHERE contract_id = ? ORDER BY seq`, versionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var secs []section.Section
	for rows.Next() {
		var sec section.Section
		var heading *string
		if err := rows.Scan(&heading, &sec.Text, &sec.Start, &sec.End); err != nil {
			return nil, err
		}
		if heading != nil {
			sec.Heading = *heading
		}
		secs = append(secs, sec)
	}
	return secs, rows.Err()
}

// ftsPhrase quotes a user query as a single FTS5 phrase so operators and
// punctuation in it are taken literally.
func ftsPhrase(q string) string {
	return `"` + strings.ReplaceAll(q, `"`, `""`) + `"`
}
