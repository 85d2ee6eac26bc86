package store

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ryandumpert/flint/internal/issue"
)

// ExportAll returns every live contract version with its issues, optionally
// restricted to one contract name, oldest version first.
func (s *SQLiteStore) ExportAll(ctx context.Context, name string) ([]Analysis, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts c WHERE c.deleted_at IS NULL`
	var args []interface{}
	if name != "" {
		query += ` AND c.name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY c.name, c.version`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var bundles []Analysis
	for rows.Next() {
		v, err := scanContract(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		bundles = append(bundles, Analysis{Contract: v})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range bundles {
		issues, err := s.Issues(ctx, bundles[i].Contract.ID, IssueFilter{})
		if err != nil {
			return nil, err
		}
		bundles[i].Issues = issues
	}
	return bundles, nil
}

// Import stores bundles from an export as new versions, all in one
// transaction. Contracts and issues get fresh IDs. Issues are revalidated
// against the stored text like fresh analysis output, so out-of-range
// values in a hand-edited export are clamped or defaulted and records that
// cannot be read are dropped.
func (s *SQLiteStore) Import(ctx context.Context, bundles []Analysis) (int, error) {
	n := issue.NewNormalizer(issue.WithLogger(log.Default()))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, b := range bundles {
		v, err := s.ingestTx(ctx, tx, IngestParams{
			Name:      b.Contract.Name,
			FileName:  b.Contract.FileName,
			RawText:   b.Contract.Text,
			PageCount: b.Contract.PageCount,
		})
		if err != nil {
			return 0, fmt.Errorf("import %s v%d: %w", b.Contract.Name, b.Contract.Version, err)
		}

		issues := n.RevalidateBatch(b.Issues, v.ID, v.Text)
		if err := insertIssues(ctx, tx, v.ID, issues); err != nil {
			return 0, fmt.Errorf("import %s v%d issues: %w", b.Contract.Name, b.Contract.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(bundles), nil
}
