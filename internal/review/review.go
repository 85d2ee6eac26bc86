// Package review applies an analysis response to a stored contract
// version: decode, normalize against the canonical text, persist.
package review

import (
	"context"
	"fmt"

	"github.com/ryandumpert/flint/internal/issue"
	"github.com/ryandumpert/flint/internal/model"
	"github.com/ryandumpert/flint/internal/store"
)

// Result is the outcome of applying one analysis.
type Result struct {
	Contract model.ContractVersion `json:"contract"`
	Issues   []model.Issue         `json:"issues"`
	Summary  string                `json:"summary,omitempty"`
	Dropped  int                   `json:"dropped"`
}

// Apply parses payload as an analysis of idOrName and replaces that
// version's issues with the normalized result. Malformed records are
// dropped and counted; a payload with no analysis object is an error.
func Apply(ctx context.Context, st store.Store, n *issue.Normalizer, idOrName string, payload []byte) (*Result, error) {
	v, err := st.Resolve(ctx, idOrName)
	if err != nil {
		return nil, err
	}

	a, err := issue.ParseAnalysis(payload)
	if err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}

	issues := n.NormalizeBatch(a.Issues, v.ID, v.Text)
	if err := st.SaveIssues(ctx, v.ID, issues); err != nil {
		return nil, fmt.Errorf("save issues: %w", err)
	}
	v.IssueCount = len(issues)

	return &Result{
		Contract: *v,
		Issues:   issues,
		Summary:  a.Summary,
		Dropped:  len(a.Issues) - len(issues),
	}, nil
}
