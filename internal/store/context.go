package store

import (
	"context"

	"github.com/ryandumpert/flint/internal/model"
	"github.com/ryandumpert/flint/internal/summary"
)

// Analysis is a stored contract version together with its issues.
type Analysis struct {
	Contract model.ContractVersion `json:"contract"`
	Issues   []model.Issue         `json:"issues"`
}

// LoadAnalysis resolves idOrName and loads its issues.
func (s *SQLiteStore) LoadAnalysis(ctx context.Context, idOrName string) (*Analysis, error) {
	v, err := s.Resolve(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	issues, err := s.Issues(ctx, v.ID, IssueFilter{})
	if err != nil {
		return nil, err
	}
	return &Analysis{Contract: *v, Issues: issues}, nil
}

// SummaryContext builds the chat summary context for a stored contract.
func (s *SQLiteStore) SummaryContext(ctx context.Context, idOrName string) (model.ContractSummaryContext, error) {
	a, err := s.LoadAnalysis(ctx, idOrName)
	if err != nil {
		return model.ContractSummaryContext{}, err
	}
	return summary.BuildContext(&a.Contract, a.Issues), nil
}

// Report builds the dashboard report for a stored contract.
func (s *SQLiteStore) Report(ctx context.Context, idOrName string) (*summary.Report, error) {
	a, err := s.LoadAnalysis(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	r := summary.BuildReport(&a.Contract, a.Issues)
	return &r, nil
}
