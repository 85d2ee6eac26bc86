// Package store provides contract and analysis persistence backed by SQLite.
package store

import (
	"context"
	"errors"

	"github.com/ryandumpert/flint/internal/model"
	"github.com/ryandumpert/flint/internal/section"
	"github.com/ryandumpert/flint/internal/summary"
)

// ErrNotFound is returned when a contract or version does not exist.
var ErrNotFound = errors.New("not found")

// IngestParams holds parameters for storing a contract version.
type IngestParams struct {
	Name      string
	FileName  string
	RawText   string // normalized before storage
	PageCount *int
}

// GetParams holds parameters for retrieving contract versions.
// ID takes precedence over Name.
type GetParams struct {
	ID      string
	Name    string
	History bool
	Version int // 0 means latest
}

// ListParams holds parameters for listing contracts.
type ListParams struct {
	Name  string
	Limit int
}

// RmParams holds parameters for deleting a contract.
type RmParams struct {
	Name        string
	AllVersions bool
	Hard        bool
}

// IssueFilter narrows Issues results.
type IssueFilter struct {
	Severity model.Severity
	Category string
}

// Store defines the contract storage interface.
type Store interface {
	// Ingest normalizes and stores a new version of a contract.
	Ingest(ctx context.Context, p IngestParams) (*model.ContractVersion, error)

	// Get retrieves a contract version by ID or name.
	// Returns a slice (single element normally, multiple with History=true).
	Get(ctx context.Context, p GetParams) ([]model.ContractVersion, error)

	// List lists the latest version of each contract, without text.
	List(ctx context.Context, p ListParams) ([]model.ContractVersion, error)

	// SaveIssues replaces the issue set of a contract version.
	SaveIssues(ctx context.Context, versionID string, issues []model.Issue) error

	// Issues returns the issues of a contract version in analysis order.
	Issues(ctx context.Context, versionID string, f IssueFilter) ([]model.Issue, error)

	// Resolve returns a version by ID, or the latest version by name.
	Resolve(ctx context.Context, idOrName string) (*model.ContractVersion, error)

	// LoadAnalysis returns a resolved version together with its issues.
	LoadAnalysis(ctx context.Context, idOrName string) (*Analysis, error)

	SummaryContext(ctx context.Context, idOrName string) (model.ContractSummaryContext, error)
	Report(ctx context.Context, idOrName string) (*summary.Report, error)

	// Search runs a full-text query over the sections of latest versions.
	Search(ctx context.Context, p SearchParams) ([]SearchResult, error)

	// Sections returns the outline of a version.
	Sections(ctx context.Context, versionID string) ([]section.Section, error)

	// Rm soft-deletes (or hard-deletes) a contract.
	Rm(ctx context.Context, p RmParams) error

	// Close closes the store.
	Close() error
}
