package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ryandumpert/flint/internal/model"
)

const sampleContract = "MASTER SERVICES AGREEMENT\r\n\r\n\r\n\r\nSection 1. Services\r\nThe Supplier shall provide the services.   \r\n\r\nSection 2. Liability\r\n\tThe Supplier's liability is unlimited.\r\n"

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testIssue(id, title string, sev model.Severity, category string) model.Issue {
	return model.Issue{
		ID:             id,
		Title:          title,
		Category:       category,
		Severity:       sev,
		RiskType:       model.RiskLegal,
		Confidence:     0.5,
		Anchor:         model.FailedAnchor(),
		SuggestedEdits: []model.SuggestedEdit{},
		CreatedAt:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestIngestAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	pages := 3
	v, err := s.Ingest(ctx, IngestParams{Name: "msa", FileName: "msa.pdf", RawText: sampleContract, PageCount: &pages})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if v.Version != 1 {
		t.Errorf("expected version 1, got %d", v.Version)
	}
	if v.ID == "" {
		t.Error("expected non-empty ID")
	}
	if strings.Contains(v.Text, "\r") || strings.Contains(v.Text, "\t") || strings.Contains(v.Text, "\n\n\n") {
		t.Errorf("text was not canonicalized: %q", v.Text)
	}
	if v.WordCount != 20 {
		t.Errorf("expected 20 words, got %d", v.WordCount)
	}

	got, err := s.Get(ctx, GetParams{Name: "msa"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got[0].Text != v.Text {
		t.Errorf("stored text differs from ingested text")
	}
	if got[0].FileName != "msa.pdf" {
		t.Errorf("expected file name msa.pdf, got %q", got[0].FileName)
	}
	if got[0].PageCount == nil || *got[0].PageCount != 3 {
		t.Errorf("expected page count 3, got %v", got[0].PageCount)
	}

	byID, err := s.Get(ctx, GetParams{ID: v.ID})
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if byID[0].Name != "msa" {
		t.Errorf("expected name msa, got %q", byID[0].Name)
	}
}

func TestIngestValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Ingest(ctx, IngestParams{Name: "", RawText: "text"}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := s.Ingest(ctx, IngestParams{Name: "blank", RawText: " \r\n\t "}); err == nil {
		t.Error("expected error for blank text")
	}
}

func TestVersioning(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Ingest(ctx, IngestParams{Name: "nda", RawText: "first draft"})
	v2, _ := s.Ingest(ctx, IngestParams{Name: "nda", RawText: "second draft"})

	if v2.Version != 2 {
		t.Errorf("expected version 2, got %d", v2.Version)
	}
	if v2.Supersedes == "" {
		t.Error("expected supersedes to be set")
	}

	got, _ := s.Get(ctx, GetParams{Name: "nda"})
	if got[0].Text != "second draft" {
		t.Errorf("expected 'second draft', got %q", got[0].Text)
	}

	hist, _ := s.Get(ctx, GetParams{Name: "nda", History: true})
	if len(hist) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(hist))
	}
	if hist[0].Version != 2 || hist[1].Version != 1 {
		t.Errorf("expected newest first, got v%d, v%d", hist[0].Version, hist[1].Version)
	}

	v1, err := s.Get(ctx, GetParams{Name: "nda", Version: 1})
	if err != nil {
		t.Fatalf("get v1: %v", err)
	}
	if v1[0].Text != "first draft" {
		t.Errorf("expected 'first draft', got %q", v1[0].Text)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), GetParams{Name: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	_, err = s.Resolve(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound from resolve, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v1, _ := s.Ingest(ctx, IngestParams{Name: "sow", RawText: "v1"})
	v2, _ := s.Ingest(ctx, IngestParams{Name: "sow", RawText: "v2"})

	got, err := s.Resolve(ctx, v1.ID)
	if err != nil || got.ID != v1.ID {
		t.Errorf("resolve by id: got %v, %v", got, err)
	}
	got, err = s.Resolve(ctx, "sow")
	if err != nil || got.ID != v2.ID {
		t.Errorf("resolve by name should return latest: got %v, %v", got, err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Ingest(ctx, IngestParams{Name: "a", RawText: "alpha"})
	s.Ingest(ctx, IngestParams{Name: "a", RawText: "alpha two"})
	s.Ingest(ctx, IngestParams{Name: "b", RawText: "beta"})

	all, err := s.List(ctx, ListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 contracts (latest versions), got %d", len(all))
	}
	for _, v := range all {
		if v.Text != "" {
			t.Errorf("list should omit text, got %q", v.Text)
		}
		if v.Name == "a" && v.Version != 2 {
			t.Errorf("expected latest version of a, got v%d", v.Version)
		}
	}

	one, _ := s.List(ctx, ListParams{Name: "b"})
	if len(one) != 1 || one[0].Name != "b" {
		t.Errorf("expected only b, got %+v", one)
	}
}

func TestSaveIssuesReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v, _ := s.Ingest(ctx, IngestParams{Name: "msa", RawText: sampleContract})

	first := []model.Issue{
		testIssue("i1", "Old one", model.SeverityLow, "Payment"),
		testIssue("i2", "Old two", model.SeverityLow, "Payment"),
	}
	if err := s.SaveIssues(ctx, v.ID, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	iss := testIssue("i3", "Unlimited liability", model.SeverityCritical, "Liability")
	iss.Quote = "The Supplier's liability is unlimited."
	iss.Anchor = model.Anchor{Start: strings.Index(v.Text, iss.Quote), Fingerprint: "liability"}
	iss.Anchor.End = iss.Anchor.Start + len(iss.Quote)
	iss.SuggestedEdits = []model.SuggestedEdit{{Type: model.EditChange, ReplacementText: "capped", Value: "Caps exposure"}}
	iss.DiscussionPrompts = []string{"Is a cap acceptable?"}
	second := []model.Issue{iss, testIssue("i4", "Notice period", model.SeverityMedium, "Termination")}
	if err := s.SaveIssues(ctx, v.ID, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Issues(ctx, v.ID, IssueFilter{})
	if err != nil {
		t.Fatalf("issues: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 issues after replace, got %d", len(got))
	}
	if got[0].ID != "i3" || got[1].ID != "i4" {
		t.Errorf("expected analysis order i3, i4, got %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].ContractVersionID != v.ID {
		t.Errorf("expected contract version %s, got %s", v.ID, got[0].ContractVersionID)
	}
	if got[0].Anchor.Slice(v.Text) != iss.Quote {
		t.Errorf("anchor does not index quote: %q", got[0].Anchor.Slice(v.Text))
	}
	if got[0].Anchor.Fingerprint != "liability" {
		t.Errorf("expected fingerprint, got %q", got[0].Anchor.Fingerprint)
	}
	if len(got[0].SuggestedEdits) != 1 || got[0].SuggestedEdits[0].ReplacementText != "capped" {
		t.Errorf("edits not round-tripped: %+v", got[0].SuggestedEdits)
	}
	if len(got[0].DiscussionPrompts) != 1 {
		t.Errorf("prompts not round-tripped: %+v", got[0].DiscussionPrompts)
	}
	if got[1].SuggestedEdits == nil {
		t.Error("expected empty, non-nil edits")
	}
	if got[1].DiscussionPrompts != nil {
		t.Errorf("expected nil prompts, got %v", got[1].DiscussionPrompts)
	}

	latest, _ := s.Get(ctx, GetParams{ID: v.ID})
	if latest[0].IssueCount != 2 {
		t.Errorf("expected issue count 2, got %d", latest[0].IssueCount)
	}
}

func TestSaveIssuesUnknownContract(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveIssues(context.Background(), "nope", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIssuesFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v, _ := s.Ingest(ctx, IngestParams{Name: "msa", RawText: sampleContract})
	s.SaveIssues(ctx, v.ID, []model.Issue{
		testIssue("i1", "a", model.SeverityHigh, "Liability"),
		testIssue("i2", "b", model.SeverityLow, "Liability"),
		testIssue("i3", "c", model.SeverityHigh, "Payment"),
	})

	high, _ := s.Issues(ctx, v.ID, IssueFilter{Severity: model.SeverityHigh})
	if len(high) != 2 {
		t.Errorf("expected 2 high issues, got %d", len(high))
	}
	liab, _ := s.Issues(ctx, v.ID, IssueFilter{Category: "liability"})
	if len(liab) != 2 {
		t.Errorf("expected 2 liability issues (case-insensitive), got %d", len(liab))
	}
	both, _ := s.Issues(ctx, v.ID, IssueFilter{Severity: model.SeverityHigh, Category: "Payment"})
	if len(both) != 1 || both[0].ID != "i3" {
		t.Errorf("expected only i3, got %+v", both)
	}

	none, err := s.Issues(ctx, "unknown", IssueFilter{})
	if err != nil {
		t.Fatalf("issues: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", none)
	}
}

func TestSoftDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Ingest(ctx, IngestParams{Name: "old", RawText: "v1"})
	s.Ingest(ctx, IngestParams{Name: "old", RawText: "v2"})

	if err := s.Rm(ctx, RmParams{Name: "old"}); err != nil {
		t.Fatalf("rm: %v", err)
	}
	got, err := s.Get(ctx, GetParams{Name: "old"})
	if err != nil {
		t.Fatalf("get after rm latest: %v", err)
	}
	if got[0].Text != "v1" {
		t.Errorf("expected previous version to remain, got %q", got[0].Text)
	}

	if err := s.Rm(ctx, RmParams{Name: "old", AllVersions: true}); err != nil {
		t.Fatalf("rm all: %v", err)
	}
	if _, err := s.Get(ctx, GetParams{Name: "old"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found after rm all, got %v", err)
	}
	if err := s.Rm(ctx, RmParams{Name: "old"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found removing again, got %v", err)
	}
}

func TestHardDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	v, _ := s.Ingest(ctx, IngestParams{Name: "gone", RawText: sampleContract})
	s.SaveIssues(ctx, v.ID, []model.Issue{testIssue("i1", "a", model.SeverityLow, "Misc")})

	if err := s.Rm(ctx, RmParams{Name: "gone", AllVersions: true, Hard: true}); err != nil {
		t.Fatalf("hard rm: %v", err)
	}

	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM contracts`).Scan(&n)
	if n != 0 {
		t.Errorf("expected no contract rows, got %d", n)
	}
	s.db.QueryRow(`SELECT COUNT(*) FROM issues`).Scan(&n)
	if n != 0 {
		t.Errorf("expected no issue rows, got %d", n)
	}
	s.db.QueryRow(`SELECT COUNT(*) FROM sections`).Scan(&n)
	if n != 0 {
		t.Errorf("expected no section rows, got %d", n)
	}
}
