// Package issue validates untrusted analysis output into typed issues.
//
// Raw is the only shape analysis endpoint data takes before it crosses into
// the model package. Normalization never rejects a record for one bad field;
// it substitutes a default instead.
package issue

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/ryandumpert/flint/internal/anchor"
	"github.com/ryandumpert/flint/internal/logging"
	"github.com/ryandumpert/flint/internal/model"
)

// Raw is one unvalidated issue record as decoded from analysis JSON.
type Raw map[string]any

// ErrMalformedIssue marks a record that could not be normalized at all.
var ErrMalformedIssue = errors.New("malformed issue")

const (
	DefaultTitle      = "Untitled Issue"
	DefaultCategory   = "General"
	DefaultConfidence = 0.5
)

// Normalizer converts Raw records into model.Issue values.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	newID func() string
	now   func() time.Time
	log   *log.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets where dropped records are reported.
func WithLogger(l *log.Logger) Option {
	return func(n *Normalizer) { n.log = l }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithIDs overrides the issue ID generator.
func WithIDs(newID func() string) Option {
	return func(n *Normalizer) { n.newID = newID }
}

// NewNormalizer returns a Normalizer minting ULIDs and stamping UTC time.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		newID: func() string { return ulid.Make().String() },
		now:   func() time.Time { return time.Now().UTC() },
		log:   logging.Discard(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize validates raw against the canonical text of contract version
// versionID. The issue always gets a fresh ID; raw IDs are ignored.
func (n *Normalizer) Normalize(raw Raw, versionID, text string) (iss model.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			iss = model.Issue{}
			err = fmt.Errorf("%w: %v", ErrMalformedIssue, r)
		}
	}()

	if raw == nil {
		return model.Issue{}, fmt.Errorf("%w: empty record", ErrMalformedIssue)
	}

	quote := stringOr(raw["quote"], "")
	rawAnchor := anchorOf(raw)
	resolved := anchor.Resolve(rawAnchor, quote, text)

	iss = model.Issue{
		ID:                n.newID(),
		ContractVersionID: versionID,
		Title:             stringOr(raw["title"], DefaultTitle),
		Category:          stringOr(raw["category"], DefaultCategory),
		Severity:          severityOf(raw["severity"]),
		RiskType:          riskTypeOf(raw["riskType"]),
		Confidence:        confidenceOf(raw["confidence"]),
		Anchor:            resolved.Anchor(rawAnchor.Fingerprint),
		Quote:             quote,
		WhyConcern:        stringOr(raw["whyConcern"], stringOr(raw["explanation"], "")),
		SuggestedEdits:    editsOf(raw["suggestedEdits"]),
		DiscussionPrompts: promptsOf(raw["discussionPrompts"]),
		CreatedAt:         n.now(),
	}
	return iss, nil
}

// NormalizeBatch normalizes every record, logging and skipping the ones
// that fail. One bad record never aborts the batch.
func (n *Normalizer) NormalizeBatch(raws []Raw, versionID, text string) []model.Issue {
	issues := make([]model.Issue, 0, len(raws))
	for i, raw := range raws {
		iss, err := n.Normalize(raw, versionID, text)
		if err != nil {
			n.log.Warn("dropping issue", "index", i, "version", versionID, "err", err)
			continue
		}
		if iss.Anchor.Start < 0 {
			n.log.Debug("issue anchor unresolved", "index", i, "title", iss.Title)
		}
		issues = append(issues, iss)
	}
	return issues
}

// Revalidate runs an already typed issue, such as one read back from an
// export, through the same checks as Normalize. The issue gets a fresh ID;
// a zero CreatedAt is stamped with the current time.
func (n *Normalizer) Revalidate(iss model.Issue, versionID, text string) (model.Issue, error) {
	b, err := json.Marshal(iss)
	if err != nil {
		return model.Issue{}, fmt.Errorf("%w: %v", ErrMalformedIssue, err)
	}
	var raw Raw
	if err := json.Unmarshal(b, &raw); err != nil {
		return model.Issue{}, fmt.Errorf("%w: %v", ErrMalformedIssue, err)
	}

	out, err := n.Normalize(raw, versionID, text)
	if err != nil {
		return model.Issue{}, err
	}
	if !iss.CreatedAt.IsZero() {
		out.CreatedAt = iss.CreatedAt
	}
	return out, nil
}

// RevalidateBatch is NormalizeBatch for typed issues.
func (n *Normalizer) RevalidateBatch(issues []model.Issue, versionID, text string) []model.Issue {
	out := make([]model.Issue, 0, len(issues))
	for i, iss := range issues {
		v, err := n.Revalidate(iss, versionID, text)
		if err != nil {
			n.log.Warn("dropping issue", "index", i, "version", versionID, "err", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

func severityOf(v any) model.Severity {
	s, _ := v.(string)
	if sev, ok := model.ParseSeverity(s); ok {
		return sev
	}
	return model.SeverityMedium
}

func riskTypeOf(v any) model.RiskType {
	s, _ := v.(string)
	if rt, ok := model.ParseRiskType(s); ok {
		return rt
	}
	return model.RiskLegal
}

func confidenceOf(v any) float64 {
	c, ok := number(v)
	if !ok {
		return DefaultConfidence
	}
	return math.Max(0, math.Min(1, c))
}

// anchorOf reads the raw anchor, accepting either a nested
// {"anchor": {"start", "end", "fingerprint"}} object or top-level
// anchorStart/anchorEnd fields. Missing offsets default to -1.
func anchorOf(raw Raw) model.Anchor {
	a := model.FailedAnchor()
	if m, ok := raw["anchor"].(map[string]any); ok {
		a.Start = offset(m["start"])
		a.End = offset(m["end"])
		a.Fingerprint = stringOr(m["fingerprint"], "")
		return a
	}
	a.Start = offset(raw["anchorStart"])
	a.End = offset(raw["anchorEnd"])
	return a
}

func offset(v any) int {
	f, ok := number(v)
	if !ok || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return -1
	}
	return int(f)
}

func editsOf(v any) []model.SuggestedEdit {
	items, ok := v.([]any)
	if !ok {
		return []model.SuggestedEdit{}
	}
	edits := make([]model.SuggestedEdit, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		t, _ := m["type"].(string)
		et := model.EditType(strings.ToLower(t))
		if !model.ValidEditTypes[et] {
			et = model.EditChange
		}
		edits = append(edits, model.SuggestedEdit{
			Type:            et,
			ProposedText:    stringOr(m["proposedText"], ""),
			ReplacementText: stringOr(m["replacementText"], ""),
			Value:           stringOr(m["value"], ""),
			Tradeoffs:       stringOr(m["tradeoffs"], ""),
		})
	}
	return edits
}

func promptsOf(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	prompts := make([]string, 0, len(items))
	for _, item := range items {
		prompts = append(prompts, stringify(item))
	}
	return prompts
}

// number accepts JSON numbers only; numeric strings are not numbers.
func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// stringOr returns the string form of a scalar, or def when v is missing,
// empty, false, or not a scalar.
func stringOr(v any, def string) string {
	switch x := v.(type) {
	case string:
		if x != "" {
			return x
		}
	case bool:
		if x {
			return "true"
		}
	default:
		if f, ok := number(v); ok && f != 0 {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return def
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	}
	if f, ok := number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
