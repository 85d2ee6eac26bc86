// Package model defines the core contract review data types.
package model

import (
	"strings"
	"time"
)

// Severity ranks how serious an issue is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities lists every severity from most to least serious.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Weight returns the numeric rank used for risk scoring (critical=4 ... low=1).
// Unknown values weigh 0.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// RiskType classifies the nature of an issue.
type RiskType string

const (
	RiskLegal       RiskType = "legal"
	RiskCommercial  RiskType = "commercial"
	RiskOperational RiskType = "operational"
	RiskSecurity    RiskType = "security"
	RiskPrivacy     RiskType = "privacy"
	RiskCompliance  RiskType = "compliance"
)

// EditType is the kind of change a suggested edit proposes.
type EditType string

const (
	EditAdd    EditType = "add"
	EditRemove EditType = "remove"
	EditChange EditType = "change"
)

// ValidSeverities are the allowed severity values.
var ValidSeverities = map[Severity]bool{
	SeverityCritical: true,
	SeverityHigh:     true,
	SeverityMedium:   true,
	SeverityLow:      true,
}

// ValidRiskTypes are the allowed risk types.
var ValidRiskTypes = map[RiskType]bool{
	RiskLegal:       true,
	RiskCommercial:  true,
	RiskOperational: true,
	RiskSecurity:    true,
	RiskPrivacy:     true,
	RiskCompliance:  true,
}

// ValidEditTypes are the allowed suggested edit types.
var ValidEditTypes = map[EditType]bool{
	EditAdd:    true,
	EditRemove: true,
	EditChange: true,
}

// Anchor is a half-open byte range [Start, End) into a contract's canonical
// text. Start == End == -1 marks an anchor that could not be resolved.
type Anchor struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// FailedAnchor returns the sentinel unresolved anchor.
func FailedAnchor() Anchor {
	return Anchor{Start: -1, End: -1}
}

// Resolved reports whether the anchor points into the text at all.
func (a Anchor) Resolved() bool {
	return a.Start >= 0 && a.End > a.Start
}

// Slice returns the anchored text, clamping an end that runs past the text.
// It returns "" for unresolved anchors.
func (a Anchor) Slice(text string) string {
	if !a.Resolved() || a.Start >= len(text) {
		return ""
	}
	end := a.End
	if end > len(text) {
		end = len(text)
	}
	return text[a.Start:end]
}

// SuggestedEdit is a proposed remedy for an issue. Value (the rationale) is
// always present; the text fields depend on Type and may be empty.
type SuggestedEdit struct {
	Type            EditType `json:"type"`
	ProposedText    string   `json:"proposedText,omitempty"`
	ReplacementText string   `json:"replacementText,omitempty"`
	Value           string   `json:"value"`
	Tradeoffs       string   `json:"tradeoffs,omitempty"`
}

// Issue is one flagged risk or clause concern in a contract version.
// Issues are created in bulk when an analysis is normalized and never
// mutated afterwards.
type Issue struct {
	ID                string          `json:"id"`
	ContractVersionID string          `json:"contractVersionId"`
	Title             string          `json:"title"`
	Category          string          `json:"category"`
	Severity          Severity        `json:"severity"`
	RiskType          RiskType        `json:"riskType"`
	Confidence        float64         `json:"confidence"`
	Anchor            Anchor          `json:"anchor"`
	Quote             string          `json:"quote"`
	WhyConcern        string          `json:"whyConcern"`
	SuggestedEdits    []SuggestedEdit `json:"suggestedEdits"`
	DiscussionPrompts []string        `json:"discussionPrompts,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// ContractVersion is one ingested revision of a contract. Text is the
// canonical text all issue anchors index into.
type ContractVersion struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	FileName   string     `json:"fileName"`
	Version    int        `json:"version"`
	Supersedes string     `json:"supersedes,omitempty"`
	Text       string     `json:"text,omitempty"`
	WordCount  int        `json:"wordCount"`
	CharCount  int        `json:"charCount"`
	PageCount  *int       `json:"pageCount,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
	IssueCount int        `json:"issueCount,omitempty"`
}

// ContractSummaryContext is a compact view of the analysis state, derived
// on demand from a contract version and its issues.
type ContractSummaryContext struct {
	HasContract    bool             `json:"hasContract"`
	FileName       string           `json:"fileName"`
	WordCount      int              `json:"wordCount"`
	CharCount      int              `json:"charCount"`
	PageCount      *int             `json:"pageCount,omitempty"`
	IssueCount     int              `json:"issueCount"`
	SeverityCounts map[Severity]int `json:"severityCounts"`
	TopCategories  []string         `json:"topCategories"`
}

// ParseSeverity returns the severity named by s (case-insensitive).
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToLower(s))
	return sev, ValidSeverities[sev]
}

// ParseRiskType returns the risk type named by s (case-insensitive).
func ParseRiskType(s string) (RiskType, bool) {
	rt := RiskType(strings.ToLower(s))
	return rt, ValidRiskTypes[rt]
}
