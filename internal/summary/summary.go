// Package summary derives aggregate views of a contract's issues for the UI
// and for chat context injection.
package summary

import (
	"math"
	"sort"

	"github.com/ryandumpert/flint/internal/model"
)

// TopCategoryLimit caps ContractSummaryContext.TopCategories.
const TopCategoryLimit = 5

// maxWeight is the weight of a critical issue.
const maxWeight = 4

// RiskScore returns 0-100: the confidence-weighted severity of the issues,
// relative to a set of all-critical, fully confident issues.
func RiskScore(issues []model.Issue) int {
	if len(issues) == 0 {
		return 0
	}
	var total float64
	for _, iss := range issues {
		total += float64(iss.Severity.Weight()) * iss.Confidence
	}
	return int(math.Round(100 * total / float64(maxWeight*len(issues))))
}

// RiskLabel names the band a score falls in. Each band includes its lower
// bound.
func RiskLabel(score int) (string, model.Severity) {
	switch {
	case score >= 75:
		return "High Risk", model.SeverityCritical
	case score >= 50:
		return "Elevated Risk", model.SeverityHigh
	case score >= 25:
		return "Moderate Risk", model.SeverityMedium
	default:
		return "Low Risk", model.SeverityLow
	}
}

// CountBySeverity counts issues per severity. All four severities are
// always present.
func CountBySeverity(issues []model.Issue) map[model.Severity]int {
	counts := make(map[model.Severity]int, len(model.Severities))
	for _, s := range model.Severities {
		counts[s] = 0
	}
	for _, iss := range issues {
		counts[iss.Severity]++
	}
	return counts
}

// CountByCategory counts issues per observed category.
func CountByCategory(issues []model.Issue) map[string]int {
	counts := make(map[string]int)
	for _, iss := range issues {
		counts[iss.Category]++
	}
	return counts
}

// TopCategories returns up to n categories by descending count. Ties keep
// the order in which categories were first seen.
func TopCategories(issues []model.Issue, n int) []string {
	counts := CountByCategory(issues)
	order := make([]string, 0, len(counts))
	seen := make(map[string]bool, len(counts))
	for _, iss := range issues {
		if !seen[iss.Category] {
			seen[iss.Category] = true
			order = append(order, iss.Category)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// BuildContext summarizes a contract version and its issues. A nil version
// yields a context with HasContract false.
func BuildContext(v *model.ContractVersion, issues []model.Issue) model.ContractSummaryContext {
	ctx := model.ContractSummaryContext{
		IssueCount:     len(issues),
		SeverityCounts: CountBySeverity(issues),
		TopCategories:  TopCategories(issues, TopCategoryLimit),
	}
	if v != nil {
		ctx.HasContract = true
		ctx.FileName = v.FileName
		ctx.WordCount = v.WordCount
		ctx.CharCount = v.CharCount
		ctx.PageCount = v.PageCount
	}
	return ctx
}

// Report is the dashboard view of an analysis.
type Report struct {
	Context    model.ContractSummaryContext `json:"context"`
	RiskScore  int                          `json:"riskScore"`
	RiskLabel  string                       `json:"riskLabel"`
	RiskLevel  model.Severity               `json:"riskLevel"`
	Categories map[string]int               `json:"categories"`
}

// BuildReport assembles the full dashboard view.
func BuildReport(v *model.ContractVersion, issues []model.Issue) Report {
	score := RiskScore(issues)
	label, level := RiskLabel(score)
	return Report{
		Context:    BuildContext(v, issues),
		RiskScore:  score,
		RiskLabel:  label,
		RiskLevel:  level,
		Categories: CountByCategory(issues),
	}
}
