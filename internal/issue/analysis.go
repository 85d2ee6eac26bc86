package issue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoAnalysis is returned when the payload holds no JSON object.
var ErrNoAnalysis = errors.New("no analysis object in response")

// ErrInvalidAnalysis is returned when the analysis object is not valid JSON.
var ErrInvalidAnalysis = errors.New("invalid analysis JSON")

// Analysis is the decoded, still untrusted, response of the analysis
// endpoint.
type Analysis struct {
	Issues  []Raw
	Summary string
}

// ParseAnalysis decodes an analysis response. Models often wrap their JSON
// in a Markdown fence or surround it with prose, so everything outside the
// outermost braces is ignored. Non-object entries in "issues" become nil
// records, which the normalizer drops.
func ParseAnalysis(data []byte) (Analysis, error) {
	body := strings.TrimSpace(string(data))
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return Analysis{}, ErrNoAnalysis
	}

	var top map[string]any
	if err := json.Unmarshal([]byte(body[start:end+1]), &top); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}

	var a Analysis
	a.Summary, _ = top["summary"].(string)
	items, _ := top["issues"].([]any)
	a.Issues = make([]Raw, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]any)
		a.Issues = append(a.Issues, Raw(m))
	}
	return a, nil
}
