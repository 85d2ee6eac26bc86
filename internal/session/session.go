// Package session holds the contract currently open for chat. It replaces
// any global "current analysis" with an explicit, lock-guarded value that
// callers pass around.
package session

import (
	"sync"

	"github.com/ryandumpert/flint/internal/grounding"
	"github.com/ryandumpert/flint/internal/locate"
	"github.com/ryandumpert/flint/internal/model"
	"github.com/ryandumpert/flint/internal/summary"
)

// Snapshot is a copy of the session state. Callers may keep it after the
// session changes.
type Snapshot struct {
	Contract *model.ContractVersion `json:"contract,omitempty"`
	Issues   []model.Issue          `json:"issues"`
}

// Active reports whether a contract is open.
func (s Snapshot) Active() bool {
	return s.Contract != nil
}

// Manager guards the active contract version and its issues.
type Manager struct {
	mu       sync.RWMutex
	contract *model.ContractVersion
	issues   []model.Issue
	grounder *grounding.Grounder
}

// NewManager returns an empty session. A nil grounder uses the default
// keyword set.
func NewManager(g *grounding.Grounder) *Manager {
	if g == nil {
		g = grounding.New()
	}
	return &Manager{grounder: g}
}

// Open makes v the active contract with the given issues, replacing
// whatever was open before.
func (m *Manager) Open(v model.ContractVersion, issues []model.Issue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contract = &v
	m.issues = cloneIssues(issues)
}

// SetIssues replaces the issues of the active contract after a
// re-analysis. It reports false when no contract is open or versionID is
// not the active version.
func (m *Manager) SetIssues(versionID string, issues []model.Issue) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.contract == nil || m.contract.ID != versionID {
		return false
	}
	m.issues = cloneIssues(issues)
	return true
}

// Clear closes the active contract.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contract = nil
	m.issues = nil
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := Snapshot{Issues: cloneIssues(m.issues)}
	if m.contract != nil {
		v := *m.contract
		snap.Contract = &v
	}
	return snap
}

// Summary returns the summary context for the active contract. With no
// contract open, HasContract is false.
func (m *Manager) Summary() model.ContractSummaryContext {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return summary.BuildContext(m.contract, m.issues)
}

// Ground prefixes message with the active contract's context when the
// message is about the contract.
func (m *Manager) Ground(message string) string {
	return m.grounder.Ground(message, m.Summary())
}

// Locate finds the clause a navigation message refers to in the active
// contract.
func (m *Manager) Locate(message string) (locate.Match, locate.NavigationRequest, bool) {
	m.mu.RLock()
	var text string
	if m.contract != nil {
		text = m.contract.Text
	}
	m.mu.RUnlock()
	if text == "" {
		return locate.Match{}, locate.NavigationRequest{}, false
	}
	return locate.Locate(message, text)
}

func cloneIssues(issues []model.Issue) []model.Issue {
	out := make([]model.Issue, len(issues))
	copy(out, issues)
	return out
}
