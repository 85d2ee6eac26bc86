package session

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryandumpert/flint/internal/grounding"
	"github.com/ryandumpert/flint/internal/model"
)

const contractText = `SERVICES AGREEMENT

Section 1. Services
The Supplier shall provide the services.

Section 2. Termination
Either party may terminate on thirty days notice.`

func testVersion() model.ContractVersion {
	return model.ContractVersion{ID: "ver-1", Name: "msa", FileName: "msa.pdf", Text: contractText, WordCount: 21}
}

func testIssues() []model.Issue {
	return []model.Issue{
		{ID: "a", Category: "Termination", Severity: model.SeverityHigh, Anchor: model.FailedAnchor()},
		{ID: "b", Category: "Payment", Severity: model.SeverityLow, Anchor: model.FailedAnchor()},
	}
}

func TestManager_Empty(t *testing.T) {
	m := NewManager(nil)

	snap := m.Snapshot()
	assert.False(t, snap.Active())
	assert.Empty(t, snap.Issues)

	assert.False(t, m.Summary().HasContract)
	assert.Equal(t, "what is the liability cap?", m.Ground("what is the liability cap?"))

	_, _, ok := m.Locate("show me the termination clause")
	assert.False(t, ok)
}

func TestManager_OpenAndGround(t *testing.T) {
	m := NewManager(nil)
	m.Open(testVersion(), testIssues())

	s := m.Summary()
	assert.True(t, s.HasContract)
	assert.Equal(t, "msa.pdf", s.FileName)
	assert.Equal(t, 2, s.IssueCount)
	assert.Equal(t, []string{"Termination", "Payment"}, s.TopCategories)

	got := m.Ground("Summarize the termination risk")
	assert.True(t, strings.HasPrefix(got, "[Contract: msa.pdf | 21 words]"))
	assert.True(t, strings.HasSuffix(got, "\n\nSummarize the termination risk"))

	assert.Equal(t, "hello there", m.Ground("hello there"))
}

func TestManager_Locate(t *testing.T) {
	m := NewManager(nil)
	m.Open(testVersion(), nil)

	match, req, ok := m.Locate("show me the termination clause")
	require.True(t, ok)
	assert.Equal(t, "termination", req.SearchQuery)
	assert.Equal(t, "heading", match.Strategy)
	assert.Equal(t, strings.Index(contractText, "Section 2. Termination"), match.Start)
}

func TestManager_SetIssues(t *testing.T) {
	m := NewManager(nil)
	assert.False(t, m.SetIssues("ver-1", testIssues()), "no contract open")

	m.Open(testVersion(), testIssues())
	assert.False(t, m.SetIssues("ver-2", nil), "stale version")
	assert.Len(t, m.Snapshot().Issues, 2)

	assert.True(t, m.SetIssues("ver-1", testIssues()[:1]))
	assert.Len(t, m.Snapshot().Issues, 1)
	assert.Equal(t, 1, m.Summary().IssueCount)
}

func TestManager_Clear(t *testing.T) {
	m := NewManager(nil)
	m.Open(testVersion(), testIssues())
	m.Clear()

	assert.False(t, m.Snapshot().Active())
	assert.False(t, m.Summary().HasContract)
	assert.Equal(t, "review the contract", m.Ground("review the contract"))
}

func TestManager_SnapshotIsCopy(t *testing.T) {
	m := NewManager(nil)
	issues := testIssues()
	m.Open(testVersion(), issues)

	issues[0].Title = "mutated by caller"
	snap := m.Snapshot()
	assert.Empty(t, snap.Issues[0].Title)

	snap.Issues[0].Title = "mutated by reader"
	snap.Contract.FileName = "other.pdf"
	again := m.Snapshot()
	assert.Empty(t, again.Issues[0].Title)
	assert.Equal(t, "msa.pdf", again.Contract.FileName)
}

func TestManager_CustomGrounder(t *testing.T) {
	m := NewManager(grounding.New(grounding.WithKeywords("escrow")))
	m.Open(testVersion(), nil)

	assert.True(t, strings.HasPrefix(m.Ground("is there an escrow?"), "[Contract:"))
}

func TestManager_Concurrent(t *testing.T) {
	m := NewManager(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			v := testVersion()
			v.ID = fmt.Sprintf("ver-%d", i)
			m.Open(v, testIssues())
			m.SetIssues(v.ID, nil)
		}(i)
		go func() {
			defer wg.Done()
			m.Ground("what is the risk?")
			m.Snapshot()
		}()
	}
	wg.Wait()
	assert.True(t, m.Snapshot().Active())
}
