package mcptools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryandumpert/flint/internal/logging"
	"github.com/ryandumpert/flint/internal/model"
	"github.com/ryandumpert/flint/internal/session"
	"github.com/ryandumpert/flint/internal/store"
)

const contractText = `LEASE

Section 1. Rent
Rent is due on the first day of each month.

Section 2. Indemnification
The Tenant shall indemnify the Landlord against all claims.`

func newTools(t *testing.T) (*Tools, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return &Tools{sess: session.NewManager(nil), store: st, log: logging.Discard()}, st
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestGround(t *testing.T) {
	ctx := context.Background()
	tools, _ := newTools(t)

	res, _, err := tools.Ground(ctx, nil, MessageInput{Message: "what is the risk here?"})
	require.NoError(t, err)
	var out GroundOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.False(t, out.Grounded, "nothing open yet")

	tools.sess.Open(model.ContractVersion{ID: "v1", FileName: "lease.txt", Text: contractText, WordCount: 25}, nil)
	res, _, err = tools.Ground(ctx, nil, MessageInput{Message: "what is the risk here?"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.True(t, out.Grounded)
	assert.Equal(t, "[Contract: lease.txt | 25 words]\n\nwhat is the risk here?", out.Message)
}

func TestLocate(t *testing.T) {
	ctx := context.Background()
	tools, _ := newTools(t)

	res, _, _ := tools.Locate(ctx, nil, LocateInput{Message: "show me the rent section"})
	assert.True(t, res.IsError)

	tools.sess.Open(model.ContractVersion{ID: "v1", Text: contractText}, nil)

	res, _, err := tools.Locate(ctx, nil, LocateInput{Message: "show me the rent section"})
	require.NoError(t, err)
	var out LocateOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	require.True(t, out.Found)
	assert.Equal(t, "Rent", out.Request.SectionName)
	assert.Equal(t, strings.Index(contractText, "Section 1. Rent"), out.Match.Start)

	res, _, err = tools.Locate(ctx, nil, LocateInput{Query: "indemnify"})
	require.NoError(t, err)
	out = LocateOutput{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	require.True(t, out.Found)
	assert.Equal(t, "word", out.Match.Strategy)

	res, _, _ = tools.Locate(ctx, nil, LocateInput{})
	assert.True(t, res.IsError)
}

func TestOpenAndSummary(t *testing.T) {
	ctx := context.Background()
	tools, st := newTools(t)

	v, err := st.Ingest(ctx, store.IngestParams{Name: "lease", FileName: "lease.txt", RawText: contractText})
	require.NoError(t, err)
	require.NoError(t, st.SaveIssues(ctx, v.ID, []model.Issue{{
		ID: "i1", Title: "Broad indemnity", Category: "Indemnification",
		Severity: model.SeverityHigh, RiskType: model.RiskLegal, Anchor: model.FailedAnchor(),
	}}))

	res, _, err := tools.Open(ctx, nil, OpenInput{Contract: "missing"})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, _, err = tools.Open(ctx, nil, OpenInput{Contract: "lease"})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	res, _, err = tools.Summary(ctx, nil, SummaryInput{})
	require.NoError(t, err)
	var s model.ContractSummaryContext
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &s))
	assert.True(t, s.HasContract)
	assert.Equal(t, "lease.txt", s.FileName)
	assert.Equal(t, 1, s.IssueCount)
	assert.Equal(t, []string{"Indemnification"}, s.TopCategories)
}

func TestServerOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	sess := session.NewManager(nil)
	sess.Open(model.ContractVersion{ID: "v1", FileName: "lease.txt", Text: contractText, WordCount: 25}, nil)
	server := NewServer(sess, nil, "test", logging.Discard())

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"contract_summary", "ground_message", "locate_clause"}, names)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "ground_message",
		Arguments: map[string]any{"message": "summarize the contract"},
	})
	require.NoError(t, err)
	var out GroundOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.True(t, out.Grounded)
}
