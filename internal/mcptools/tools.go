// Package mcptools exposes the active contract session to agents as MCP
// tools over stdio.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ryandumpert/flint/internal/locate"
	"github.com/ryandumpert/flint/internal/session"
	"github.com/ryandumpert/flint/internal/store"
)

type MessageInput struct {
	Message string `json:"message" jsonschema:"the user's chat message"`
}

type GroundOutput struct {
	Message  string `json:"message"`
	Grounded bool   `json:"grounded"`
}

type LocateInput struct {
	Message string `json:"message,omitempty" jsonschema:"a navigation request such as 'show me the termination clause'"`
	Query   string `json:"query,omitempty" jsonschema:"literal text or heading to find, used instead of message"`
}

type LocateOutput struct {
	Found   bool                      `json:"found"`
	Request *locate.NavigationRequest `json:"request,omitempty"`
	Match   *locate.Match             `json:"match,omitempty"`
}

type SummaryInput struct{}

type OpenInput struct {
	Contract string `json:"contract" jsonschema:"contract version ID or contract name (latest version)"`
}

// Tools binds the tool handlers to a session and, optionally, a store for
// open_contract.
type Tools struct {
	sess  *session.Manager
	store store.Store
	log   *log.Logger
}

// NewServer builds an MCP server with the contract tools registered. st may
// be nil, in which case open_contract is not offered.
func NewServer(sess *session.Manager, st store.Store, version string, l *log.Logger) *mcp.Server {
	t := &Tools{sess: sess, store: st, log: l}
	server := mcp.NewServer(&mcp.Implementation{Name: "flint", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ground_message",
		Description: "Prefix a chat message with the open contract's analysis summary when the message is about the contract.",
	}, t.Ground)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "locate_clause",
		Description: "Find the clause a navigation request or query refers to in the open contract.",
	}, t.Locate)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "contract_summary",
		Description: "Summarize the open contract: size, issue counts by severity and top categories.",
	}, t.Summary)
	if st != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "open_contract",
			Description: "Open a stored contract and its latest analysis as the active contract.",
		}, t.Open)
	}

	return server
}

// Serve runs server on stdin/stdout until the client disconnects or ctx
// is cancelled.
func Serve(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// Handlers return their payload as JSON text content and leave the typed
// output empty, so no output schema is advertised.

func (t *Tools) Ground(ctx context.Context, req *mcp.CallToolRequest, in MessageInput) (*mcp.CallToolResult, any, error) {
	out := t.sess.Ground(in.Message)
	return jsonResult(GroundOutput{Message: out, Grounded: out != in.Message}), nil, nil
}

func (t *Tools) Locate(ctx context.Context, req *mcp.CallToolRequest, in LocateInput) (*mcp.CallToolResult, any, error) {
	var out LocateOutput
	switch {
	case in.Query != "":
		snap := t.sess.Snapshot()
		if !snap.Active() {
			return errorResult("no contract is open"), nil, nil
		}
		if m, ok := locate.FindClause(snap.Contract.Text, in.Query); ok {
			out = LocateOutput{Found: true, Match: &m}
		}
	case in.Message != "":
		if !t.sess.Snapshot().Active() {
			return errorResult("no contract is open"), nil, nil
		}
		m, nav, ok := t.sess.Locate(in.Message)
		if nav.SearchQuery != "" {
			out.Request = &nav
		}
		if ok {
			out.Found = true
			out.Match = &m
		}
	default:
		return errorResult("message or query is required"), nil, nil
	}
	return jsonResult(out), nil, nil
}

func (t *Tools) Summary(ctx context.Context, req *mcp.CallToolRequest, _ SummaryInput) (*mcp.CallToolResult, any, error) {
	return jsonResult(t.sess.Summary()), nil, nil
}

func (t *Tools) Open(ctx context.Context, req *mcp.CallToolRequest, in OpenInput) (*mcp.CallToolResult, any, error) {
	a, err := t.store.LoadAnalysis(ctx, in.Contract)
	if err != nil {
		t.log.Warn("open contract", "contract", in.Contract, "err", err)
		return errorResult(err.Error()), nil, nil
	}
	t.sess.Open(a.Contract, a.Issues)
	return jsonResult(t.sess.Summary()), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func jsonResult(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Sprintf("encode result: %v", err))
	}
	return textResult(string(b))
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
