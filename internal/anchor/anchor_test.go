package anchor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryandumpert/flint/internal/model"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func TestResolve_TrustsOffsets(t *testing.T) {
	got := Resolve(model.Anchor{Start: 0, End: 10}, alphabet[:10], alphabet)
	assert.Equal(t, Result{Start: 0, End: 10, Method: MethodOffset}, got)
}

func TestResolve_TrustsOffsetsWithLooseEnd(t *testing.T) {
	// The range only has to contain the quote's leading characters.
	quote := alphabet[5:35] + " followed by words that are not in the text"
	got := Resolve(model.Anchor{Start: 3, End: 40}, quote, alphabet)
	assert.Equal(t, Result{Start: 3, End: 40, Method: MethodOffset}, got)
}

func TestResolve_WrongStartFallsBackToQuote(t *testing.T) {
	quote := alphabet[20:30]
	got := Resolve(model.Anchor{Start: 0, End: 10}, quote, alphabet)
	assert.Equal(t, Result{Start: 20, End: 30, Method: MethodQuote}, got)
}

func TestResolve_QuoteFallback(t *testing.T) {
	text := "The Supplier shall indemnify the Customer against all losses."
	quote := "indemnify the Customer"
	got := Resolve(model.FailedAnchor(), quote, text)
	require.Equal(t, MethodQuote, got.Method)
	assert.Equal(t, strings.Index(text, quote), got.Start)
	assert.Equal(t, got.Start+len(quote), got.End)
}

func TestResolve_OutOfBoundsOffsetsIgnored(t *testing.T) {
	text := "short text with a clause"
	got := Resolve(model.Anchor{Start: 5, End: 500}, "a clause", text)
	assert.Equal(t, MethodQuote, got.Method)
	assert.Equal(t, strings.Index(text, "a clause"), got.Start)

	got = Resolve(model.Anchor{Start: 10, End: 10}, "a clause", text)
	assert.Equal(t, MethodQuote, got.Method, "empty range is not trusted")
}

func TestResolve_PartialQuoteOverrunsEnd(t *testing.T) {
	// Known-imprecise case: only the 50-character prefix matches, but the
	// end is computed from the full quote length.
	head := strings.Repeat("x", 10) + alphabet[:40]
	text := "Preamble. " + head + " and then the text diverges."
	quote := head + " but the model paraphrased the remainder of the clause"

	got := Resolve(model.FailedAnchor(), quote, text)
	require.Equal(t, MethodQuote, got.Method)
	assert.Equal(t, strings.Index(text, head), got.Start)
	assert.Equal(t, got.Start+len(quote), got.End)
	assert.Greater(t, got.End, len(text), "end overruns the text")
	assert.Equal(t, text[got.Start:], model.Anchor{Start: got.Start, End: got.End}.Slice(text))
}

func TestResolve_Failure(t *testing.T) {
	want := Result{Start: -1, End: -1, Method: MethodFailed}
	assert.Equal(t, want, Resolve(model.FailedAnchor(), "", alphabet))
	assert.Equal(t, want, Resolve(model.Anchor{Start: 0, End: 10}, "", alphabet), "empty quote never trusts offsets")
	assert.Equal(t, want, Resolve(model.FailedAnchor(), "nowhere to be found", alphabet))
	assert.Equal(t, want, Resolve(model.Anchor{Start: 0, End: 5}, "abc", ""))
	assert.True(t, want.Failed())
}

func TestResolve_MultibyteQuotePrefix(t *testing.T) {
	quote := strings.Repeat("é", 40)
	text := "début " + quote + " fin"
	got := Resolve(model.Anchor{Start: 7, End: 7 + len(quote)}, quote, text)
	assert.Equal(t, MethodOffset, got.Method)
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "abc", prefix("abcdef", 3))
	assert.Equal(t, "ab", prefix("ab", 3))
	assert.Equal(t, "éé", prefix("ééé", 2))
}
