package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_LineEndings(t *testing.T) {
	assert.Equal(t, "a\nb\nc", Normalize("a\r\nb\rc"))
}

func TestNormalize_Tabs(t *testing.T) {
	assert.Equal(t, "a    b", Normalize("a\tb"))
}

func TestNormalize_TrailingWhitespace(t *testing.T) {
	assert.Equal(t, "one\ntwo", Normalize("one   \ntwo\t"))
}

func TestNormalize_CollapsesBlankRuns(t *testing.T) {
	assert.Equal(t, "a\n\nb", Normalize("a\n\n\n\n\n\nb"))
	assert.Equal(t, "a\n\nb", Normalize("a\n  \n\t\n \nb"), "whitespace-only lines count as blank")
	assert.Equal(t, "a\n\nb", Normalize("a\n\nb"), "two newlines are kept")
}

func TestNormalize_Trims(t *testing.T) {
	assert.Equal(t, "body", Normalize("\n\n   body  \n\n"))
	assert.Equal(t, "", Normalize(" \r\n\t "))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"SECTION 1.\r\n\tTerm\r\n\r\n\r\n\r\n\r\nSECTION 2.   \r\n",
		"  leading\ttabs\t\n\n\n\n\n\ntrailing  \r",
		"\r\r\r\rmixed\r\n\n\r\n endings \t \n",
		"unicode \n\n\n\nnbsp ",
		"    indented\n\t\tblock\n\n\n\n\n",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
		assert.NotContains(t, once, "\r")
		assert.NotContains(t, once, "\t")
		assert.NotContains(t, once, "\n\n\n")
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   \n\t "))
	assert.Equal(t, 4, WordCount("  the  quick\nbrown\tfox "))
}

func TestCanonicalize(t *testing.T) {
	text, st := Canonicalize("Héllo\r\nwörld\t")
	assert.Equal(t, "Héllo\nwörld", text)
	assert.Equal(t, 2, st.WordCount)
	assert.Equal(t, 11, st.CharCount)
}
