package mailbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBody_HTML(t *testing.T) {
	m := Message{
		ContentType: ContentTypeHTML,
		Body: `<html><head><style>p { color: red; }</style>
<script>alert("nope")</script></head>
<body><p>First paragraph with   extra   spaces.</p>
<p>Second &amp; final paragraph.</p>
<ul><li>one</li><li>two</li></ul>
<a href="https://example.com">a link</a></body></html>`,
	}

	out := ExtractBody(m)
	assert.NotContains(t, out, "<")
	assert.NotContains(t, out, ">")
	assert.NotContains(t, out, "alert")
	assert.NotContains(t, out, "color: red")
	assert.Contains(t, out, "First paragraph with extra spaces.")
	assert.Contains(t, out, "Second & final paragraph.")
	assert.Contains(t, out, "a link")
	assert.Contains(t, out, "https://example.com")

	// Block elements become separate lines.
	lines := strings.Split(out, "\n")
	assert.Greater(t, len(lines), 1)
}

func TestExtractBody_Deterministic(t *testing.T) {
	m := Message{
		ContentType: ContentTypeHTML,
		Body:        `<p>Hello <b>world</b></p><p>Again</p>`,
	}

	first := ExtractBody(m)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ExtractBody(m))
	}
}

func TestExtractBody_PlainPassthrough(t *testing.T) {
	m := Message{
		ContentType: ContentTypePlain,
		Body:        "line one\r\nline two\rline three\n\nparagraph",
	}

	out := ExtractBody(m)
	assert.Equal(t, "line one\nline two\nline three\n\nparagraph", out)
}

func TestExtractBody_PlainKeepsAngleBracketsVerbatim(t *testing.T) {
	// Plain text is not HTML; literal brackets must survive.
	m := Message{ContentType: ContentTypePlain, Body: "see <this>"}
	assert.Equal(t, "see <this>", ExtractBody(m))
}
