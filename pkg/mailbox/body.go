package mailbox

import (
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"
)

var (
	tagPattern = regexp.MustCompile(`<[^>]*>`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// ExtractBody converts a message body to clean plain text. HTML goes
// through html2text: script and style content dropped, block elements
// become line boundaries, anchors render as "text ( url )", entities
// decoded. Plain text only gets its line endings normalized. The result
// carries no tag delimiters and is deterministic for identical input.
func ExtractBody(m Message) string {
	if m.ContentType != ContentTypeHTML {
		return normalizeNewlines(m.Body)
	}

	text, err := html2text.FromString(m.Body, html2text.Options{})
	if err != nil {
		// Keep the content rather than lose the message: strip tags
		// from the source directly.
		text = tagPattern.ReplaceAllString(m.Body, " ")
	}

	lines := strings.Split(normalizeNewlines(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
