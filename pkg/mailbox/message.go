package mailbox

import (
	"io"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/mnako/letters"
)

const (
	ContentTypePlain = "plain"
	ContentTypeHTML  = "html"
)

// Message is one parsed record from the mailbox archive.
type Message struct {
	MessageID   string
	Subject     string
	From        string
	To          []string
	Date        time.Time // zero value when the Date header is missing or unparsable
	References  []string  // earliest first; In-Reply-To folded in last when absent
	Body        string
	ContentType string
	Labels      []string
	Index       int // position in the archive, used for stable ordering
}

// parseMessage turns one raw mbox record into a Message. letters does
// the heavy lifting (folded headers, MIME encoded words, charsets,
// multipart bodies); records it rejects go through a permissive
// net/mail fallback so no message is ever dropped.
func parseMessage(raw string, idx int) Message {
	email, err := letters.ParseEmail(strings.NewReader(raw))
	if err != nil {
		return parseMessageFallback(raw, idx)
	}

	m := Message{
		MessageID: canonicalMessageID(string(email.Headers.MessageID)),
		Subject:   email.Headers.Subject,
		Date:      email.Headers.Date,
		Index:     idx,
	}
	if len(email.Headers.From) > 0 && email.Headers.From[0] != nil {
		m.From = strings.ToLower(email.Headers.From[0].Address)
	}
	for _, to := range email.Headers.To {
		if to != nil {
			m.To = append(m.To, strings.ToLower(to.Address))
		}
	}
	for _, ref := range email.Headers.References {
		m.References = appendReference(m.References, string(ref))
	}
	for _, ref := range email.Headers.InReplyTo {
		m.References = appendReference(m.References, string(ref))
	}
	for _, v := range email.Headers.ExtraHeaders["X-Gmail-Labels"] {
		m.Labels = append(m.Labels, splitLabels(v)...)
	}

	if email.Text == "" && email.HTML != "" {
		m.Body = email.HTML
		m.ContentType = ContentTypeHTML
	} else {
		m.Body = email.Text
		m.ContentType = ContentTypePlain
	}
	return m
}

// parseMessageFallback never fails: at worst the whole record becomes
// an undated plain-text body.
func parseMessageFallback(raw string, idx int) Message {
	m := Message{Index: idx, ContentType: ContentTypePlain}

	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		m.Body = raw
		return m
	}

	h := msg.Header
	m.MessageID = canonicalMessageID(h.Get("Message-ID"))
	m.Subject = h.Get("Subject")
	m.From = extractEmailAddress(h.Get("From"))
	if addrs, err := h.AddressList("To"); err == nil {
		for _, a := range addrs {
			m.To = append(m.To, strings.ToLower(a.Address))
		}
	} else if to := extractEmailAddress(h.Get("To")); to != "" {
		m.To = append(m.To, to)
	}
	m.Date, _ = mail.ParseDate(h.Get("Date"))
	for _, ref := range strings.Fields(h.Get("References")) {
		m.References = appendReference(m.References, ref)
	}
	for _, ref := range strings.Fields(h.Get("In-Reply-To")) {
		m.References = appendReference(m.References, ref)
	}
	m.Labels = splitLabels(h.Get("X-Gmail-Labels"))

	body, _ := io.ReadAll(msg.Body)
	if strings.EqualFold(h.Get("Content-Transfer-Encoding"), "quoted-printable") {
		if decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(string(body)))); err == nil {
			body = decoded
		}
	}
	m.Body = string(body)
	if strings.Contains(strings.ToLower(h.Get("Content-Type")), "html") {
		m.ContentType = ContentTypeHTML
	}
	return m
}

var replyPrefixes = []string{"re:", "fw:", "fwd:"}

// NormalizeSubject derives the grouping key for messages without usable
// references: reply/forward prefixes stripped repeatedly until none
// remain, inner whitespace collapsed, casefolded.
func NormalizeSubject(subject string) string {
	s := strings.TrimSpace(subject)
	for {
		stripped := false
		lower := strings.ToLower(s)
		for _, prefix := range replyPrefixes {
			if strings.HasPrefix(lower, prefix) {
				s = strings.TrimSpace(s[len(prefix):])
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func canonicalMessageID(id string) string {
	return strings.Trim(strings.TrimSpace(id), "<>")
}

func appendReference(refs []string, id string) []string {
	id = canonicalMessageID(id)
	if id == "" {
		return refs
	}
	for _, r := range refs {
		if r == id {
			return refs
		}
	}
	return append(refs, id)
}

func splitLabels(v string) []string {
	var labels []string
	for _, label := range strings.Split(v, ",") {
		if label = strings.TrimSpace(label); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

var emailPattern = regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)

// extractEmailAddress extracts a bare lowercase address from a header value.
func extractEmailAddress(headerValue string) string {
	if addr, err := mail.ParseAddress(headerValue); err == nil {
		return strings.ToLower(addr.Address)
	}

	if matches := emailPattern.FindStringSubmatch(headerValue); len(matches) > 1 {
		return strings.ToLower(matches[1])
	}

	return ""
}
