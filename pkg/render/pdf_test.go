package render

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"github.com/EternisAI/takeout-archivist/pkg/mailbox"
)

func TestRenderFile(t *testing.T) {
	threads := []*mailbox.Thread{
		{
			Subject: "Meeting",
			Messages: []*mailbox.Message{
				{
					From:    "alice@x.com",
					To:      []string{"bob@x.com"},
					Subject: "Meeting",
					Date:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
					Body:    "Shall we meet tomorrow?",
				},
				{
					From:    "bob@x.com",
					To:      []string{"alice@x.com"},
					Subject: "Re: Meeting",
					Date:    time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
					Body:    "Sure, works for me.",
				},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "out.pdf")
	r, err := NewRenderer(log.New(os.Stdout))
	assert.NoError(t, err)
	assert.NoError(t, r.RenderFile(threads, path))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderFile_LongBodyPaginates(t *testing.T) {
	body := ""
	for i := 0; i < 400; i++ {
		body += "A fairly long line of transcript text that has to wrap at the page width.\n"
	}
	threads := []*mailbox.Thread{
		{
			Subject: "Wall of text",
			Messages: []*mailbox.Message{
				{From: "a@x.com", To: []string{"b@x.com"}, Body: body},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "long.pdf")
	r, err := NewRenderer(log.New(os.Stdout))
	assert.NoError(t, err)
	assert.NoError(t, r.RenderFile(threads, path))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	// 400 lines cannot fit one A4 page; auto page break must have kicked in.
	assert.Greater(t, len(data), 4000)
}

func TestRenderFile_EmptyInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	r, err := NewRenderer(log.New(os.Stdout))
	assert.NoError(t, err)
	assert.NoError(t, r.RenderFile(nil, path))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}
