package mailbox

import (
	"context"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestProcessor_ProcessFile(t *testing.T) {
	tmpFile := writeTestMbox(t, `From test@example.com Mon Apr 07 14:31:02 +0000 2025
From: Test Sender <test@example.com>
To: user@example.com
Subject: Test Email
Message-ID: <one@example.com>
Date: Mon, 07 Apr 2025 14:31:02 +0000

This is a test email content.
From other@example.com Mon Apr 07 15:00:00 +0000 2025
From: other@example.com
To: user@example.com
Subject: Re: Test Email
Message-ID: <two@example.com>
In-Reply-To: <one@example.com>
References: <one@example.com>
Date: Mon, 07 Apr 2025 15:00:00 +0000

A reply.
`)

	logger := log.New(os.Stdout)
	proc, err := NewProcessor(logger)
	assert.NoError(t, err)

	msgs, err := proc.ProcessFile(context.Background(), tmpFile)
	assert.NoError(t, err)
	assert.Len(t, msgs, 2)

	assert.Equal(t, "test@example.com", msgs[0].From)
	assert.Equal(t, []string{"user@example.com"}, msgs[0].To)
	assert.Equal(t, "Test Email", msgs[0].Subject)
	assert.Equal(t, "one@example.com", msgs[0].MessageID)
	assert.Equal(t, 0, msgs[0].Index)
	assert.Contains(t, msgs[0].Body, "This is a test email content.")

	assert.Equal(t, "Re: Test Email", msgs[1].Subject)
	assert.Equal(t, []string{"one@example.com"}, msgs[1].References)
	assert.Equal(t, 1, msgs[1].Index)
	assert.True(t, msgs[1].Date.After(msgs[0].Date))
}

func TestProcessor_ProcessFile_BadDateKeepsMessage(t *testing.T) {
	tmpFile := writeTestMbox(t, `From test@example.com Mon Apr 07 14:31:02 +0000 2025
From: test@example.com
To: user@example.com
Subject: No usable date
Date: not a date at all

Body text.
`)

	proc, err := NewProcessor(log.New(os.Stdout))
	assert.NoError(t, err)

	msgs, err := proc.ProcessFile(context.Background(), tmpFile)
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.True(t, msgs[0].Date.IsZero())
	assert.Equal(t, "No usable date", msgs[0].Subject)
}

func TestProcessor_ProcessFile_MissingFile(t *testing.T) {
	proc, err := NewProcessor(log.New(os.Stdout))
	assert.NoError(t, err)

	_, err = proc.ProcessFile(context.Background(), "does-not-exist.mbox")
	assert.Error(t, err)
}

func TestNewProcessor_NilLogger(t *testing.T) {
	_, err := NewProcessor(nil)
	assert.Error(t, err)
}

func writeTestMbox(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp(t.TempDir(), "test-*.mbox")
	assert.NoError(t, err)

	_, err = tmpFile.WriteString(content)
	assert.NoError(t, err)
	assert.NoError(t, tmpFile.Close())

	return tmpFile.Name()
}
