package mailbox

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Processor reads an mbox archive into parsed messages.
type Processor struct {
	logger *log.Logger
}

func NewProcessor(logger *log.Logger) (*Processor, error) {
	if logger == nil {
		return nil, errors.New("logger is nil")
	}
	return &Processor{logger: logger}, nil
}

// ProcessFile parses every message in the mbox file at path. Records
// that cannot be parsed cleanly still come back as permissively decoded
// messages; only an unreadable file is an error.
func (p *Processor) ProcessFile(ctx context.Context, path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open mailbox %s", path)
	}
	defer f.Close() //nolint:errcheck

	msgs, err := p.readAll(f)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Parsed mailbox", "path", path, "messages", len(msgs))
	return msgs, nil
}

// readAll splits the stream on mbox "From " sentinel lines and parses
// each record. The sentinel line itself is not part of the message.
func (p *Processor) readAll(r io.Reader) ([]Message, error) {
	var msgs []Message
	var buf strings.Builder
	in := false

	flush := func() {
		if !in {
			return
		}
		msgs = append(msgs, parseMessage(buf.String(), len(msgs)))
		buf.Reset()
	}

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			switch {
			case strings.HasPrefix(line, "From "):
				flush()
				in = true
			case in:
				buf.WriteString(line)
			}
		}
		if err == io.EOF {
			flush()
			return msgs, nil
		}
		if err != nil {
			return msgs, errors.Wrap(err, "read mailbox")
		}
	}
}
