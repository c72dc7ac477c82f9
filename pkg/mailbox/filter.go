package mailbox

import (
	"bufio"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// IgnoreList is a set of lowercase email addresses whose messages are
// dropped before thread building.
type IgnoreList map[string]struct{}

// LoadIgnoreList reads one address per line. Blank lines and lines
// starting with # are skipped silently; lines that do not look like a
// single address are skipped with a warning.
func LoadIgnoreList(path string, logger *log.Logger) (IgnoreList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open ignore list %s", path)
	}
	defer f.Close() //nolint:errcheck

	list := IgnoreList{}
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.ContainsAny(line, " \t") || !strings.Contains(line, "@") {
			logger.Warn("Skipping malformed ignore-list entry", "line", lineNo, "entry", line)
			continue
		}
		list[strings.ToLower(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read ignore list %s", path)
	}
	return list, nil
}

func (l IgnoreList) Contains(addr string) bool {
	_, ok := l[strings.ToLower(addr)]
	return ok
}

// FilterMessages drops every message whose sender or any recipient is
// on the ignore list. Exact address match only, case-insensitive.
// Applying it twice changes nothing.
func FilterMessages(msgs []Message, ignore IgnoreList) []Message {
	if len(ignore) == 0 {
		return msgs
	}
	return lo.Filter(msgs, func(m Message, _ int) bool {
		if ignore.Contains(m.From) {
			return false
		}
		for _, to := range m.To {
			if ignore.Contains(to) {
				return false
			}
		}
		return true
	})
}
