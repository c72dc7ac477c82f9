package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	groupInfoFile    = "group_info.json"
	messagesFile     = "messages.json"
	transcriptsDir   = "transcripts"
	defaultGroupName = "Group Chat"
)

type Member struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type GroupInfo struct {
	Name    string   `json:"name"`
	Members []Member `json:"members"`
}

type DeletionMetadata struct {
	DeletionType string `json:"deletion_type"`
}

type AttachedFile struct {
	ExportName   string `json:"export_name"`
	OriginalName string `json:"original_name"`
}

type Message struct {
	Creator          *Member           `json:"creator"`
	CreatedDate      string            `json:"created_date"`
	Text             string            `json:"text"`
	MessageState     string            `json:"message_state"`
	DeletionMetadata *DeletionMetadata `json:"deletion_metadata"`
	AttachedFiles    []AttachedFile    `json:"attached_files"`
}

type messageList struct {
	Messages []Message `json:"messages"`
}

// Conversation is one exported chat, fully loaded and named, ready to
// be written out as a transcript.
type Conversation struct {
	Name        string
	FolderName  string
	Members     []Member
	Messages    []Message
	Attachments []string
}

// Processor walks a Google Chat export and writes one transcript file
// per conversation.
type Processor struct {
	logger *log.Logger
}

func NewProcessor(logger *log.Logger) (*Processor, error) {
	if logger == nil {
		return nil, errors.New("logger is nil")
	}
	return &Processor{logger: logger}, nil
}

// ProcessDirectory walks <root>/Groups and writes transcripts into
// <root>/transcripts. A conversation with missing or malformed export
// files is skipped with a warning; only an unreadable root is fatal.
func (p *Processor) ProcessDirectory(ctx context.Context, root string) error {
	groups := filepath.Join(root, "Groups")
	entries, err := os.ReadDir(groups)
	if err != nil {
		return errors.Wrapf(err, "read chat export %s", groups)
	}

	outDir := filepath.Join(root, transcriptsDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", outDir)
	}

	processed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		conv, err := p.loadConversation(filepath.Join(groups, e.Name()), e.Name())
		if err != nil {
			p.logger.Warn("Skipping conversation", "folder", e.Name(), "error", err)
			continue
		}
		if err := p.writeTranscript(conv, outDir); err != nil {
			p.logger.Warn("Failed to write transcript", "chat", conv.Name, "error", err)
			continue
		}
		p.logger.Info("Processed chat", "name", conv.Name)
		processed++
	}

	p.logger.Info("Chat processing completed", "conversations", processed)
	return nil
}

func (p *Processor) loadConversation(dir, folderName string) (*Conversation, error) {
	var info GroupInfo
	if err := readJSONFile(filepath.Join(dir, groupInfoFile), &info); err != nil {
		return nil, err
	}

	var list messageList
	if err := readJSONFile(filepath.Join(dir, messagesFile), &list); err != nil {
		return nil, err
	}
	sortMessages(list.Messages)

	conv := &Conversation{
		Name:       displayName(folderName, info),
		FolderName: folderName,
		Members:    info.Members,
		Messages:   list.Messages,
	}

	// Attachment files sit next to the two export files; messages may
	// also reference attachments by export name.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == groupInfoFile || e.Name() == messagesFile {
			continue
		}
		conv.Attachments = append(conv.Attachments, e.Name())
	}
	for _, m := range list.Messages {
		for _, f := range m.AttachedFiles {
			if name := attachmentName(f); name != "" {
				conv.Attachments = append(conv.Attachments, name)
			}
		}
	}
	conv.Attachments = lo.Uniq(conv.Attachments)

	return conv, nil
}

// displayName derives the transcript name. DM folders take the name of
// the participant who is not the archive owner; Space folders take the
// stored group name, with member initials appended when the name is the
// literal "Group Chat" placeholder.
func displayName(folderName string, info GroupInfo) string {
	var name string
	switch {
	case strings.HasPrefix(folderName, "DM"):
		if len(info.Members) > 1 {
			name = info.Members[1].Name
		} else if len(info.Members) == 1 {
			name = info.Members[0].Name
		}
	case strings.HasPrefix(folderName, "Space"):
		name = info.Name
		if name == "" {
			name = folderName
		}
		if name == defaultGroupName {
			name += " " + memberInitials(info.Members)
		}
	}
	if name == "" {
		name = folderName
	}
	return name
}

func memberInitials(members []Member) string {
	var sb strings.Builder
	for _, m := range members {
		for _, part := range strings.Fields(m.Name) {
			sb.WriteString(string([]rune(part)[:1]))
		}
	}
	return sb.String()
}

func (p *Processor) writeTranscript(conv *Conversation, outDir string) (err error) {
	path := filepath.Join(outDir, SanitizeFileName(conv.Name)+".txt")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrapf(closeErr, "close %s", path)
		}
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "Chat: %s\n", conv.Name)
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintln(w)

	for _, m := range conv.Messages {
		fmt.Fprintf(w, "[%s] %s: %s\n", timestampOf(m), creatorOf(m), renderText(m))
	}

	if len(conv.Attachments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Attachments:")
		fmt.Fprintln(w, strings.Repeat("-", 40))
		for _, a := range conv.Attachments {
			fmt.Fprintf(w, "- %s\n", a)
		}
	}

	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", filepath.Base(path))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "parse %s", filepath.Base(path))
	}
	return nil
}

func creatorOf(m Message) string {
	if m.Creator != nil && m.Creator.Name != "" {
		return m.Creator.Name
	}
	return "Unknown"
}

func timestampOf(m Message) string {
	if m.CreatedDate != "" {
		return m.CreatedDate
	}
	return "Unknown time"
}

func renderText(m Message) string {
	if m.MessageState == "DELETED" {
		deletionType := "Unknown reason"
		if m.DeletionMetadata != nil && m.DeletionMetadata.DeletionType != "" {
			deletionType = m.DeletionMetadata.DeletionType
		}
		return fmt.Sprintf("[Message deleted by %s]", deletionType)
	}
	if strings.TrimSpace(m.Text) != "" {
		return m.Text
	}
	if len(m.AttachedFiles) > 0 {
		names := lo.Map(m.AttachedFiles, func(f AttachedFile, _ int) string {
			if name := attachmentName(f); name != "" {
				return name
			}
			return "Unknown File"
		})
		return "Attachment: " + strings.Join(names, ", ")
	}
	return "[No text]"
}

func attachmentName(f AttachedFile) string {
	if f.ExportName != "" {
		return f.ExportName
	}
	return f.OriginalName
}

// createdDateLayouts covers the human-readable timestamps Takeout
// writes, e.g. "Tuesday, January 30, 2024 at 1:02:53 PM UTC".
var createdDateLayouts = []string{
	"Monday, January 2, 2006 at 3:04:05 PM MST",
	"Monday, January 2, 2006 at 3:04:05 PM",
	time.RFC3339,
}

func parseCreatedDate(s string) (time.Time, bool) {
	for _, layout := range createdDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// sortMessages orders chronologically where timestamps parse; export
// order is already chronological, so unparsed timestamps keep their
// relative position.
func sortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		a, aok := parseCreatedDate(msgs[i].CreatedDate)
		b, bok := parseCreatedDate(msgs[j].CreatedDate)
		if !aok || !bok {
			return false
		}
		return a.Before(b)
	})
}

var unsafeFileChars = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_",
)

// SanitizeFileName makes a display name safe to use as a file name.
func SanitizeFileName(name string) string {
	name = unsafeFileChars.Replace(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 {
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" {
		name = "untitled"
	}
	return name
}
