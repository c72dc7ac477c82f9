package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/EternisAI/takeout-archivist/pkg/mailbox"
)

// Renderer lays email threads out as a paginated PDF. Pagination is
// automatic: long bodies wrap at page width and spill onto new pages,
// never truncated.
type Renderer struct {
	logger *log.Logger
}

func NewRenderer(logger *log.Logger) (*Renderer, error) {
	if logger == nil {
		return nil, errors.New("logger is nil")
	}
	return &Renderer{logger: logger}, nil
}

// RenderFile writes all threads to a PDF document at path. Message
// bodies are expected to be extracted plain text already.
func (r *Renderer) RenderFile(threads []*mailbox.Thread, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Email archive", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.MultiCell(0, 7, tr(fmt.Sprintf("Email archive (%d threads)", len(threads))), "", "L", false)
	pdf.Ln(3)

	if len(threads) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5.5, "No messages.", "", "L", false)
	}

	for _, t := range threads {
		r.renderThread(pdf, tr, t)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return errors.Wrapf(err, "write document %s", path)
	}
	r.logger.Info("Wrote document", "path", path, "threads", len(threads), "pages", pdf.PageCount())
	return nil
}

func (r *Renderer) renderThread(pdf *fpdf.Fpdf, tr func(string) string, t *mailbox.Thread) {
	pdf.Ln(3)

	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	pdf.SetDrawColor(130, 130, 130)
	pdf.Line(left, pdf.GetY(), pageWidth-right, pdf.GetY())
	pdf.Ln(2)

	subject := t.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.MultiCell(0, 6, tr(subject), "", "L", false)
	pdf.Ln(1)

	for _, m := range t.Messages {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 5, tr("From: "+m.From), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr("To: "+strings.Join(m.To, ", ")), "", "L", false)
		pdf.MultiCell(0, 5, tr("Date: "+formatDate(m.Date)), "", "L", false)
		pdf.Ln(1)

		body := m.Body
		if body == "" {
			body = "(empty message)"
		}
		pdf.MultiCell(0, 5, tr(body), "", "L", false)
		pdf.Ln(3)
	}
}

func formatDate(d time.Time) string {
	if d.IsZero() {
		return "unknown date"
	}
	return d.Format("Mon, 02 Jan 2006 15:04 MST")
}
