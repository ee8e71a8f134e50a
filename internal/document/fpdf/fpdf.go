// Package fpdf renders documents as A4 PDF files.
package fpdf

import (
	_ "embed"
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/vbonduro/foodgram/internal/document"
)

// DejaVu Sans covers Latin, Cyrillic and Greek, so shopping lists render
// without a configured font.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	defaultRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	defaultBold []byte
)

const (
	margin     = 10.0
	lineHeight = 8.0
	footerBand = 12.0
	fontFamily = "body"
)

// Renderer lays documents out with a title heading on the first page, one
// bordered row per line and a black footer band carrying the title and page
// number.
type Renderer struct {
	fontFile   string
	compressed bool
}

type Option func(*Renderer)

// WithFontFile embeds the given TrueType font instead of the bundled DejaVu
// Sans. The same file is used for regular and bold text.
func WithFontFile(path string) Option {
	return func(r *Renderer) { r.fontFile = path }
}

// WithCompression toggles stream compression. It is on by default.
func WithCompression(on bool) Option {
	return func(r *Renderer) { r.compressed = on }
}

func New(opts ...Option) *Renderer {
	r := &Renderer{compressed: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) ContentType() string {
	return "application/pdf"
}

func (r *Renderer) Render(w io.Writer, doc document.Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compressed)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin+footerBand)

	if r.fontFile != "" {
		pdf.AddUTF8Font(fontFamily, "", r.fontFile)
		pdf.AddUTF8Font(fontFamily, "B", r.fontFile)
	} else {
		pdf.AddUTF8FontFromBytes(fontFamily, "", defaultRegular)
		pdf.AddUTF8FontFromBytes(fontFamily, "B", defaultBold)
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}

	pdf.SetTitle(doc.Title, true)
	pdf.SetSubject(doc.Subject, true)
	pdf.SetAuthor(doc.Author, true)
	pdf.SetCreator(doc.Title, true)

	pageW, pageH := pdf.GetPageSize()
	pdf.SetFooterFunc(func() {
		pdf.SetFillColor(0, 0, 0)
		pdf.Rect(0, pageH-footerBand, pageW, footerBand, "F")
		pdf.SetY(pageH - footerBand)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont(fontFamily, "B", 10)
		pdf.CellFormat(pageW/2-margin, footerBand, doc.Title, "", 0, "L", false, 0, "")
		pdf.CellFormat(pageW/2-margin, footerBand, strconv.Itoa(pdf.PageNo()), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 18)
	pdf.CellFormat(0, 14, doc.Subject, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "", 12)
	for i, line := range doc.Lines {
		pdf.CellFormat(10, lineHeight, strconv.Itoa(i+1)+".", "1", 0, "R", false, 0, "")
		pdf.CellFormat(0, lineHeight, line, "1", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
