package receipt

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PDFDrawer draws onto an A4 PDF document using the Helvetica core font.
type PDFDrawer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// NewPDFDrawer returns a drawer with one blank page.
func NewPDFDrawer() *PDFDrawer {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("orderdash", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", StyleNormal, 10)
	return &PDFDrawer{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// SetCompression toggles content stream compression.
func (p *PDFDrawer) SetCompression(on bool) {
	p.pdf.SetCompression(on)
}

// SetTitle sets the document title metadata.
func (p *PDFDrawer) SetTitle(title string) {
	p.pdf.SetTitle(title, true)
}

func (p *PDFDrawer) SetFont(style string, size float64) {
	p.pdf.SetFont("Helvetica", style, size)
}

func (p *PDFDrawer) Text(x, y float64, s string) {
	p.pdf.Text(x, y, p.tr(s))
}

func (p *PDFDrawer) CenteredText(x, y float64, s string) {
	s = p.tr(s)
	p.pdf.Text(x-p.pdf.GetStringWidth(s)/2, y, s)
}

func (p *PDFDrawer) FillRect(x, y, w, h float64, r, g, b int) {
	p.pdf.SetFillColor(r, g, b)
	p.pdf.Rect(x, y, w, h, "F")
}

func (p *PDFDrawer) AddPage() {
	p.pdf.AddPage()
}

// Pages returns the number of pages drawn so far.
func (p *PDFDrawer) Pages() int {
	return p.pdf.PageCount()
}

// Bytes finishes the document and returns its encoded form.
func (p *PDFDrawer) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("encoding pdf: %w", err)
	}
	return buf.Bytes(), nil
}
