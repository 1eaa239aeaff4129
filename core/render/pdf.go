package render

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"gitlab.com/tozd/go/errors"

	"github.com/gaurav-prasanna/faleproxy/core"
)

var (
	italicRegex   = regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	codeRegex     = regexp.MustCompile("`([^`]+)`")
	mdLinkRegex   = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`)
	orderedRegex  = regexp.MustCompile(`^\d+\.\s`)
	headingSizes  = map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	bodyFontSize  = 10.0
	codeFontSize  = 9.0
	pageMarginBot = 15.0
)

// PDFRenderer renders the page's Markdown as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render converts the page Markdown into PDF bytes. Core fonts only cover
// cp1252, so text is translated from UTF-8 before it is written.
func (r *PDFRenderer) Render(page *core.Page) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(page.Meta.Title, true)
	pdf.SetAutoPageBreak(true, pageMarginBot)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if page.Meta.Title != "" {
		pdf.SetFont("Helvetica", "B", headingSizes[1])
		pdf.MultiCell(0, 8, tr(page.Meta.Title), "", "L", false)
		pdf.Ln(4)
	}
	if page.Meta.URL != "" {
		pdf.SetFont("Helvetica", "I", codeFontSize)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 5, tr("Source: "+page.Meta.URL), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(6)
	}

	inCode := false
	for _, line := range strings.Split(page.Markdown, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
			pdf.Ln(2)
			continue
		}
		if inCode {
			pdf.SetFont("Courier", "", codeFontSize)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, tr(line), "", "L", true)
			continue
		}

		switch {
		case trimmed == "":
			pdf.Ln(3)
		case strings.HasPrefix(trimmed, "#"):
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			size, ok := headingSizes[level]
			if !ok {
				size = bodyFontSize
			}
			pdf.Ln(4)
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, size*0.6, tr(plainText(strings.TrimLeft(trimmed, "# "))), "", "L", false)
			pdf.Ln(2)
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			pdf.SetFont("Helvetica", "", bodyFontSize)
			pdf.MultiCell(0, 5, tr("• "+plainText(trimmed[2:])), "", "L", false)
		case orderedRegex.MatchString(trimmed):
			pdf.SetFont("Helvetica", "", bodyFontSize)
			pdf.MultiCell(0, 5, tr(plainText(trimmed)), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", bodyFontSize)
			pdf.MultiCell(0, 5, tr(plainText(line)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// NeedsMarkdown is true.
func (r *PDFRenderer) NeedsMarkdown() bool {
	return true
}

// plainText strips inline Markdown formatting.
func plainText(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	text = italicRegex.ReplaceAllString(text, " $1 ")
	text = codeRegex.ReplaceAllString(text, "$1")
	text = mdLinkRegex.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
