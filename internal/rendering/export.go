package rendering

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Format is an output document format.
type Format string

// Supported formats
const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatText     Format = "txt"
)

// ParseFormat maps a name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case FormatMarkdown, FormatHTML, FormatPDF, FormatText:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	case "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Document is a titled markdown document ready for export.
type Document struct {
	Title    string
	Markdown string
	// Filename is the suggested download name without extension.
	Filename string
}

// Exporter converts documents to any supported format.
type Exporter struct {
	pdf PDFRenderer
}

// NewExporter creates an exporter; pdf may be nil when PDF output is not needed.
func NewExporter(pdf PDFRenderer) *Exporter {
	return &Exporter{pdf: pdf}
}

// Export renders doc in format f.
func (e *Exporter) Export(ctx context.Context, doc Document, f Format) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return []byte(doc.Markdown), nil
	case FormatHTML, FormatPDF, FormatText:
	default:
		return nil, &RenderError{Format: f, Message: "unsupported format"}
	}

	page, err := HTMLDocument(doc.Title, doc.Markdown)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatHTML:
		return []byte(page), nil
	case FormatText:
		text, err := PlainText(page)
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	default:
		if e.pdf == nil {
			return nil, &RenderError{Format: FormatPDF, Message: "no PDF renderer configured"}
		}
		return e.pdf.RenderPDF(ctx, page)
	}
}

// Download names
const (
	ReportPrefix      = "CB_Discovery_Report_"
	SpecPrefix        = "Functional_Spec_"
	ResponsesFilename = "CB_Survey_Responses"
	timestampLayout   = "20060102_150405"
)

// Timestamp formats t in UTC for file names.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ReportFilename is the maturity report name for t, without extension.
func ReportFilename(t time.Time) string {
	return ReportPrefix + Timestamp(t)
}

// SpecFilename is the functional specification name for t, without extension.
func SpecFilename(t time.Time) string {
	return SpecPrefix + Timestamp(t)
}

// WithExtension appends the format extension to a base file name.
func WithExtension(base string, f Format) string {
	return base + "." + string(f)
}
